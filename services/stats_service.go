package services

import (
	"reputely/models"
	"reputely/repository"
)

// statBuckets is the fixed bucket order reporting consumers rely on. Every
// bucket is always present in the output, zero-filled when absent.
var statBuckets = []models.MessageStatus{
	models.MessageStatusPending,
	models.MessageStatusSent,
	models.MessageStatusDelivered,
	models.MessageStatusOpened,
	models.MessageStatusClicked,
	models.MessageStatusFailed,
	models.MessageStatusBounced,
}

// CampaignCounters is the denormalized counter snapshot from the campaign row.
type CampaignCounters struct {
	ID              uint                  `json:"id"`
	Name            string                `json:"name"`
	Status          models.CampaignStatus `json:"status"`
	TotalRecipients int                   `json:"total_recipients"`
	SentCount       int                   `json:"sent_count"`
	DeliveredCount  int                   `json:"delivered_count"`
	OpenedCount     int                   `json:"opened_count"`
	ClickedCount    int                   `json:"clicked_count"`
	ReviewCount     int                   `json:"review_count"`
}

// CampaignStats is the getStats payload: counters plus a per-channel
// breakdown of the message ledger.
type CampaignStats struct {
	Campaign CampaignCounters `json:"campaign"`
	Email    map[string]int64 `json:"email"`
	SMS      map[string]int64 `json:"sms"`
}

// StatsService summarizes the message ledger and campaign counters into
// reporting views.
type StatsService struct {
	Campaigns repository.CampaignRepositoryInterface
	Messages  repository.MessageRepositoryInterface
}

func NewStatsService(campaigns repository.CampaignRepositoryInterface, messages repository.MessageRepositoryInterface) *StatsService {
	return &StatsService{Campaigns: campaigns, Messages: messages}
}

func (s *StatsService) GetStats(campaignID, clientID uint) (*CampaignStats, error) {
	campaign, err := s.Campaigns.GetForClient(campaignID, clientID)
	if err != nil {
		return nil, err
	}

	emailCounts, err := s.Messages.StatusCounts(campaign.ID, models.ChannelEmail)
	if err != nil {
		return nil, err
	}
	smsCounts, err := s.Messages.StatusCounts(campaign.ID, models.ChannelSMS)
	if err != nil {
		return nil, err
	}

	return &CampaignStats{
		Campaign: CampaignCounters{
			ID:              campaign.ID,
			Name:            campaign.Name,
			Status:          campaign.Status,
			TotalRecipients: campaign.TotalRecipients,
			SentCount:       campaign.SentCount,
			DeliveredCount:  campaign.DeliveredCount,
			OpenedCount:     campaign.OpenedCount,
			ClickedCount:    campaign.ClickedCount,
			ReviewCount:     campaign.ReviewCount,
		},
		Email: formatBuckets(emailCounts),
		SMS:   formatBuckets(smsCounts),
	}, nil
}

func formatBuckets(counts map[models.MessageStatus]int64) map[string]int64 {
	result := make(map[string]int64, len(statBuckets))
	for _, bucket := range statBuckets {
		result[string(bucket)] = counts[bucket]
	}
	return result
}
