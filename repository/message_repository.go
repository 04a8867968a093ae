package repository

import (
	"errors"

	"gorm.io/gorm"

	"reputely/apperrors"
	"reputely/models"
)

type MessageRepositoryInterface interface {
	// StatusCounts groups ledger rows for one channel by status.
	StatusCounts(campaignID uint, channel models.MessageChannel) (map[models.MessageStatus]int64, error)
	// FindByExternalID resolves a provider message id back to its ledger row
	// for webhook event attribution.
	FindByExternalID(externalID string) (*models.CampaignMessage, error)
}

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) StatusCounts(campaignID uint, channel models.MessageChannel) (map[models.MessageStatus]int64, error) {
	type row struct {
		Status models.MessageStatus
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&models.CampaignMessage{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ? AND channel = ?", campaignID, channel).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.MessageStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *MessageRepository) FindByExternalID(externalID string) (*models.CampaignMessage, error) {
	var msg models.CampaignMessage
	err := r.DB.Where("external_id = ?", externalID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("message")
		}
		return nil, err
	}
	return &msg, nil
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
