package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"reputely/apperrors"
	"reputely/models"
	"reputely/repository"
	"reputely/utils"
)

const defaultBatchSize = 100

// Fallback when a drip campaign never had a max configured.
const defaultDripMaxMessages = 3

// DispatchService is the batched processing loop behind an active campaign:
// select due recipients, resolve eligibility, render templates, invoke the
// channel senders, write both ledgers, advance drip state and detect
// completion. Send failures are recorded per recipient/channel and never
// abort the pass.
type DispatchService struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Customers  repository.CustomerRepositoryInterface
	Business   repository.BusinessRepositoryInterface
	Mailer     utils.MailServiceInterface
	SMS        utils.SMSServiceInterface
	Locker     CampaignLocker
	Logger     *log.Logger
	Now        func() time.Time
	BatchSize  int
}

func NewDispatchService(
	campaigns repository.CampaignRepositoryInterface,
	recipients repository.RecipientRepositoryInterface,
	customers repository.CustomerRepositoryInterface,
	business repository.BusinessRepositoryInterface,
	mailer utils.MailServiceInterface,
	sms utils.SMSServiceInterface,
	locker CampaignLocker,
	logger *log.Logger,
) *DispatchService {
	return &DispatchService{
		Campaigns:  campaigns,
		Recipients: recipients,
		Customers:  customers,
		Business:   business,
		Mailer:     mailer,
		SMS:        sms,
		Locker:     locker,
		Logger:     logger,
		Now:        time.Now,
		BatchSize:  defaultBatchSize,
	}
}

// ProcessCampaign runs one dispatch pass. Safe to invoke repeatedly: passes
// for the same campaign are serialized through the locker, a non-active
// campaign is a silent no-op, and already-processed recipients are never
// re-selected unless drip re-armed them.
func (s *DispatchService) ProcessCampaign(ctx context.Context, campaignID uint) error {
	acquired, err := s.Locker.Acquire(ctx, campaignID)
	if err != nil {
		return err
	}
	if !acquired {
		s.Logger.Printf("Dispatch already running for campaign %d, skipping", campaignID)
		return nil
	}
	defer s.Locker.Release(ctx, campaignID)

	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil
	}

	businessName, reviewLink := s.resolveBusinessContext(campaign.ClientID)

	batch, err := s.Recipients.ListDueBatch(campaign, s.Now(), s.batchSize())
	if err != nil {
		return err
	}

	for i := range batch {
		s.processRecipient(campaign, &batch[i], businessName, reviewLink)
	}

	pending, err := s.Recipients.CountPending(campaign)
	if err != nil {
		return err
	}
	if pending == 0 {
		now := s.Now()
		completed, err := s.Campaigns.TransitionStatus(campaign.ID,
			models.CampaignStatusActive, models.CampaignStatusCompleted,
			map[string]interface{}{"completed_at": now})
		if err != nil {
			return err
		}
		if completed {
			s.Logger.Printf("Campaign %d completed", campaign.ID)
		}
	}
	return nil
}

func (s *DispatchService) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return defaultBatchSize
}

// resolveBusinessContext looks up the businessName and reviewLink tokens for
// the tenant. Lookup failures degrade to empty tokens rather than aborting
// the pass.
func (s *DispatchService) resolveBusinessContext(clientID uint) (string, string) {
	businessName := ""
	reviewLink := ""

	client, err := s.Business.GetClient(clientID)
	if err != nil {
		s.captureDispatchError(err, logrus.Fields{"client_id": clientID, "lookup": "client"})
	} else {
		businessName = client.Name
	}

	profile, err := s.Business.FirstActiveProfile(clientID)
	if err != nil {
		s.captureDispatchError(err, logrus.Fields{"client_id": clientID, "lookup": "business_profile"})
		return businessName, reviewLink
	}
	if profile != nil {
		if profile.Name != "" {
			businessName = profile.Name
		}
		if len(profile.ReviewLinks) > 0 {
			reviewLink = profile.ReviewLinks[0].FullURL
		}
	}
	return businessName, reviewLink
}

func (s *DispatchService) processRecipient(campaign *models.Campaign, recipient *models.CampaignRecipient, businessName, reviewLink string) {
	customer, err := s.Customers.GetByID(recipient.CustomerID)
	if err != nil {
		s.captureDispatchError(err, logrus.Fields{
			"campaign_id":  campaign.ID,
			"recipient_id": recipient.ID,
			"customer_id":  recipient.CustomerID,
		})
		if apperrors.IsNotFound(err) {
			// A deleted customer can never become eligible again; park both
			// channels so the campaign can still complete.
			s.skipChannel(campaign, recipient, models.ChannelEmail)
			s.skipChannel(campaign, recipient, models.ChannelSMS)
		}
		return
	}

	tokens := BuildTokens(customer, businessName, reviewLink)
	canEmail := CanEmail(campaign, customer)
	canSMS := CanSMS(campaign, customer)

	if campaign.EmailEnabled && recipient.EmailStatus == models.MessageStatusPending {
		if canEmail {
			s.sendEmail(campaign, recipient, customer, tokens)
		} else {
			s.skipChannel(campaign, recipient, models.ChannelEmail)
		}
	}

	if campaign.SMSEnabled && recipient.SMSStatus == models.MessageStatusPending {
		if canSMS {
			s.sendSMS(campaign, recipient, customer, tokens)
		} else {
			s.skipChannel(campaign, recipient, models.ChannelSMS)
		}
	}

	if campaign.DripEnabled && campaign.DripIntervalDays > 0 {
		maxSteps := campaign.DripMaxMessages
		if maxSteps == 0 {
			maxSteps = defaultDripMaxMessages
		}
		// A drip step at or beyond the cap is terminal; below it, arm one
		// more cycle.
		if recipient.DripStep < maxSteps {
			nextDripAt := utils.AddDays(s.Now(), campaign.DripIntervalDays)
			err := s.Recipients.AdvanceDrip(recipient.ID, recipient.DripStep+1, nextDripAt, canEmail, canSMS)
			if err != nil {
				s.captureDispatchError(err, logrus.Fields{
					"campaign_id":  campaign.ID,
					"recipient_id": recipient.ID,
					"step":         "advance_drip",
				})
			}
		}
	}
}

func (s *DispatchService) sendEmail(campaign *models.Campaign, recipient *models.CampaignRecipient, customer *models.Customer, tokens map[string]string) {
	subject := utils.RenderTokens(campaign.EmailSubject, tokens)
	body := utils.RenderTokens(campaign.EmailTemplate, tokens)

	externalID, sendErr := s.Mailer.Send(utils.Email{
		To:      customer.Email,
		Subject: subject,
		HTML:    body,
	})

	s.recordResult(campaign, recipient, models.ChannelEmail, customer.Email, subject, body, externalID, sendErr)
}

func (s *DispatchService) sendSMS(campaign *models.Campaign, recipient *models.CampaignRecipient, customer *models.Customer, tokens map[string]string) {
	body := utils.RenderTokens(campaign.SMSTemplate, tokens)

	externalID, sendErr := s.SMS.Send(customer.Phone, body)

	s.recordResult(campaign, recipient, models.ChannelSMS, customer.Phone, "", body, externalID, sendErr)
}

func (s *DispatchService) recordResult(campaign *models.Campaign, recipient *models.CampaignRecipient, channel models.MessageChannel, toAddress, subject, body, externalID string, sendErr error) {
	now := s.Now()
	status := models.MessageStatusSent
	var sentAt *time.Time
	errorMessage := ""

	if sendErr != nil {
		status = models.MessageStatusFailed
		errorMessage = sendErr.Error()
	} else {
		sentAt = &now
	}

	result := repository.SendResult{
		RecipientID: recipient.ID,
		Channel:     channel,
		Status:      status,
		SentAt:      sentAt,
		Message: &models.CampaignMessage{
			CampaignID:   campaign.ID,
			RecipientID:  recipient.ID,
			Channel:      channel,
			ToAddress:    toAddress,
			Subject:      subject,
			Body:         body,
			Status:       status,
			ExternalID:   externalID,
			ErrorMessage: errorMessage,
			SentAt:       sentAt,
		},
	}

	if err := s.Recipients.RecordSendResult(result); err != nil {
		s.captureDispatchError(err, logrus.Fields{
			"campaign_id":  campaign.ID,
			"recipient_id": recipient.ID,
			"channel":      channel,
			"step":         "record_send_result",
		})
		return
	}

	// Keep the in-memory copy current so the drip step sees the fresh state.
	switch channel {
	case models.ChannelEmail:
		recipient.EmailStatus = status
		recipient.EmailSentAt = sentAt
	case models.ChannelSMS:
		recipient.SMSStatus = status
		recipient.SMSSentAt = sentAt
	}

	if status == models.MessageStatusSent {
		if err := s.Campaigns.IncrementSentCount(campaign.ID); err != nil {
			s.captureDispatchError(err, logrus.Fields{
				"campaign_id": campaign.ID,
				"step":        "increment_sent_count",
			})
		}
	}
}

func (s *DispatchService) skipChannel(campaign *models.Campaign, recipient *models.CampaignRecipient, channel models.MessageChannel) {
	switch channel {
	case models.ChannelEmail:
		if recipient.EmailStatus != models.MessageStatusPending {
			return
		}
		recipient.EmailStatus = models.MessageStatusSkipped
	case models.ChannelSMS:
		if recipient.SMSStatus != models.MessageStatusPending {
			return
		}
		recipient.SMSStatus = models.MessageStatusSkipped
	}

	if err := s.Recipients.MarkSkipped(recipient.ID, channel); err != nil {
		s.captureDispatchError(err, logrus.Fields{
			"campaign_id":  campaign.ID,
			"recipient_id": recipient.ID,
			"channel":      channel,
			"step":         "mark_skipped",
		})
	}
}

func (s *DispatchService) captureDispatchError(err error, fields logrus.Fields) {
	logrus.WithFields(fields).WithError(err).Warn("dispatch step failed")
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range fields {
			scope.SetTag(k, fmt.Sprint(v))
		}
		sentry.CaptureException(err)
	})
}
