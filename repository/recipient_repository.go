package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reputely/models"
)

// SendResult captures the outcome of one channel send attempt so the
// recipient update and its ledger row land in a single transaction.
type SendResult struct {
	RecipientID uint
	Channel     models.MessageChannel
	Status      models.MessageStatus
	SentAt      *time.Time
	Message     *models.CampaignMessage
}

type RecipientRepositoryInterface interface {
	// AddMany inserts missing (campaign, customer) pairs and silently skips
	// ones that already exist.
	AddMany(campaignID uint, customerIDs []uint) error
	RemoveMany(campaignID uint, customerIDs []uint) error
	CountByCampaign(campaignID uint) (int64, error)

	// ListDueBatch selects up to limit recipients pending on an enabled
	// channel whose drip timer (if any) has elapsed.
	ListDueBatch(campaign *models.Campaign, now time.Time, limit int) ([]models.CampaignRecipient, error)
	// CountPending counts recipients pending on an enabled channel, ignoring
	// drip timers; this is the campaign completion check. A pending status on
	// a disabled channel never blocks completion.
	CountPending(campaign *models.Campaign) (int64, error)

	RecordSendResult(result SendResult) error
	MarkSkipped(recipientID uint, channel models.MessageChannel) error
	AdvanceDrip(recipientID uint, step int, nextDripAt time.Time, rearmEmail, rearmSMS bool) error
}

type RecipientRepository struct {
	DB *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) *RecipientRepository {
	return &RecipientRepository{DB: db}
}

func (r *RecipientRepository) AddMany(campaignID uint, customerIDs []uint) error {
	recipients := make([]models.CampaignRecipient, 0, len(customerIDs))
	for _, customerID := range customerIDs {
		recipients = append(recipients, models.CampaignRecipient{
			CampaignID:  campaignID,
			CustomerID:  customerID,
			EmailStatus: models.MessageStatusPending,
			SMSStatus:   models.MessageStatusPending,
		})
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "customer_id"}},
		DoNothing: true,
	}).Create(&recipients).Error
}

func (r *RecipientRepository) RemoveMany(campaignID uint, customerIDs []uint) error {
	return r.DB.
		Where("campaign_id = ? AND customer_id IN ?", campaignID, customerIDs).
		Delete(&models.CampaignRecipient{}).Error
}

func (r *RecipientRepository) CountByCampaign(campaignID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.CampaignRecipient{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

// pendingScope narrows a recipient query to rows pending on a channel the
// campaign actually has enabled.
func pendingScope(db *gorm.DB, campaign *models.Campaign) *gorm.DB {
	query := db.Where("campaign_id = ?", campaign.ID)
	switch {
	case campaign.EmailEnabled && campaign.SMSEnabled:
		return query.Where("email_status = ? OR sms_status = ?", models.MessageStatusPending, models.MessageStatusPending)
	case campaign.EmailEnabled:
		return query.Where("email_status = ?", models.MessageStatusPending)
	case campaign.SMSEnabled:
		return query.Where("sms_status = ?", models.MessageStatusPending)
	default:
		return query.Where("1 = 0")
	}
}

func (r *RecipientRepository) ListDueBatch(campaign *models.Campaign, now time.Time, limit int) ([]models.CampaignRecipient, error) {
	var recipients []models.CampaignRecipient
	err := pendingScope(r.DB, campaign).
		Where("next_drip_at IS NULL OR next_drip_at <= ?", now).
		Order("id").
		Limit(limit).
		Find(&recipients).Error
	return recipients, err
}

func (r *RecipientRepository) CountPending(campaign *models.Campaign) (int64, error) {
	var count int64
	err := pendingScope(r.DB.Model(&models.CampaignRecipient{}), campaign).
		Count(&count).Error
	return count, err
}

// RecordSendResult updates the recipient's channel status and appends the
// ledger row in one transaction so a concurrent reader never observes one
// without the other.
func (r *RecipientRepository) RecordSendResult(result SendResult) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		switch result.Channel {
		case models.ChannelEmail:
			updates["email_status"] = result.Status
			if result.SentAt != nil {
				updates["email_sent_at"] = result.SentAt
			}
		case models.ChannelSMS:
			updates["sms_status"] = result.Status
			if result.SentAt != nil {
				updates["sms_sent_at"] = result.SentAt
			}
		}

		if err := tx.Model(&models.CampaignRecipient{}).
			Where("id = ?", result.RecipientID).
			Updates(updates).Error; err != nil {
			return err
		}

		return tx.Create(result.Message).Error
	})
}

func (r *RecipientRepository) MarkSkipped(recipientID uint, channel models.MessageChannel) error {
	column := "email_status"
	if channel == models.ChannelSMS {
		column = "sms_status"
	}
	return r.DB.Model(&models.CampaignRecipient{}).
		Where("id = ?", recipientID).
		Update(column, models.MessageStatusSkipped).Error
}

func (r *RecipientRepository) AdvanceDrip(recipientID uint, step int, nextDripAt time.Time, rearmEmail, rearmSMS bool) error {
	updates := map[string]interface{}{
		"drip_step":    step,
		"next_drip_at": nextDripAt,
	}
	if rearmEmail {
		updates["email_status"] = models.MessageStatusPending
	}
	if rearmSMS {
		updates["sms_status"] = models.MessageStatusPending
	}
	return r.DB.Model(&models.CampaignRecipient{}).
		Where("id = ?", recipientID).
		Updates(updates).Error
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
