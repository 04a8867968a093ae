package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"reputely/apperrors"
	"reputely/models"
)

type CampaignRepositoryInterface interface {
	Create(c *models.Campaign) error
	Save(c *models.Campaign) error
	Delete(id uint) error

	// GetByID loads a campaign without tenant scoping; internal use only
	// (dispatch, scheduler).
	GetByID(id uint) (*models.Campaign, error)
	// GetForClient loads a campaign scoped to its owning client. A campaign
	// owned by another tenant surfaces as not found.
	GetForClient(id, clientID uint) (*models.Campaign, error)
	List(clientID uint, status models.CampaignStatus, offset, limit int) ([]models.Campaign, int64, error)

	// TransitionStatus flips status from→to atomically, applying extra
	// column updates in the same statement. Returns false when the campaign
	// was no longer in the expected state.
	TransitionStatus(id uint, from, to models.CampaignStatus, updates map[string]interface{}) (bool, error)

	SetTotalRecipients(id uint, total int64) error
	IncrementSentCount(id uint) error
	IncrementEngagement(id uint, event models.MessageStatus) error
	IncrementReviewCount(id uint) error

	// DueScheduled returns scheduled campaigns whose scheduledAt has passed.
	DueScheduled(now time.Time) ([]models.Campaign, error)
	// ActiveWithDueDrip returns ids of active campaigns holding a pending
	// recipient whose drip timer has elapsed.
	ActiveWithDueDrip(now time.Time) ([]uint, error)
}

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) Create(c *models.Campaign) error {
	return r.DB.Create(c).Error
}

func (r *CampaignRepository) Save(c *models.Campaign) error {
	return r.DB.Save(c).Error
}

func (r *CampaignRepository) Delete(id uint) error {
	return r.DB.Delete(&models.Campaign{}, id).Error
}

func (r *CampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("campaign")
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetForClient(id, clientID uint) (*models.Campaign, error) {
	var c models.Campaign
	err := r.DB.Where("id = ? AND client_id = ?", id, clientID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("campaign")
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(clientID uint, status models.CampaignStatus, offset, limit int) ([]models.Campaign, int64, error) {
	query := r.DB.Model(&models.Campaign{}).Where("client_id = ?", clientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var campaigns []models.Campaign
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) TransitionStatus(id uint, from, to models.CampaignStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := r.DB.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CampaignRepository) SetTotalRecipients(id uint, total int64) error {
	return r.DB.Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("total_recipients", total).Error
}

func (r *CampaignRepository) IncrementSentCount(id uint) error {
	return r.DB.Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("sent_count", gorm.Expr("sent_count + 1")).Error
}

func (r *CampaignRepository) IncrementEngagement(id uint, event models.MessageStatus) error {
	var column string
	switch event {
	case models.MessageStatusDelivered:
		column = "delivered_count"
	case models.MessageStatusOpened:
		column = "opened_count"
	case models.MessageStatusClicked:
		column = "clicked_count"
	default:
		return nil
	}
	return r.DB.Model(&models.Campaign{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1")).Error
}

func (r *CampaignRepository) IncrementReviewCount(id uint) error {
	return r.DB.Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("review_count", gorm.Expr("review_count + 1")).Error
}

func (r *CampaignRepository) DueScheduled(now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.DB.
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", models.CampaignStatusScheduled, now).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) ActiveWithDueDrip(now time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&models.Campaign{}).
		Distinct("campaigns.id").
		Joins("JOIN campaign_recipients cr ON cr.campaign_id = campaigns.id").
		Where("campaigns.status = ?", models.CampaignStatusActive).
		Where("cr.next_drip_at IS NOT NULL AND cr.next_drip_at <= ?", now).
		Where("cr.email_status = ? OR cr.sms_status = ?", models.MessageStatusPending, models.MessageStatusPending).
		Pluck("campaigns.id", &ids).Error
	return ids, err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
