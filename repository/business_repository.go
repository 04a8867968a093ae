package repository

import (
	"errors"

	"gorm.io/gorm"

	"reputely/apperrors"
	"reputely/models"
)

type BusinessRepositoryInterface interface {
	GetClient(id uint) (*models.Client, error)
	// FirstActiveProfile returns the client's primary active business
	// profile with its active review links preloaded, or nil when the client
	// has no active profile.
	FirstActiveProfile(clientID uint) (*models.BusinessProfile, error)
}

type BusinessRepository struct {
	DB *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{DB: db}
}

func (r *BusinessRepository) GetClient(id uint) (*models.Client, error) {
	var client models.Client
	if err := r.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("client")
		}
		return nil, err
	}
	return &client, nil
}

func (r *BusinessRepository) FirstActiveProfile(clientID uint) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := r.DB.
		Where("client_id = ? AND is_active = ?", clientID, true).
		Order("id").
		Preload("ReviewLinks", "is_active = ?", true).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

var _ BusinessRepositoryInterface = (*BusinessRepository)(nil)
