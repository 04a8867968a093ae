package repository

import (
	"errors"

	"gorm.io/gorm"

	"reputely/apperrors"
	"reputely/models"
)

type CustomerRepositoryInterface interface {
	GetByID(id uint) (*models.Customer, error)
}

type CustomerRepository struct {
	DB *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("customer")
		}
		return nil, err
	}
	return &customer, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
