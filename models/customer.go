package models

import (
	"strings"

	"gorm.io/gorm"
)

// Customer is a client's contact. The core reads it to decide channel
// eligibility; CRUD and CSV import live outside this service.
type Customer struct {
	gorm.Model
	ClientID uint `gorm:"not null;index" json:"client_id"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `gorm:"index" json:"email"`
	Phone     string `json:"phone"`

	// Opt-outs are the sole per-customer gate besides contact-info presence.
	OptOutEmail bool `gorm:"default:false" json:"opt_out_email"`
	OptOutSMS   bool `gorm:"default:false" json:"opt_out_sms"`
}

// FullName joins first and last name, trimming when last name is empty.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
