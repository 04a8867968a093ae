package models

import "gorm.io/gorm"

// Client is the tenant boundary: every campaign, customer and business
// profile hangs off exactly one client.
type Client struct {
	gorm.Model
	AgencyID uint   `gorm:"index" json:"agency_id"`
	Name     string `gorm:"not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	BusinessProfiles []BusinessProfile `gorm:"foreignKey:ClientID" json:"business_profiles,omitempty"`
}

// BusinessProfile is a client's business location. The first active profile
// supplies the businessName token for campaign sends.
type BusinessProfile struct {
	gorm.Model
	ClientID uint `gorm:"not null;index" json:"client_id"`

	Name            string `gorm:"not null" json:"name"`
	PrimaryCategory string `json:"primary_category"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`

	ReviewLinks []ReviewLink `gorm:"foreignKey:BusinessProfileID" json:"review_links,omitempty"`
}

// ReviewLink points customers at the business's review page. The first active
// link of the primary profile supplies the reviewLink token.
type ReviewLink struct {
	gorm.Model
	BusinessProfileID uint `gorm:"not null;index" json:"business_profile_id"`

	Platform  string `json:"platform"`
	ShortCode string `gorm:"uniqueIndex" json:"short_code"`
	FullURL   string `gorm:"not null" json:"full_url"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
}
