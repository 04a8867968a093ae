package models

import (
	"time"

	"gorm.io/gorm"
)

// CampaignStatus is the campaign lifecycle state. Transitions are owned by
// services.CampaignService and the dispatch engine; nothing else writes it.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type CampaignType string

const (
	CampaignTypeReviewRequest CampaignType = "review_request"
	CampaignTypeFeedback      CampaignType = "feedback"
	CampaignTypeFollowUp      CampaignType = "follow_up"
)

type ScheduleType string

const (
	ScheduleTypeImmediate ScheduleType = "immediate"
	ScheduleTypeScheduled ScheduleType = "scheduled"
	ScheduleTypeDrip      ScheduleType = "drip"
)

type MessageChannel string

const (
	ChannelEmail MessageChannel = "email"
	ChannelSMS   MessageChannel = "sms"
)

// MessageStatus covers both the message ledger and the per-channel recipient
// state. The ledger only ever holds sent/failed at write time; the engagement
// statuses arrive later through provider webhooks and only move counters.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusOpened    MessageStatus = "opened"
	MessageStatusClicked   MessageStatus = "clicked"
	MessageStatusFailed    MessageStatus = "failed"
	MessageStatusBounced   MessageStatus = "bounced"

	// MessageStatusSkipped is recipient-only: the channel was enabled on the
	// campaign but the customer was ineligible (opt-out or missing contact
	// info) when dispatch ran. It is terminal so drip never re-arms it.
	MessageStatusSkipped MessageStatus = "skipped"
)

// Campaign represents a review-request campaign owned by a client (tenant).
type Campaign struct {
	gorm.Model
	ClientID uint `gorm:"not null;index" json:"client_id"`

	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description"`
	Type        CampaignType `gorm:"default:'review_request'" json:"type"`

	// Channels
	EmailEnabled  bool   `gorm:"default:true" json:"email_enabled"`
	SMSEnabled    bool   `gorm:"default:false" json:"sms_enabled"`
	EmailSubject  string `json:"email_subject"`
	EmailTemplate string `json:"email_template"`
	SMSTemplate   string `json:"sms_template"`

	// Scheduling
	ScheduleType ScheduleType   `gorm:"default:'immediate'" json:"schedule_type"`
	ScheduledAt  *time.Time     `json:"scheduled_at"`
	Status       CampaignStatus `gorm:"default:'draft';index" json:"status"`
	StartedAt    *time.Time     `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`

	// Drip settings
	DripEnabled      bool `gorm:"default:false" json:"drip_enabled"`
	DripIntervalDays int  `json:"drip_interval_days"`
	DripMaxMessages  int  `json:"drip_max_messages"`

	// Statistics (denormalized for performance)
	TotalRecipients int `gorm:"default:0" json:"total_recipients"`
	SentCount       int `gorm:"default:0" json:"sent_count"`
	DeliveredCount  int `gorm:"default:0" json:"delivered_count"`
	OpenedCount     int `gorm:"default:0" json:"opened_count"`
	ClickedCount    int `gorm:"default:0" json:"clicked_count"`
	ReviewCount     int `gorm:"default:0" json:"review_count"`

	// Relations
	Recipients []CampaignRecipient `gorm:"foreignKey:CampaignID" json:"recipients,omitempty"`
	Messages   []CampaignMessage   `gorm:"foreignKey:CampaignID" json:"messages,omitempty"`
}

// IsTerminalStatus reports whether the campaign can never dispatch again.
func (c *Campaign) IsTerminalStatus() bool {
	return c.Status == CampaignStatusCompleted
}

// CampaignRecipient tracks one customer's delivery lifecycle inside a
// campaign. Unique per (campaign, customer); mutated only by the dispatch
// engine once the campaign leaves draft.
type CampaignRecipient struct {
	gorm.Model
	CampaignID uint `gorm:"not null;uniqueIndex:idx_campaign_customer" json:"campaign_id"`
	CustomerID uint `gorm:"not null;uniqueIndex:idx_campaign_customer" json:"customer_id"`

	EmailStatus MessageStatus `gorm:"default:'pending'" json:"email_status"`
	SMSStatus   MessageStatus `gorm:"default:'pending'" json:"sms_status"`
	EmailSentAt *time.Time    `json:"email_sent_at"`
	SMSSentAt   *time.Time    `json:"sms_sent_at"`

	DripStep   int        `gorm:"default:0" json:"drip_step"`
	NextDripAt *time.Time `json:"next_drip_at"`

	Campaign Campaign `json:"-"`
	Customer Customer `json:"-"`
}

// HasPendingChannel reports whether any channel still awaits a send attempt.
// Recipients with no pending channel are terminal for completion checks.
func (r *CampaignRecipient) HasPendingChannel() bool {
	return r.EmailStatus == MessageStatusPending || r.SMSStatus == MessageStatusPending
}

// CampaignMessage is one row per actual send attempt (success or failure).
// Rows are immutable once written; engagement events update campaign counters
// instead of rewriting ledger entries.
type CampaignMessage struct {
	gorm.Model
	CampaignID  uint `gorm:"not null;index" json:"campaign_id"`
	RecipientID uint `gorm:"not null;index" json:"recipient_id"`

	Channel      MessageChannel `gorm:"not null" json:"channel"`
	ToAddress    string         `gorm:"not null" json:"to_address"`
	Subject      string         `json:"subject"`
	Body         string         `json:"body"`
	Status       MessageStatus  `gorm:"not null" json:"status"`
	ExternalID   string         `gorm:"index" json:"external_id"`
	ErrorMessage string         `json:"error_message"`
	SentAt       *time.Time     `json:"sent_at"`

	Campaign  Campaign          `json:"-"`
	Recipient CampaignRecipient `json:"-"`
}
