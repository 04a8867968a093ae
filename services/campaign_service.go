package services

import (
	"log"
	"time"

	"reputely/apperrors"
	"reputely/models"
	"reputely/queue"
	"reputely/repository"
	"reputely/utils"
)

// CampaignService owns the campaign lifecycle: CRUD, the status state
// machine and recipient list mutation. Dispatch itself lives in
// DispatchService; launch and resume only enqueue it.
type CampaignService struct {
	Campaigns  repository.CampaignRepositoryInterface
	Recipients repository.RecipientRepositoryInterface
	Queue      queue.Queue
	Logger     *log.Logger
	Now        func() time.Time
}

func NewCampaignService(
	campaigns repository.CampaignRepositoryInterface,
	recipients repository.RecipientRepositoryInterface,
	q queue.Queue,
	logger *log.Logger,
) *CampaignService {
	return &CampaignService{
		Campaigns:  campaigns,
		Recipients: recipients,
		Queue:      q,
		Logger:     logger,
		Now:        time.Now,
	}
}

// CreateCampaignInput carries the writable campaign fields. Validator tags
// cover shape; cross-field rules (template iff channel, scheduledAt iff
// scheduled) are checked in validateChannelConfig.
type CreateCampaignInput struct {
	Name             string              `json:"name" validate:"required,max=200"`
	Description      string              `json:"description"`
	Type             models.CampaignType `json:"type" validate:"omitempty,oneof=review_request feedback follow_up"`
	EmailEnabled     *bool               `json:"email_enabled"`
	SMSEnabled       *bool               `json:"sms_enabled"`
	EmailSubject     string              `json:"email_subject"`
	EmailTemplate    string              `json:"email_template"`
	SMSTemplate      string              `json:"sms_template"`
	ScheduleType     models.ScheduleType `json:"schedule_type" validate:"omitempty,oneof=immediate scheduled drip"`
	ScheduledAt      *time.Time          `json:"scheduled_at"`
	DripEnabled      *bool               `json:"drip_enabled"`
	DripIntervalDays int                 `json:"drip_interval_days" validate:"omitempty,min=1,max=90"`
	DripMaxMessages  int                 `json:"drip_max_messages" validate:"omitempty,min=1,max=10"`
}

func validateChannelConfig(c *models.Campaign) error {
	fields := map[string][]string{}
	if c.EmailEnabled && c.EmailTemplate == "" {
		fields["emailTemplate"] = append(fields["emailTemplate"], "email template is required when email is enabled")
	}
	if !c.EmailEnabled && c.EmailTemplate != "" {
		fields["emailTemplate"] = append(fields["emailTemplate"], "email template must be empty when email is disabled")
	}
	if c.SMSEnabled && c.SMSTemplate == "" {
		fields["smsTemplate"] = append(fields["smsTemplate"], "sms template is required when sms is enabled")
	}
	if !c.SMSEnabled && c.SMSTemplate != "" {
		fields["smsTemplate"] = append(fields["smsTemplate"], "sms template must be empty when sms is disabled")
	}
	if c.ScheduleType == models.ScheduleTypeScheduled && c.ScheduledAt == nil {
		fields["scheduledAt"] = append(fields["scheduledAt"], "scheduledAt is required for scheduled campaigns")
	}
	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}

func (s *CampaignService) Create(clientID uint, input CreateCampaignInput) (*models.Campaign, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		ClientID:         clientID,
		Name:             input.Name,
		Description:      input.Description,
		Type:             models.CampaignTypeReviewRequest,
		EmailEnabled:     true,
		SMSEnabled:       false,
		EmailSubject:     input.EmailSubject,
		EmailTemplate:    input.EmailTemplate,
		SMSTemplate:      input.SMSTemplate,
		ScheduleType:     models.ScheduleTypeImmediate,
		ScheduledAt:      input.ScheduledAt,
		Status:           models.CampaignStatusDraft,
		DripEnabled:      false,
		DripIntervalDays: input.DripIntervalDays,
		DripMaxMessages:  input.DripMaxMessages,
	}
	if input.Type != "" {
		campaign.Type = input.Type
	}
	if input.ScheduleType != "" {
		campaign.ScheduleType = input.ScheduleType
	}
	if input.EmailEnabled != nil {
		campaign.EmailEnabled = *input.EmailEnabled
	}
	if input.SMSEnabled != nil {
		campaign.SMSEnabled = *input.SMSEnabled
	}
	if input.DripEnabled != nil {
		campaign.DripEnabled = *input.DripEnabled
	}

	if err := validateChannelConfig(campaign); err != nil {
		return nil, err
	}

	if err := s.Campaigns.Create(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Update applies a partial edit. Only draft campaigns may be edited.
func (s *CampaignService) Update(id, clientID uint, input CreateCampaignInput) (*models.Campaign, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, apperrors.NewValidation("status", "cannot update a campaign that is not in draft status")
	}

	if input.Name != "" {
		campaign.Name = input.Name
	}
	if input.Description != "" {
		campaign.Description = input.Description
	}
	if input.Type != "" {
		campaign.Type = input.Type
	}
	if input.EmailEnabled != nil {
		campaign.EmailEnabled = *input.EmailEnabled
	}
	if input.SMSEnabled != nil {
		campaign.SMSEnabled = *input.SMSEnabled
	}
	if input.EmailSubject != "" {
		campaign.EmailSubject = input.EmailSubject
	}
	if input.EmailTemplate != "" {
		campaign.EmailTemplate = input.EmailTemplate
	}
	if input.SMSTemplate != "" {
		campaign.SMSTemplate = input.SMSTemplate
	}
	if input.ScheduleType != "" {
		campaign.ScheduleType = input.ScheduleType
	}
	if input.ScheduledAt != nil {
		campaign.ScheduledAt = input.ScheduledAt
	}
	if input.DripEnabled != nil {
		campaign.DripEnabled = *input.DripEnabled
	}
	if input.DripIntervalDays != 0 {
		campaign.DripIntervalDays = input.DripIntervalDays
	}
	if input.DripMaxMessages != 0 {
		campaign.DripMaxMessages = input.DripMaxMessages
	}

	if err := validateChannelConfig(campaign); err != nil {
		return nil, err
	}

	if err := s.Campaigns.Save(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// Delete removes a campaign. Active campaigns must be paused first so an
// in-flight dispatch pass is never pulled out from under the engine.
func (s *CampaignService) Delete(id, clientID uint) error {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusActive {
		return apperrors.NewValidation("status", "pause the campaign before deleting it")
	}
	return s.Campaigns.Delete(campaign.ID)
}

func (s *CampaignService) GetByID(id, clientID uint) (*models.Campaign, error) {
	return s.Campaigns.GetForClient(id, clientID)
}

// Pagination mirrors the list envelope the API returns alongside items.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func (s *CampaignService) List(clientID uint, status models.CampaignStatus, page, limit int) ([]models.Campaign, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	campaigns, total, err := s.Campaigns.List(clientID, status, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, err
	}

	return campaigns, Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// AddRecipients inserts the given customers into a draft campaign. Existing
// pairs are skipped silently, so re-posting the same list is a no-op.
// Returns the resulting distinct recipient count.
func (s *CampaignService) AddRecipients(id, clientID uint, customerIDs []uint) (int64, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return 0, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return 0, apperrors.NewValidation("status", "cannot add recipients to a non-draft campaign")
	}
	if len(customerIDs) == 0 {
		return 0, apperrors.NewValidation("customerIds", "customerIds must not be empty")
	}

	if err := s.Recipients.AddMany(campaign.ID, customerIDs); err != nil {
		return 0, err
	}
	return s.refreshTotalRecipients(campaign.ID)
}

func (s *CampaignService) RemoveRecipients(id, clientID uint, customerIDs []uint) (int64, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return 0, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return 0, apperrors.NewValidation("status", "cannot remove recipients from a non-draft campaign")
	}
	if len(customerIDs) == 0 {
		return 0, apperrors.NewValidation("customerIds", "customerIds must not be empty")
	}

	if err := s.Recipients.RemoveMany(campaign.ID, customerIDs); err != nil {
		return 0, err
	}
	return s.refreshTotalRecipients(campaign.ID)
}

func (s *CampaignService) refreshTotalRecipients(campaignID uint) (int64, error) {
	total, err := s.Recipients.CountByCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	if err := s.Campaigns.SetTotalRecipients(campaignID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// Launch moves a draft campaign into scheduled or active. Immediate and drip
// schedules start dispatching right away; scheduled campaigns wait for the
// scheduler worker to promote them at scheduledAt.
func (s *CampaignService) Launch(id, clientID uint) (*models.Campaign, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, apperrors.NewValidation("status", "campaign must be in draft status to launch")
	}
	if campaign.TotalRecipients == 0 {
		return nil, apperrors.NewValidation("recipients", "campaign must have at least one recipient")
	}
	if !campaign.EmailEnabled && !campaign.SMSEnabled {
		return nil, apperrors.NewValidation("channels", "at least one channel must be enabled")
	}
	if err := validateChannelConfig(campaign); err != nil {
		return nil, err
	}

	now := s.Now()

	if campaign.ScheduleType == models.ScheduleTypeScheduled {
		ok, err := s.Campaigns.TransitionStatus(campaign.ID, models.CampaignStatusDraft, models.CampaignStatusScheduled, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.NewValidation("status", "campaign must be in draft status to launch")
		}
		campaign.Status = models.CampaignStatusScheduled
		return campaign, nil
	}

	ok, err := s.Campaigns.TransitionStatus(campaign.ID, models.CampaignStatusDraft, models.CampaignStatusActive,
		map[string]interface{}{"started_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewValidation("status", "campaign must be in draft status to launch")
	}
	campaign.Status = models.CampaignStatusActive
	campaign.StartedAt = &now

	if err := s.Queue.PublishDispatch(campaign.ID); err != nil {
		// The campaign is active either way; the scheduler worker picks up
		// stranded active campaigns on its next tick.
		s.Logger.Printf("Failed to enqueue dispatch for campaign %d: %v", campaign.ID, err)
	}
	return campaign, nil
}

func (s *CampaignService) Pause(id, clientID uint) (*models.Campaign, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return nil, err
	}

	ok, err := s.Campaigns.TransitionStatus(campaign.ID, models.CampaignStatusActive, models.CampaignStatusPaused, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewValidation("status", "only active campaigns can be paused")
	}
	campaign.Status = models.CampaignStatusPaused
	return campaign, nil
}

func (s *CampaignService) Resume(id, clientID uint) (*models.Campaign, error) {
	campaign, err := s.Campaigns.GetForClient(id, clientID)
	if err != nil {
		return nil, err
	}

	ok, err := s.Campaigns.TransitionStatus(campaign.ID, models.CampaignStatusPaused, models.CampaignStatusActive, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewValidation("status", "only paused campaigns can be resumed")
	}
	campaign.Status = models.CampaignStatusActive

	if err := s.Queue.PublishDispatch(campaign.ID); err != nil {
		s.Logger.Printf("Failed to enqueue dispatch for campaign %d: %v", campaign.ID, err)
	}
	return campaign, nil
}
