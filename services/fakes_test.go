package services

import (
	"sort"
	"sync"
	"time"

	"reputely/apperrors"
	"reputely/models"
	"reputely/repository"
	"reputely/utils"
)

// In-memory fakes mirroring the repository semantics, shared by the service
// tests in this package.

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uint]*models.Campaign
	nextID    uint
}

func newFakeCampaignRepo(campaigns ...*models.Campaign) *fakeCampaignRepo {
	repo := &fakeCampaignRepo{campaigns: map[uint]*models.Campaign{}, nextID: 1}
	for _, c := range campaigns {
		if c.ID == 0 {
			c.ID = repo.nextID
		}
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
		repo.campaigns[c.ID] = c
	}
	return repo
}

func (r *fakeCampaignRepo) Create(c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Save(c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.campaigns, id)
	return nil
}

func (r *fakeCampaignRepo) GetByID(id uint) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, apperrors.NewNotFound("campaign")
	}
	return c, nil
}

func (r *fakeCampaignRepo) GetForClient(id, clientID uint) (*models.Campaign, error) {
	c, err := r.GetByID(id)
	if err != nil || c.ClientID != clientID {
		return nil, apperrors.NewNotFound("campaign")
	}
	return c, nil
}

func (r *fakeCampaignRepo) List(clientID uint, status models.CampaignStatus, offset, limit int) ([]models.Campaign, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.Campaign
	for _, c := range r.campaigns {
		if c.ClientID != clientID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeCampaignRepo) TransitionStatus(id uint, from, to models.CampaignStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	if v, ok := updates["started_at"].(time.Time); ok {
		c.StartedAt = &v
	}
	if v, ok := updates["completed_at"].(time.Time); ok {
		c.CompletedAt = &v
	}
	return true, nil
}

func (r *fakeCampaignRepo) SetTotalRecipients(id uint, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.TotalRecipients = int(total)
	}
	return nil
}

func (r *fakeCampaignRepo) IncrementSentCount(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.SentCount++
	}
	return nil
}

func (r *fakeCampaignRepo) IncrementEngagement(id uint, event models.MessageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return apperrors.NewNotFound("campaign")
	}
	switch event {
	case models.MessageStatusDelivered:
		c.DeliveredCount++
	case models.MessageStatusOpened:
		c.OpenedCount++
	case models.MessageStatusClicked:
		c.ClickedCount++
	}
	return nil
}

func (r *fakeCampaignRepo) IncrementReviewCount(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.campaigns[id]; ok {
		c.ReviewCount++
	}
	return nil
}

func (r *fakeCampaignRepo) DueScheduled(now time.Time) ([]models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []models.Campaign
	for _, c := range r.campaigns {
		if c.Status == models.CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			due = append(due, *c)
		}
	}
	return due, nil
}

func (r *fakeCampaignRepo) ActiveWithDueDrip(now time.Time) ([]uint, error) {
	return nil, nil
}

var _ repository.CampaignRepositoryInterface = (*fakeCampaignRepo)(nil)

type fakeRecipientRepo struct {
	mu         sync.Mutex
	recipients map[uint]*models.CampaignRecipient
	messages   []*models.CampaignMessage
	nextID     uint
}

func newFakeRecipientRepo(recipients ...*models.CampaignRecipient) *fakeRecipientRepo {
	repo := &fakeRecipientRepo{recipients: map[uint]*models.CampaignRecipient{}, nextID: 1}
	for _, rec := range recipients {
		if rec.ID == 0 {
			rec.ID = repo.nextID
		}
		if rec.ID >= repo.nextID {
			repo.nextID = rec.ID + 1
		}
		repo.recipients[rec.ID] = rec
	}
	return repo
}

func (r *fakeRecipientRepo) AddMany(campaignID uint, customerIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customerID := range customerIDs {
		exists := false
		for _, rec := range r.recipients {
			if rec.CampaignID == campaignID && rec.CustomerID == customerID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		rec := &models.CampaignRecipient{
			CampaignID:  campaignID,
			CustomerID:  customerID,
			EmailStatus: models.MessageStatusPending,
			SMSStatus:   models.MessageStatusPending,
		}
		rec.ID = r.nextID
		r.nextID++
		r.recipients[rec.ID] = rec
	}
	return nil
}

func (r *fakeRecipientRepo) RemoveMany(campaignID uint, customerIDs []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.recipients {
		if rec.CampaignID != campaignID {
			continue
		}
		for _, customerID := range customerIDs {
			if rec.CustomerID == customerID {
				delete(r.recipients, id)
				break
			}
		}
	}
	return nil
}

func (r *fakeRecipientRepo) CountByCampaign(campaignID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, rec := range r.recipients {
		if rec.CampaignID == campaignID {
			count++
		}
	}
	return count, nil
}

func recipientPending(campaign *models.Campaign, rec *models.CampaignRecipient) bool {
	if rec.CampaignID != campaign.ID {
		return false
	}
	if campaign.EmailEnabled && rec.EmailStatus == models.MessageStatusPending {
		return true
	}
	if campaign.SMSEnabled && rec.SMSStatus == models.MessageStatusPending {
		return true
	}
	return false
}

func (r *fakeRecipientRepo) ListDueBatch(campaign *models.Campaign, now time.Time, limit int) ([]models.CampaignRecipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batch []models.CampaignRecipient
	ids := make([]uint, 0, len(r.recipients))
	for id := range r.recipients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		rec := r.recipients[id]
		if !recipientPending(campaign, rec) {
			continue
		}
		if rec.NextDripAt != nil && rec.NextDripAt.After(now) {
			continue
		}
		batch = append(batch, *rec)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (r *fakeRecipientRepo) CountPending(campaign *models.Campaign) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, rec := range r.recipients {
		if recipientPending(campaign, rec) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRecipientRepo) RecordSendResult(result repository.SendResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipients[result.RecipientID]
	if !ok {
		return apperrors.NewNotFound("recipient")
	}
	switch result.Channel {
	case models.ChannelEmail:
		rec.EmailStatus = result.Status
		if result.SentAt != nil {
			rec.EmailSentAt = result.SentAt
		}
	case models.ChannelSMS:
		rec.SMSStatus = result.Status
		if result.SentAt != nil {
			rec.SMSSentAt = result.SentAt
		}
	}
	r.messages = append(r.messages, result.Message)
	return nil
}

func (r *fakeRecipientRepo) MarkSkipped(recipientID uint, channel models.MessageChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipients[recipientID]
	if !ok {
		return apperrors.NewNotFound("recipient")
	}
	if channel == models.ChannelEmail {
		rec.EmailStatus = models.MessageStatusSkipped
	} else {
		rec.SMSStatus = models.MessageStatusSkipped
	}
	return nil
}

func (r *fakeRecipientRepo) AdvanceDrip(recipientID uint, step int, nextDripAt time.Time, rearmEmail, rearmSMS bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipients[recipientID]
	if !ok {
		return apperrors.NewNotFound("recipient")
	}
	rec.DripStep = step
	rec.NextDripAt = &nextDripAt
	if rearmEmail {
		rec.EmailStatus = models.MessageStatusPending
	}
	if rearmSMS {
		rec.SMSStatus = models.MessageStatusPending
	}
	return nil
}

var _ repository.RecipientRepositoryInterface = (*fakeRecipientRepo)(nil)

type fakeCustomerRepo struct {
	customers map[uint]*models.Customer
}

func (r *fakeCustomerRepo) GetByID(id uint) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, apperrors.NewNotFound("customer")
	}
	return c, nil
}

var _ repository.CustomerRepositoryInterface = (*fakeCustomerRepo)(nil)

type fakeBusinessRepo struct {
	client  *models.Client
	profile *models.BusinessProfile
}

func (r *fakeBusinessRepo) GetClient(id uint) (*models.Client, error) {
	if r.client == nil {
		return nil, apperrors.NewNotFound("client")
	}
	return r.client, nil
}

func (r *fakeBusinessRepo) FirstActiveProfile(clientID uint) (*models.BusinessProfile, error) {
	return r.profile, nil
}

var _ repository.BusinessRepositoryInterface = (*fakeBusinessRepo)(nil)

type fakeMessageRepo struct {
	counts   map[models.MessageChannel]map[models.MessageStatus]int64
	messages map[string]*models.CampaignMessage
}

func (r *fakeMessageRepo) StatusCounts(campaignID uint, channel models.MessageChannel) (map[models.MessageStatus]int64, error) {
	if counts, ok := r.counts[channel]; ok {
		return counts, nil
	}
	return map[models.MessageStatus]int64{}, nil
}

func (r *fakeMessageRepo) FindByExternalID(externalID string) (*models.CampaignMessage, error) {
	msg, ok := r.messages[externalID]
	if !ok {
		return nil, apperrors.NewNotFound("message")
	}
	return msg, nil
}

var _ repository.MessageRepositoryInterface = (*fakeMessageRepo)(nil)

type fakeQueue struct {
	mu        sync.Mutex
	published []uint
	err       error
}

func (q *fakeQueue) PublishDispatch(campaignID uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, campaignID)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (m *fakeMailer) Send(email utils.Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, email)
	return "ext-email-" + email.To, nil
}

var _ utils.MailServiceInterface = (*fakeMailer)(nil)

type sentSMS struct {
	To   string
	Body string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (s *fakeSMS) Send(to, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, sentSMS{To: to, Body: message})
	return "ext-sms-" + to, nil
}

var _ utils.SMSServiceInterface = (*fakeSMS)(nil)
