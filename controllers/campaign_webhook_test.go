package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"reputely/apperrors"
	"reputely/models"
	"reputely/repository"
	"reputely/services"
)

type stubCampaignRepo struct {
	repository.CampaignRepositoryInterface

	mu          sync.Mutex
	engagements map[uint][]models.MessageStatus
	reviews     map[uint]int
}

func (r *stubCampaignRepo) IncrementEngagement(id uint, event models.MessageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engagements == nil {
		r.engagements = map[uint][]models.MessageStatus{}
	}
	r.engagements[id] = append(r.engagements[id], event)
	return nil
}

func (r *stubCampaignRepo) IncrementReviewCount(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reviews == nil {
		r.reviews = map[uint]int{}
	}
	r.reviews[id]++
	return nil
}

type stubMessageRepo struct {
	messages map[string]*models.CampaignMessage
}

func (r *stubMessageRepo) StatusCounts(campaignID uint, channel models.MessageChannel) (map[models.MessageStatus]int64, error) {
	return map[models.MessageStatus]int64{}, nil
}

func (r *stubMessageRepo) FindByExternalID(externalID string) (*models.CampaignMessage, error) {
	msg, ok := r.messages[externalID]
	if !ok {
		return nil, apperrors.NewNotFound("message")
	}
	return msg, nil
}

func newWebhookTestApp(campaigns *stubCampaignRepo, messages *stubMessageRepo) *fiber.App {
	svc := services.NewCampaignService(campaigns, nil, nil, log.New(io.Discard, "", 0))
	cc := NewCampaignController(svc, nil, messages, log.New(io.Discard, "", 0))

	app := fiber.New()
	app.Post("/webhooks/provider", cc.HandleProviderWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, payload map[string]interface{}) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/provider", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestWebhookEngagementEvents(t *testing.T) {
	campaigns := &stubCampaignRepo{}
	messages := &stubMessageRepo{messages: map[string]*models.CampaignMessage{
		"msg-1": {CampaignID: 7, Channel: models.ChannelEmail},
	}}
	app := newWebhookTestApp(campaigns, messages)

	for _, event := range []string{"delivered", "opened", "clicked"} {
		resp := postWebhook(t, app, map[string]interface{}{
			"event_type": event,
			"message_id": "msg-1",
		})
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s event status = %d, want 200", event, resp.StatusCode)
		}
	}

	if len(campaigns.engagements[7]) != 3 {
		t.Errorf("engagements = %v, want 3 events for campaign 7", campaigns.engagements)
	}
}

func TestWebhookReviewEvent(t *testing.T) {
	campaigns := &stubCampaignRepo{}
	messages := &stubMessageRepo{messages: map[string]*models.CampaignMessage{
		"msg-1": {CampaignID: 7, Channel: models.ChannelSMS},
	}}
	app := newWebhookTestApp(campaigns, messages)

	resp := postWebhook(t, app, map[string]interface{}{
		"event_type": "review",
		"message_id": "msg-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if campaigns.reviews[7] != 1 {
		t.Errorf("reviews = %v, want 1 for campaign 7", campaigns.reviews)
	}
}

func TestWebhookUnknownMessage(t *testing.T) {
	app := newWebhookTestApp(&stubCampaignRepo{}, &stubMessageRepo{})

	resp := postWebhook(t, app, map[string]interface{}{
		"event_type": "delivered",
		"message_id": "nope",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebhookUnknownEventType(t *testing.T) {
	messages := &stubMessageRepo{messages: map[string]*models.CampaignMessage{
		"msg-1": {CampaignID: 7},
	}}
	app := newWebhookTestApp(&stubCampaignRepo{}, messages)

	resp := postWebhook(t, app, map[string]interface{}{
		"event_type": "teleported",
		"message_id": "msg-1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
