package routes

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"reputely/apperrors"
	controller "reputely/controllers"
	"reputely/models"
)

type stubBusinessRepo struct {
	client *models.Client
}

func (r *stubBusinessRepo) GetClient(id uint) (*models.Client, error) {
	if r.client == nil || r.client.ID != id {
		return nil, apperrors.NewNotFound("client")
	}
	return r.client, nil
}

func (r *stubBusinessRepo) FirstActiveProfile(clientID uint) (*models.BusinessProfile, error) {
	return nil, nil
}

func newTestApp() *fiber.App {
	client := &models.Client{Name: "Joe's Diner", IsActive: true}
	client.ID = 1

	cc := controller.NewCampaignController(nil, nil, nil, log.New(io.Discard, "", 0))
	app := fiber.New()
	SetupRoutes(app, cc, &stubBusinessRepo{client: client})
	return app
}

// The progress socket sits behind the same tenant resolution as every HTTP
// route; the upgrade request must carry a valid client header.
func TestProgressSocketRequiresTenant(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/progress", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("no tenant header: status = %d, want 400", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/progress", nil)
	req.Header.Set("X-Client-ID", "99")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown tenant: status = %d, want 404", resp.StatusCode)
	}

	// A resolved tenant reaches the websocket handler, which demands an
	// upgrade for plain HTTP requests.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/progress", nil)
	req.Header.Set("X-Client-ID", "1")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("valid tenant: status = %d, want 426", resp.StatusCode)
	}
}

func TestHealthCheckOpen(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
