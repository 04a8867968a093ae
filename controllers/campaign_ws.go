package controller

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"reputely/models"
)

// HandleCampaignProgressWS streams campaign progress snapshots to a
// connected dashboard until the campaign completes or the client hangs up.
// The tenant middleware validated the client during the upgrade request, so
// the client id comes from Locals, never from the subscription payload.
func (cc *CampaignController) HandleCampaignProgressWS(c *websocket.Conn) {
	defer c.Close()

	tenantID, ok := c.Locals("clientID").(uint)
	if !ok {
		cc.Logger.Println("WS connection without resolved client, closing")
		return
	}

	var input struct {
		CampaignID uint `json:"campaign_id"`
	}

	if err := c.ReadJSON(&input); err != nil {
		cc.Logger.Printf("Error reading WS subscription: %v", err)
		return
	}

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := cc.Stats.GetStats(input.CampaignID, tenantID)
		if err != nil {
			cc.Logger.Printf("WS stats lookup failed for campaign %d: %v", input.CampaignID, err)
			return
		}

		progress := struct {
			Status          models.CampaignStatus `json:"status"`
			TotalRecipients int                   `json:"total_recipients"`
			SentCount       int                   `json:"sent_count"`
		}{
			Status:          stats.Campaign.Status,
			TotalRecipients: stats.Campaign.TotalRecipients,
			SentCount:       stats.Campaign.SentCount,
		}

		if err := c.WriteJSON(progress); err != nil {
			return
		}

		if stats.Campaign.Status == models.CampaignStatusCompleted {
			return
		}
	}
}
