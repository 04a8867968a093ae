package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"reputely/models"
)

// HandleProviderWebhook ingests delivery events (delivered, opened, clicked,
// bounced, review) from the email/SMS providers, keyed by the provider
// message id we stored on the ledger row. Events move the campaign's
// engagement counters; ledger rows themselves are immutable once written.
func (cc *CampaignController) HandleProviderWebhook(c *fiber.Ctx) error {
	var input struct {
		EventType string `json:"event_type"`
		MessageID string `json:"message_id"`
		Timestamp int64  `json:"timestamp"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	msg, err := cc.Messages.FindByExternalID(input.MessageID)
	if err != nil {
		return cc.respondError(c, err)
	}

	switch input.EventType {
	case "delivered":
		err = cc.Service.Campaigns.IncrementEngagement(msg.CampaignID, models.MessageStatusDelivered)
	case "opened":
		err = cc.Service.Campaigns.IncrementEngagement(msg.CampaignID, models.MessageStatusOpened)
	case "clicked":
		err = cc.Service.Campaigns.IncrementEngagement(msg.CampaignID, models.MessageStatusClicked)
	case "review":
		err = cc.Service.Campaigns.IncrementReviewCount(msg.CampaignID)
	case "bounced":
		logrus.WithFields(logrus.Fields{
			"campaign_id": msg.CampaignID,
			"message_id":  input.MessageID,
		}).Info("bounce event received")
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown event type",
		})
	}
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Webhook processed successfully",
	})
}
