package controller

import (
	"github.com/gofiber/fiber/v2"
)

// GetCampaignStats returns the campaign counter snapshot plus the ledger
// breakdown per channel. All seven status buckets are always present,
// zero-filled; reporting consumers rely on the fixed shape.
func (cc *CampaignController) GetCampaignStats(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	stats, err := cc.Stats.GetStats(id, clientID(c))
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(stats)
}
