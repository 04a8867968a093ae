package controller

import (
	"github.com/gofiber/fiber/v2"
)

// LaunchCampaign moves a draft campaign to active (immediate/drip) or
// scheduled. Dispatch itself runs asynchronously in the worker; failures
// there surface only through the ledgers and logs, never this response.
func (cc *CampaignController) LaunchCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	campaign, err := cc.Service.Launch(id, clientID(c))
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Campaign launched successfully",
		"campaign": campaign,
	})
}

func (cc *CampaignController) PauseCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	campaign, err := cc.Service.Pause(id, clientID(c))
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Campaign paused successfully",
		"campaign": campaign,
	})
}

func (cc *CampaignController) ResumeCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	campaign, err := cc.Service.Resume(id, clientID(c))
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Campaign resumed successfully",
		"campaign": campaign,
	})
}
