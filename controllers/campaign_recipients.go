package controller

import (
	"github.com/gofiber/fiber/v2"
)

type recipientInput struct {
	CustomerIDs []uint `json:"customer_ids"`
}

func (cc *CampaignController) AddRecipients(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	var input recipientInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	total, err := cc.Service.AddRecipients(id, clientID(c), input.CustomerIDs)
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total_recipients": total,
	})
}

func (cc *CampaignController) RemoveRecipients(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	var input recipientInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	total, err := cc.Service.RemoveRecipients(id, clientID(c), input.CustomerIDs)
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"total_recipients": total,
	})
}
