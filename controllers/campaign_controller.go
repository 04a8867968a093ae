package controller

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reputely/apperrors"
	"reputely/models"
	"reputely/repository"
	"reputely/services"
)

// CampaignController exposes the campaign operations over HTTP. All routes
// are tenant-scoped through the client id the tenant middleware resolves.
type CampaignController struct {
	Service  *services.CampaignService
	Stats    *services.StatsService
	Messages repository.MessageRepositoryInterface
	Logger   *log.Logger
}

func NewCampaignController(service *services.CampaignService, stats *services.StatsService, messages repository.MessageRepositoryInterface, logger *log.Logger) *CampaignController {
	return &CampaignController{
		Service:  service,
		Stats:    stats,
		Messages: messages,
		Logger:   logger,
	}
}

func clientID(c *fiber.Ctx) uint {
	return c.Locals("clientID").(uint)
}

func campaignID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, apperrors.NewNotFound("campaign")
	}
	return uint(id), nil
}

// respondError maps the service error taxonomy to HTTP: field-level
// validation errors to 400 with the fields named, not-found (including
// cross-tenant access) to 404, anything else to a logged 500.
func (cc *CampaignController) respondError(c *fiber.Ctx, err error) error {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": ve.Fields,
		})
	}

	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": nf.Error(),
		})
	}

	cc.Logger.Printf("Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input services.CreateCampaignInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	campaign, err := cc.Service.Create(clientID(c), input)
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"campaign": campaign,
	})
}

func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	status := models.CampaignStatus(c.Query("status"))

	campaigns, pagination, err := cc.Service.List(clientID(c), status, page, limit)
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"campaigns":  campaigns,
		"pagination": pagination,
	})
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	campaign, err := cc.Service.GetByID(id, clientID(c))
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"campaign": campaign,
	})
}

func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	var input services.CreateCampaignInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	campaign, err := cc.Service.Update(id, clientID(c), input)
	if err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"campaign": campaign,
	})
}

func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	id, err := campaignID(c)
	if err != nil {
		return cc.respondError(c, err)
	}

	if err := cc.Service.Delete(id, clientID(c)); err != nil {
		return cc.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Campaign deleted successfully",
	})
}
