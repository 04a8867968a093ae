package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	controller "reputely/controllers"
	"reputely/middleware"
	"reputely/repository"
)

// SetupRoutes wires the campaign API. Everything under /api/v1 is tenant
// scoped; the provider webhook sits outside because providers don't carry a
// tenant header.
func SetupRoutes(app *fiber.App, cc *controller.CampaignController, business repository.BusinessRepositoryInterface) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/webhooks/provider", cc.HandleProviderWebhook)

	api := app.Group("/api/v1", middleware.Tenant(business), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	campaign := api.Group("/campaigns")
	campaign.Post("/", cc.CreateCampaign)
	campaign.Get("/", cc.GetCampaigns)
	campaign.Get("/progress", websocket.New(cc.HandleCampaignProgressWS))
	campaign.Get("/:id", cc.GetCampaign)
	campaign.Put("/:id", cc.UpdateCampaign)
	campaign.Delete("/:id", cc.DeleteCampaign)
	campaign.Post("/:id/recipients", cc.AddRecipients)
	campaign.Delete("/:id/recipients", cc.RemoveRecipients)
	campaign.Post("/:id/launch", cc.LaunchCampaign)
	campaign.Post("/:id/pause", cc.PauseCampaign)
	campaign.Post("/:id/resume", cc.ResumeCampaign)
	campaign.Get("/:id/stats", cc.GetCampaignStats)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not Found",
		})
	})
}
