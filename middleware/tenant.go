package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reputely/repository"
)

// TenantHeaderKey carries the acting client id. The auth layer in front of
// this service resolves the session to a client and forwards it here.
const TenantHeaderKey = "X-Client-ID"

// Tenant resolves the calling tenant and stores its client id in Locals.
// Requests without a resolvable, active client are rejected before any
// handler runs; an unknown client id reads as not found to avoid leaking
// which tenants exist.
func Tenant(business repository.BusinessRepositoryInterface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(TenantHeaderKey)
		if raw == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing " + TenantHeaderKey + " header",
			})
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid " + TenantHeaderKey + " header",
			})
		}

		client, err := business.GetClient(uint(id))
		if err != nil || !client.IsActive {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "client not found",
			})
		}

		c.Locals("clientID", client.ID)
		return c.Next()
	}
}
