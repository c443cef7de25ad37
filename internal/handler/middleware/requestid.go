package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDLocalsKey = "request_id"

// RequestIDMiddleware attaches a request id, honoring an incoming
// X-Request-ID header so ids survive the CDN hop.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocalsKey, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}
