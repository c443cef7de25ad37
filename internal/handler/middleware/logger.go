package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LoggerMiddleware logs every request with latency, status, and the
// request id attached by RequestIDMiddleware.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		requestID, _ := c.Locals(requestIDLocalsKey).(string)

		log.Printf("[%s] %s - %d in %v (request_id=%s)",
			c.Method(),
			c.Path(),
			status,
			latency,
			requestID,
		)

		return err
	}
}
