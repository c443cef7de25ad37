package middleware

import (
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/apperr"
)

// RecoveryMiddleware converts panics into 500 INTERNAL_ERROR responses.
// The panic value and stack are logged; neither reaches the client.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC: %v\n%s", r, debug.Stack())

				if err := reject(c, apperr.Internal("Internal server error")); err != nil {
					log.Printf("Error sending panic response: %v", err)
				}
			}
		}()

		return c.Next()
	}
}
