package handler

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zenithstudio/agentfeed/internal/apperr"
)

// respondError renders a service error as {"error": ..., "code": ...}.
// Anything that is not an *apperr.Error is logged and masked as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var apiErr *apperr.Error
	if errors.As(err, &apiErr) {
		if apiErr.RetryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(apiErr.RetryAfter))
		}
		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error": apiErr.Message,
			"code":  apiErr.Code,
		})
	}

	log.Printf("[%s] %s - unexpected error: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
		"code":  apperr.CodeInternalError,
	})
}

// clientIP returns the address used for IP-scoped rate limiting: the first
// entry of X-Forwarded-For when the CDN set one, else the peer address.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}
	return c.IP()
}
