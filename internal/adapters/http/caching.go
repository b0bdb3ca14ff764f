package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasSuffix(path, "/membership"):
			ttl = "no-store" // Live position query, never cache

		case strings.HasSuffix(path, "/events"):
			ttl = "private, max-age=10" // Transition history moves fast

		case strings.HasPrefix(path, "/v1/vaults/nearby") || strings.HasPrefix(path, "/v1/zones/nearby"):
			ttl = "public, max-age=60" // 1 min for location queries

		case strings.HasPrefix(path, "/v1/editor/"):
			ttl = "public, max-age=3600" // Pure geometry, fully cacheable

		case strings.Contains(path, "/vaults/"):
			ttl = "private, max-age=60" // Single vault, per-user data

		case path == "/v1/stats":
			ttl = "public, max-age=60" // Table stats: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "private, max-age=60" // Default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
