package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware computes a weak ETag from the response body and answers
// 304 Not Modified when the client already holds it. Vault lists and
// viewport responses rarely change between polls, so this saves most of
// the editor's refresh traffic.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		// A handler may have set its own validator already.
		if len(c.Response().Header.Peek("ETag")) > 0 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		etag := weakETag(body)
		c.Set("ETag", etag)

		// If-None-Match may carry several candidates.
		for _, candidate := range strings.Split(c.Get("If-None-Match"), ",") {
			if strings.TrimSpace(candidate) == etag {
				c.Status(fiber.StatusNotModified)
				c.Response().ResetBody()
				return nil
			}
		}

		return nil
	}
}

func weakETag(body []byte) string {
	h := sha256.Sum256(body)
	return `W/"` + hex.EncodeToString(h[:8]) + `"`
}
