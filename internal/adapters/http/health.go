package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aitorle/geovault/internal/adapters/valkey"
)

type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler probes the configured dependencies. A dependency that was
// never wired (nil) is skipped rather than reported, so a cache-less
// deployment can still go ready.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	var checks []dependencyCheck
	if deps.DB != nil {
		checks = append(checks, dependencyCheck{name: "database", check: func(ctx context.Context) error {
			return deps.DB.Pool.Ping(ctx)
		}})
	}
	if deps.NATS != nil {
		checks = append(checks, dependencyCheck{name: "nats", check: func(ctx context.Context) error {
			if !deps.NATS.IsConnected() {
				return errNATSDisconnected
			}
			return nil
		}})
	}
	if deps.Cache != nil {
		checks = append(checks, dependencyCheck{name: "cache", check: func(ctx context.Context) error {
			_, err := deps.Cache.Get(ctx, "__health_check__")
			if err != nil && !valkey.IsNilReply(err) {
				return err
			}
			return nil
		}})
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, dc := range checks {
			if err := dc.check(ctx); err != nil {
				results[dc.name] = "error: " + err.Error()
				ready = false
			} else {
				results[dc.name] = "ok"
			}
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}

var errNATSDisconnected = fiber.NewError(fiber.StatusServiceUnavailable, "nats disconnected")
