package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/aitorle/geovault/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: location pings arrive continuously, so the ceiling is
	// higher than a browsing API would use.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecated endpoints still served during the migration window
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/zones/nearby",
			SunsetDate:  time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/vaults/nearby",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Post("/vaults", timeout.NewWithContext(CreateVaultHandler(deps), 15*time.Second))
	v1.Get("/vaults/nearby", timeout.NewWithContext(NearbyVaultsHandler(deps), 15*time.Second))
	v1.Get("/vaults/:id", timeout.NewWithContext(GetVaultHandler(deps), 15*time.Second))
	v1.Put("/vaults/:id", timeout.NewWithContext(UpdateVaultHandler(deps), 15*time.Second))
	v1.Delete("/vaults/:id", timeout.NewWithContext(DeleteVaultHandler(deps), 15*time.Second))
	v1.Get("/vaults/:id/viewport", timeout.NewWithContext(VaultViewportHandler(deps), 15*time.Second))
	v1.Get("/vaults/:id/handle", timeout.NewWithContext(VaultHandleHandler(deps), 15*time.Second))
	v1.Get("/vaults/:id/events", timeout.NewWithContext(VaultEventsHandler(deps), 15*time.Second))
	v1.Get("/devices/:deviceID/vaults", timeout.NewWithContext(DeviceVaultsHandler(deps), 15*time.Second))
	v1.Get("/devices/:deviceID/events", timeout.NewWithContext(DeviceEventsHandler(deps), 15*time.Second))
	v1.Get("/devices/:deviceID/membership", timeout.NewWithContext(MembershipHandler(deps), 15*time.Second))
	v1.Post("/locations", timeout.NewWithContext(EvaluateLocationHandler(deps), 15*time.Second))
	v1.Get("/editor/corners", timeout.NewWithContext(DefaultCornersHandler(deps), 15*time.Second))
	v1.Post("/editor/recenter", timeout.NewWithContext(RecenterHandler(deps), 15*time.Second))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), 15*time.Second))

	// Legacy alias kept until the sunset date above
	v1.Get("/zones/nearby", timeout.NewWithContext(NearbyVaultsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
