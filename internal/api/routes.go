package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker is anything with a liveness probe (the cache store).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RegisterRoutes wires the REST surface. nc and health may be nil when the
// deployment runs without NATS or an external cache store.
func RegisterRoutes(app *fiber.App, nc *nats.Conn, health HealthChecker, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{
			"nats":  "ok",
			"cache": "ok",
		}
		status := "ok"
		code := fiber.StatusOK

		if nc != nil && !nc.IsConnected() {
			checks["nats"] = "disconnected"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		if health != nil {
			healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(healthCtx); err != nil {
				checks["cache"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	v1 := app.Group("/api/v1")
	v1.Post("/validate", h.ValidateName)
	v1.Post("/validate/batch", h.ValidateBatch)
	v1.Post("/resolve", h.ResolveName)
	v1.Get("/settings", h.GetSettings)
	v1.Put("/settings", h.UpdateSettings)
	v1.Post("/test-connection", h.TestConnection)
}
