package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

const pingTimeout = 2 * time.Second

// Pinger is anything that can report its reachability (*sql.DB, the Redis queue).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Root describes the API.
// @Summary API info
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func Root() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Visa AI Interviewer API",
			"version": Version,
			"status":  "healthy",
			"mode":    "full",
		})
	}
}

// HealthCheck pings the database and, when configured, the GPU queue. Only a
// database failure makes the service unhealthy; the queue is reported as degraded.
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger, queue Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}

		services := fiber.Map{
			"database":     "connected",
			"file_storage": "available",
			"api_routes":   "loaded",
		}
		switch {
		case queue == nil:
			services["gpu_queue"] = "not_configured"
		case queue.PingContext(ctx) != nil:
			services["gpu_queue"] = "unavailable"
		default:
			services["gpu_queue"] = "ready"
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"services": services,
		})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// TestEndpoint is a smoke test for deployments.
// @Summary Smoke test
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /test [get]
func TestEndpoint() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Test endpoint working!",
			"status":  "success",
			"mode":    "full",
		})
	}
}
