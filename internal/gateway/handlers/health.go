package handlers

import (
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe готов, только если планировщик отвечает на /health/live.
func ReadinessProbe(ping func() error) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := ping(); err != nil {
			log.Printf("[GATEWAY] planner not ready: %v", err)
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  "planner unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}
