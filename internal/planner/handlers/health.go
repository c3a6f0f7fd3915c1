package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

type Pinger interface {
	Ping(ctx context.Context) error
}

func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessProbe проверяет доступность хранилища.
func ReadinessProbe(db Pinger) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Printf("[PLANNER] storage not ready: %v", err)
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}
}
