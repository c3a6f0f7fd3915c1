package main

import (
	"fmt"
	"log"
	"time"

	"room-planner/internal/common/config"
	"room-planner/internal/common/middleware"
	"room-planner/internal/gateway/handlers"
	"room-planner/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    16 << 20,
		AppName:      "Room Planner Gateway",
	})

	// Таймаут выше AI_TIMEOUT: расстановка и скан идут через планировщик.
	planner := proxy.NewUpstream(cfg.PlannerURL, "/api/v1", cfg.AITimeout+10*time.Second)

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("GATEWAY"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(planner.Ping))

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs", handlers.SwaggerUI)
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec(cfg.OpenAPIPath))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Room Planner API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Planner Service (Proxy)
	// ============================================================

	api.All("/room", planner.Handler())
	api.All("/room/*", planner.Handler())
	api.All("/canvas", planner.Handler())
	api.All("/canvas/*", planner.Handler())

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /room and /canvas to %s", cfg.PlannerURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
