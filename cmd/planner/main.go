package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"room-planner/internal/common/config"
	"room-planner/internal/common/middleware"
	"room-planner/internal/planner/aiclient"
	"room-planner/internal/planner/handlers"
	"room-planner/internal/planner/repository"
	"room-planner/internal/planner/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Planner Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3003"
	}

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	if cfg.GeminiAPIKey == "" {
		log.Printf("[AI] GEMINI_API_KEY is not set, scan and arrange will fail")
	}
	ai := aiclient.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.AITimeout)

	images := service.NewImageStorage(cfg.ImagesDir)
	planner := service.NewPlanner(repo, ai, images)
	if err := planner.Start(context.Background()); err != nil {
		log.Fatalf("start planner: %v", err)
	}
	canvases := service.NewCanvasManager(cfg.CanvasPadding).WithIdleTimeout(cfg.CanvasIdle)

	plannerHandler := handlers.NewPlannerHandler(planner, images)
	canvasHandler := handlers.NewCanvasHandler(planner, canvases)

	// Запросы к AI держат соединение дольше обычного.
	writeTimeout := time.Duration(cfg.WriteTimeout) * time.Second
	if writeTimeout < cfg.AITimeout {
		writeTimeout = cfg.AITimeout + 5*time.Second
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: writeTimeout,
		BodyLimit:    16 << 20,
		AppName:      "Room Planner",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("PLANNER"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(repo))

	handlers.Register(app, plannerHandler, canvasHandler)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Planner Service on %s (env: %s, model: %s)", addr, cfg.Environment, cfg.GeminiModel)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
