package config

import (
	"os"
	"strconv"
	"time"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Planner service
	DBPath         string
	MigrationsPath string
	ImagesDir      string
	CanvasPadding  float64
	CanvasIdle     time.Duration

	// AI provider (Gemini)
	GeminiAPIKey string
	GeminiModel  string
	GeminiURL    string
	AITimeout    time.Duration

	// Gateway
	PlannerURL  string
	OpenAPIPath string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		DBPath:         getEnv("PLANNER_DB_PATH", "data/db/planner.db"),
		MigrationsPath: getEnv("PLANNER_MIGRATIONS", "migrations/001_init_planner.sql"),
		ImagesDir:      getEnv("PLANNER_IMAGES_DIR", "data/images"),
		CanvasPadding:  getEnvAsFloat("CANVAS_PADDING", 60),
		CanvasIdle:     time.Duration(getEnvAsInt("CANVAS_IDLE_TIMEOUT", 30)) * time.Minute,

		GeminiAPIKey: getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiURL:    getEnv("GEMINI_URL", "https://generativelanguage.googleapis.com"),
		AITimeout:    time.Duration(getEnvAsInt("AI_TIMEOUT", 60)) * time.Second,

		PlannerURL:  getEnv("PLANNER_URL", "http://localhost:3003"),
		OpenAPIPath: getEnv("OPENAPI_PATH", "docs/planner.openapi.yaml"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultVal
}
