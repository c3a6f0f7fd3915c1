package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger логирует запросы с тегом сервиса: [PLANNER], [GATEWAY] и т.д.
func Logger(tag string) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] [" + tag + "] ${status} - ${latency} ${method} ${path} ${queryParams} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
