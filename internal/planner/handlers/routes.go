package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// Register вешает маршруты планировщика и холста на роутер.
func Register(r fiber.Router, planner *PlannerHandler, canvas *CanvasHandler) {
	// ============================================================
	// Room Routes
	// ============================================================

	r.Get("/room", planner.GetRoom)
	r.Post("/room", planner.CreateRoom)
	r.Delete("/room", planner.ResetRoom)
	r.Post("/room/scan", planner.ScanRoom)
	r.Get("/room/svg", planner.GetSVG)
	r.Get("/room/image", planner.GetRoomImage)
	r.Post("/room/arrange", planner.Arrange)
	r.Post("/room/arrangement", planner.ApplyArrangement)

	r.Post("/room/items", planner.AddItem)
	r.Post("/room/items/scan", planner.ScanItem)
	r.Put("/room/items/:id/position", planner.MoveItem)
	r.Post("/room/items/:id/rotate", planner.RotateItem)
	r.Delete("/room/items/:id", planner.RemoveItem)
	r.Get("/room/items/:id/image", planner.GetItemImage)

	// ============================================================
	// Canvas Routes
	// ============================================================

	r.Post("/canvas", canvas.Open)
	r.Get("/canvas/:token", canvas.Get)
	r.Delete("/canvas/:token", canvas.Close)
	r.Put("/canvas/:token/viewport", canvas.Resize)
	r.Post("/canvas/:token/pointer-down", canvas.PointerDown)
	r.Post("/canvas/:token/pointer-move", canvas.PointerMove)
	r.Post("/canvas/:token/pointer-up", canvas.PointerUp)
	r.Post("/canvas/:token/pointer-cancel", canvas.PointerCancel)
	r.Post("/canvas/:token/rotate", canvas.Rotate)
}
