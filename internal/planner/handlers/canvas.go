package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/service"
)

// ============================================================
// Canvas Handler
// ============================================================

type CanvasHandler struct {
	planner  *service.Planner
	canvases *service.CanvasManager
}

func NewCanvasHandler(planner *service.Planner, canvases *service.CanvasManager) *CanvasHandler {
	return &CanvasHandler{
		planner:  planner,
		canvases: canvases,
	}
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type pointerRequest struct {
	ItemID    string  `json:"itemId"`
	PointerID int     `json:"pointerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Open выдает новую сессию холста.
func (h *CanvasHandler) Open(c fiber.Ctx) error {
	token, canvas := h.canvases.Issue()
	return c.Status(http.StatusCreated).JSON(canvas.View(h.planner, token))
}

func (h *CanvasHandler) Get(c fiber.Ctx) error {
	token, canvas, err := h.resolve(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(canvas.View(h.planner, token))
}

func (h *CanvasHandler) Close(c fiber.Ctx) error {
	if !h.canvases.Close(c.Params("token")) {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": service.ErrSessionNotFound.Error()})
	}
	return c.SendStatus(http.StatusNoContent)
}

// Resize сообщает реальный размер контейнера холста.
func (h *CanvasHandler) Resize(c fiber.Ctx) error {
	token, canvas, err := h.resolve(c)
	if err != nil {
		return respondError(c, err)
	}

	var req viewportRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	canvas.Resize(req.Width, req.Height)
	return c.JSON(canvas.View(h.planner, token))
}

// ============================================================
// Pointer events
// ============================================================

// PointerDown с itemId захватывает предмет, без него снимает выделение.
func (h *CanvasHandler) PointerDown(c fiber.Ctx) error {
	token, canvas, req, err := h.pointer(c)
	if err != nil {
		return respondError(c, err)
	}

	started, err := canvas.PointerDown(h.planner, req.ItemID, req.PointerID, interaction.Point{X: req.X, Y: req.Y})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"started": started, "canvas": canvas.View(h.planner, token)})
}

func (h *CanvasHandler) PointerMove(c fiber.Ctx) error {
	token, canvas, req, err := h.pointer(c)
	if err != nil {
		return respondError(c, err)
	}

	pos, moved, err := canvas.PointerMove(context.Background(), h.planner, req.PointerID, interaction.Point{X: req.X, Y: req.Y})
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"moved": moved, "canvas": canvas.View(h.planner, token)}
	if moved {
		resp["position"] = pos
	}
	return c.JSON(resp)
}

func (h *CanvasHandler) PointerUp(c fiber.Ctx) error {
	token, canvas, req, err := h.pointer(c)
	if err != nil {
		return respondError(c, err)
	}

	ended := canvas.PointerUp(req.PointerID)
	return c.JSON(fiber.Map{"ended": ended, "canvas": canvas.View(h.planner, token)})
}

// PointerCancel: указатель потерян, жест завершается без перемещения.
func (h *CanvasHandler) PointerCancel(c fiber.Ctx) error {
	token, canvas, err := h.resolve(c)
	if err != nil {
		return respondError(c, err)
	}

	canvas.CaptureLost()
	return c.JSON(canvas.View(h.planner, token))
}

// Rotate поворачивает выбранный предмет.
func (h *CanvasHandler) Rotate(c fiber.Ctx) error {
	token, canvas, req, err := h.pointer(c)
	if err != nil {
		return respondError(c, err)
	}

	r, rotated, err := canvas.Rotate(context.Background(), h.planner, req.ItemID)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"rotated": rotated, "canvas": canvas.View(h.planner, token)}
	if rotated {
		resp["rotation"] = r
	}
	return c.JSON(resp)
}

// ============================================================
// Helpers
// ============================================================

func (h *CanvasHandler) resolve(c fiber.Ctx) (string, *service.Canvas, error) {
	token := c.Params("token")
	canvas, ok := h.canvases.Resolve(token)
	if !ok {
		return "", nil, fiber.NewError(http.StatusNotFound, service.ErrSessionNotFound.Error())
	}
	return token, canvas, nil
}

func (h *CanvasHandler) pointer(c fiber.Ctx) (string, *service.Canvas, pointerRequest, error) {
	var req pointerRequest

	token, canvas, err := h.resolve(c)
	if err != nil {
		return "", nil, req, err
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return "", nil, req, fiber.NewError(http.StatusBadRequest, "invalid json")
		}
	}
	return token, canvas, req, nil
}
