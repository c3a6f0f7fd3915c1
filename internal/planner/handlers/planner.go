package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gofiber/fiber/v3"

	"room-planner/internal/planner/models"
	"room-planner/internal/planner/render"
	"room-planner/internal/planner/service"
	"room-planner/internal/planner/suggest"
)

// ============================================================
// Planner Handler
// ============================================================

const maxImageBytes = 10 << 20

type PlannerHandler struct {
	planner  *service.Planner
	images   *service.ImageStorage
	renderer *render.Renderer
}

func NewPlannerHandler(planner *service.Planner, images *service.ImageStorage) *PlannerHandler {
	return &PlannerHandler{
		planner:  planner,
		images:   images,
		renderer: render.NewRenderer(),
	}
}

type createRoomRequest struct {
	Name  string   `json:"name"`
	Width *float64 `json:"width"`
	Depth *float64 `json:"depth"`
}

type addItemRequest struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Dimensions models.Dimensions `json:"dimensions"`
}

type arrangeResponse struct {
	Updated int          `json:"updated"`
	Room    *models.Room `json:"room"`
}

// GetRoom возвращает активную комнату.
func (h *PlannerHandler) GetRoom(c fiber.Ctx) error {
	room, ok := h.planner.Room()
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no active room"})
	}
	return c.JSON(room)
}

// CreateRoom создает пустую комнату. Габариты проходят те же умолчания и минимумы, что и при сканировании.
func (h *PlannerHandler) CreateRoom(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req createRoomRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	width, depth := suggest.RoomScan{Width: req.Width, Depth: req.Depth}.Extents()

	room, err := h.planner.CreateRoom(context.Background(), req.Name, width, depth)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(room)
}

// ScanRoom создает комнату по фотографии.
func (h *PlannerHandler) ScanRoom(c fiber.Ctx) error {
	img, err := readImage(c)
	if err != nil {
		return respondError(c, err)
	}

	room, err := h.planner.ScanRoom(context.Background(), img)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(room)
}

// ResetRoom стирает все состояние планировщика.
func (h *PlannerHandler) ResetRoom(c fiber.Ctx) error {
	if err := h.planner.Reset(context.Background()); err != nil {
		log.Printf("[PLANNER] reset error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reset"})
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Furniture
// ============================================================

// AddItem добавляет предмет, описанный вручную.
func (h *PlannerHandler) AddItem(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req addItemRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	item, err := h.planner.AddItem(context.Background(), models.FurnitureItem{
		Name:       req.Name,
		Type:       models.ParseFurnitureType(req.Type),
		Dimensions: req.Dimensions,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(item)
}

// ScanItem добавляет предмет, распознанный по фотографии.
func (h *PlannerHandler) ScanItem(c fiber.Ctx) error {
	img, err := readImage(c)
	if err != nil {
		return respondError(c, err)
	}

	item, err := h.planner.ScanItem(context.Background(), img)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(item)
}

// MoveItem принимает желаемую позицию и отвечает позицией после ограничения.
func (h *PlannerHandler) MoveItem(c fiber.Ctx) error {
	var pos models.Position
	if err := json.Unmarshal(c.Body(), &pos); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	clamped, err := h.planner.MoveItem(context.Background(), c.Params("id"), pos)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "position": clamped})
}

func (h *PlannerHandler) RotateItem(c fiber.Ctx) error {
	r, err := h.planner.RotateItem(context.Background(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "rotation": r})
}

// RemoveItem удаляет предмет только с ?confirm=true.
func (h *PlannerHandler) RemoveItem(c fiber.Ctx) error {
	if c.Query("confirm") != "true" {
		return c.Status(http.StatusPreconditionRequired).JSON(fiber.Map{"error": "confirmation required"})
	}

	if err := h.planner.RemoveItem(context.Background(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Arrangement
// ============================================================

// Arrange запрашивает расстановку у AI-провайдера.
func (h *PlannerHandler) Arrange(c fiber.Ctx) error {
	updated, err := h.planner.Arrange(context.Background())
	if err != nil {
		return respondError(c, err)
	}
	return h.arrangeResult(c, updated)
}

// ApplyArrangement применяет расстановку из тела запроса (массив {id, x, y, rotation}).
func (h *PlannerHandler) ApplyArrangement(c fiber.Ctx) error {
	updated, err := h.planner.ApplyArrangement(context.Background(), c.Body())
	if err != nil {
		return respondError(c, err)
	}
	return h.arrangeResult(c, updated)
}

func (h *PlannerHandler) arrangeResult(c fiber.Ctx, updated int) error {
	room, _ := h.planner.Room()
	return c.JSON(arrangeResponse{Updated: updated, Room: room})
}

// ============================================================
// Export & images
// ============================================================

// GetSVG отдает план комнаты в SVG.
func (h *PlannerHandler) GetSVG(c fiber.Ctx) error {
	room, ok := h.planner.Room()
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no active room"})
	}

	svg, err := h.renderer.Render(room)
	if err != nil {
		log.Printf("[PLANNER] render error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render"})
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

func (h *PlannerHandler) GetRoomImage(c fiber.Ctx) error {
	room, ok := h.planner.Room()
	if !ok || room.ImageURL == "" {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	return sendImage(c, h.images.RoomImagePath(room.ID))
}

func (h *PlannerHandler) GetItemImage(c fiber.Ctx) error {
	room, ok := h.planner.Room()
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	item, ok := room.Item(c.Params("id"))
	if !ok || item.ImageURL == "" {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	return sendImage(c, h.images.ItemImagePath(room.ID, item.ID))
}

// ============================================================
// Helpers
// ============================================================

// respondError переводит ошибки сервиса в HTTP-статусы.
func respondError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	case errors.Is(err, service.ErrNoRoom):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "no active room"})
	case errors.Is(err, service.ErrItemNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "item not found"})
	case errors.Is(err, service.ErrNoItems):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "room has no items"})
	case errors.Is(err, suggest.ErrArrangementUnavailable):
		log.Printf("[PLANNER] %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "arrangement unavailable"})
	case errors.Is(err, models.ErrInvalidItem), errors.Is(err, models.ErrInvalidRoom):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrScanFailed):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "scan failed"})
	}

	log.Printf("[PLANNER] internal error: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// readImage читает multipart-поле file.
func readImage(c fiber.Ctx) (suggest.Image, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return suggest.Image{}, fiber.NewError(http.StatusBadRequest, "file required")
	}
	if fileHeader.Size > maxImageBytes {
		return suggest.Image{}, fiber.NewError(http.StatusRequestEntityTooLarge, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return suggest.Image{}, fiber.NewError(http.StatusInternalServerError, "failed to open file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return suggest.Image{}, fiber.NewError(http.StatusInternalServerError, "failed to read file")
	}
	if len(data) == 0 {
		return suggest.Image{}, fiber.NewError(http.StatusBadRequest, "empty file")
	}

	return suggest.Image{Data: data, MimeType: http.DetectContentType(data)}, nil
}

func sendImage(c fiber.Ctx, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	c.Set("Content-Type", http.DetectContentType(data))
	return c.Send(data)
}
