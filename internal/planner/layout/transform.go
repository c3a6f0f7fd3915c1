package layout

import (
	"math"

	"room-planner/internal/planner/models"
)

// ============================================================
// Fit-to-Viewport Transform
// ============================================================

// DefaultPadding: отступ вокруг комнаты в пикселях.
const DefaultPadding = 60.0

// ViewTransform переводит room-space (см) в viewport-space (px).
type ViewTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Fit подбирает наибольший равномерный масштаб, при котором комната с отступом
// целиком помещается в контейнер, и центрирует её.
// ok == false означает, что расчет надо отложить: контейнер еще не размечен.
func Fit(containerW, containerH, roomW, roomD, padding float64) (ViewTransform, bool) {
	if !(containerW > 0) || !(containerH > 0) || !(roomW > 0) || !(roomD > 0) {
		return ViewTransform{}, false
	}

	scale := math.Min((containerW-padding)/roomW, (containerH-padding)/roomD)
	if !(scale > 0) || math.IsInf(scale, 0) {
		return ViewTransform{}, false
	}

	return ViewTransform{
		Scale:   scale,
		OffsetX: (containerW - roomW*scale) / 2,
		OffsetY: (containerH - roomD*scale) / 2,
	}, true
}

// ToViewport возвращает пиксельные координаты точки комнаты.
func (t ViewTransform) ToViewport(p models.Position) (float64, float64) {
	return t.OffsetX + p.X*t.Scale, t.OffsetY + p.Y*t.Scale
}

// ToRoom: обратное преобразование.
func (t ViewTransform) ToRoom(x, y float64) models.Position {
	return models.Position{
		X: (x - t.OffsetX) / t.Scale,
		Y: (y - t.OffsetY) / t.Scale,
	}
}

// DeltaToRoom переводит смещение указателя в сантиметры. Сдвиг offset на дельту не влияет.
func (t ViewTransform) DeltaToRoom(dx, dy float64) (float64, float64) {
	return dx / t.Scale, dy / t.Scale
}

// ============================================================
// Viewport
// ============================================================

// Viewport хранит размер контейнера; трансформ пересчитывается при каждом запросе,
// так что и resize, и смена габаритов комнаты учитываются сразу.
type Viewport struct {
	Padding float64 `json:"padding"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func NewViewport(padding float64) *Viewport {
	if padding < 0 {
		padding = 0
	}
	return &Viewport{Padding: padding}
}

func (v *Viewport) Resize(width, height float64) {
	v.Width = width
	v.Height = height
}

// Ready сообщает, известен ли реальный размер контейнера.
func (v *Viewport) Ready() bool {
	return v.Width > 0 && v.Height > 0
}

func (v *Viewport) Transform(roomW, roomD float64) (ViewTransform, bool) {
	return Fit(v.Width, v.Height, roomW, roomD, v.Padding)
}
