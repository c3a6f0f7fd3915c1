package models

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Furniture Types
// ============================================================

type FurnitureType string

const (
	Chair   FurnitureType = "Chair"
	Table   FurnitureType = "Table"
	Sofa    FurnitureType = "Sofa"
	Bed     FurnitureType = "Bed"
	Desk    FurnitureType = "Desk"
	Cabinet FurnitureType = "Cabinet"
	Other   FurnitureType = "Other"
)

var furnitureTypes = []FurnitureType{Chair, Table, Sofa, Bed, Desk, Cabinet, Other}

// ParseFurnitureType сопоставляет строку с известным типом без учета регистра.
// Неизвестные значения становятся Other.
func ParseFurnitureType(s string) FurnitureType {
	s = strings.TrimSpace(s)
	for _, t := range furnitureTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return Other
}

func (t FurnitureType) Valid() bool {
	for _, known := range furnitureTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ============================================================
// Rotation
// ============================================================

// Rotation в градусах, только 0/90/180/270. Поворот визуальный и не меняет габарит.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

func (r Rotation) Valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// Next возвращает следующее значение цикла 0→90→180→270→0.
func (r Rotation) Next() Rotation {
	if !r.Valid() {
		return Rotation90
	}
	return (r + 90) % 360
}

// NormalizeRotation принимает произвольное число от внешнего источника.
func NormalizeRotation(v float64) Rotation {
	r := Rotation(int(v))
	if float64(r) != v || !r.Valid() {
		return Rotation0
	}
	return r
}

// ============================================================
// Geometry
// ============================================================

type Dimensions struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

func (d Dimensions) Validate() error {
	if !(d.Width > 0) || !(d.Depth > 0) || !(d.Height > 0) {
		return fmt.Errorf("%w: dimensions must be positive, got %gx%gx%g", ErrInvalidItem, d.Width, d.Depth, d.Height)
	}
	return nil
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ============================================================
// Furniture & Room
// ============================================================

type FurnitureItem struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Type       FurnitureType `json:"type"`
	Dimensions Dimensions    `json:"dimensions"`
	Position   Position      `json:"position"`
	Rotation   Rotation      `json:"rotation"`
	ImageURL   string        `json:"imageUrl,omitempty"`
}

type Room struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Width    float64         `json:"width"`
	Depth    float64         `json:"depth"`
	Items    []FurnitureItem `json:"items"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

var (
	ErrInvalidRoom = errors.New("invalid room")
	ErrInvalidItem = errors.New("invalid furniture item")
)

// Index возвращает позицию предмета в Items или -1.
func (r *Room) Index(id string) int {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) Item(id string) (FurnitureItem, bool) {
	if i := r.Index(id); i >= 0 {
		return r.Items[i], true
	}
	return FurnitureItem{}, false
}

// Clone делает глубокую копию, чтобы мутации не задевали опубликованный снимок.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = make([]FurnitureItem, len(r.Items))
	copy(out.Items, r.Items)
	return &out
}

// Validate проверяет инварианты комнаты и всех предметов.
func (r *Room) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil room", ErrInvalidRoom)
	}
	if !(r.Width > 0) || !(r.Depth > 0) {
		return fmt.Errorf("%w: extents must be positive, got %gx%g", ErrInvalidRoom, r.Width, r.Depth)
	}

	seen := make(map[string]struct{}, len(r.Items))
	for _, item := range r.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item without id", ErrInvalidRoom)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %q", ErrInvalidRoom, item.ID)
		}
		seen[item.ID] = struct{}{}

		if err := item.Dimensions.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", item.ID, err)
		}
		if !item.Rotation.Valid() {
			return fmt.Errorf("%w: item %q rotation %d", ErrInvalidItem, item.ID, item.Rotation)
		}
		maxX, maxY := r.MaxPosition(item.Dimensions)
		if item.Position.X < 0 || item.Position.X > maxX || item.Position.Y < 0 || item.Position.Y > maxY {
			return fmt.Errorf("%w: item %q out of bounds at (%g, %g)", ErrInvalidItem, item.ID, item.Position.X, item.Position.Y)
		}
	}
	return nil
}

// MaxPosition возвращает верхнюю границу clamp-бокса для предмета с такими габаритами.
// Если предмет шире комнаты, граница прижимается к нулю.
func (r *Room) MaxPosition(d Dimensions) (float64, float64) {
	maxX := r.Width - d.Width
	if maxX < 0 {
		maxX = 0
	}
	maxY := r.Depth - d.Depth
	if maxY < 0 {
		maxY = 0
	}
	return maxX, maxY
}
