package suggest

import (
	"context"
	"fmt"

	"room-planner/internal/planner/models"
)

// ============================================================
// AI Suggestion Provider
// ============================================================

// Footprint: что провайдер знает о предмете при расстановке.
type Footprint struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Width float64 `json:"w"`
	Depth float64 `json:"d"`
}

// Image: снимок для анализа.
type Image struct {
	Data     []byte
	MimeType string
}

// Provider: внешний AI-сервис. Таймауты и отмену обеспечивает реализация.
type Provider interface {
	// ProposeArrangement возвращает сырой ответ; разбирает его Reconciler.
	ProposeArrangement(ctx context.Context, roomWidth, roomDepth float64, items []Footprint) ([]byte, error)
	ScanRoomImage(ctx context.Context, img Image) (RoomScan, error)
	ScanFurnitureImage(ctx context.Context, img Image) (FurnitureScan, error)
}

// ============================================================
// Scan results & defaults
// ============================================================

const (
	DefaultRoomWidth     = 400.0
	DefaultRoomDepth     = 500.0
	MinRoomExtent        = 100.0
	DefaultItemDimension = 60.0
)

type RoomScan struct {
	Width *float64 `json:"width,omitempty"`
	Depth *float64 `json:"depth,omitempty"`
}

// Extents подставляет значения по умолчанию и минимум 100 см по каждой оси.
func (s RoomScan) Extents() (float64, float64) {
	w := orDefault(s.Width, DefaultRoomWidth)
	d := orDefault(s.Depth, DefaultRoomDepth)
	return floorAt(w, MinRoomExtent), floorAt(d, MinRoomExtent)
}

type ScannedDimensions struct {
	Width  *float64 `json:"width,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

type FurnitureScan struct {
	Name       *string            `json:"name,omitempty"`
	Type       *string            `json:"type,omitempty"`
	Dimensions *ScannedDimensions `json:"dimensions,omitempty"`
}

// Item собирает предмет из результата скана. ordinal: номер предмета в комнате, с 1.
// Id и позицию назначает вызывающий.
func (s FurnitureScan) Item(ordinal int) models.FurnitureItem {
	name := ""
	if s.Name != nil {
		name = *s.Name
	}
	if name == "" {
		name = fmt.Sprintf("Furniture %d", ordinal)
	}

	kind := models.Other
	if s.Type != nil {
		kind = models.ParseFurnitureType(*s.Type)
	}

	dims := models.Dimensions{Width: DefaultItemDimension, Depth: DefaultItemDimension, Height: DefaultItemDimension}
	if s.Dimensions != nil {
		dims.Width = orDefault(s.Dimensions.Width, DefaultItemDimension)
		dims.Depth = orDefault(s.Dimensions.Depth, DefaultItemDimension)
		dims.Height = orDefault(s.Dimensions.Height, DefaultItemDimension)
	}

	return models.FurnitureItem{
		Name:       name,
		Type:       kind,
		Dimensions: dims,
		Rotation:   models.Rotation0,
	}
}

// orDefault считает отсутствующее, нулевое или отрицательное значение пропуском.
func orDefault(v *float64, def float64) float64 {
	if v == nil || !(*v > 0) {
		return def
	}
	return *v
}

func floorAt(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}
