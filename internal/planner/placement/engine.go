package placement

import (
	"errors"
	"math"

	"room-planner/internal/planner/models"
)

// ============================================================
// Placement Engine
// ============================================================

// StaggerStep и StaggerCycle задают сдвиг новых предметов, чтобы они не ложились друг на друга.
const (
	StaggerStep  = 15.0
	StaggerCycle = 100.0
)

var ErrEmptyArrangement = errors.New("arrangement is empty")

// Placement: одна запись расстановки.
type Placement struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

type Arrangement []Placement

// Engine владеет позициями предметов комнаты.
// Кроме переданной комнаты состояния нет.
type Engine struct {
	room *models.Room
}

func New(room *models.Room) *Engine {
	return &Engine{room: room}
}

func (e *Engine) Room() *models.Room {
	return e.room
}

// Clamp ограничивает позицию так, чтобы габарит предмета оставался в комнате.
// Поворот на бокс не влияет.
func Clamp(room *models.Room, dims models.Dimensions, p models.Position) models.Position {
	maxX, maxY := room.MaxPosition(dims)
	return models.Position{
		X: clamp(p.X, 0, maxX),
		Y: clamp(p.Y, 0, maxY),
	}
}

// Move фиксирует ограниченную позицию и возвращает её.
// Для неизвестного id ничего не меняет.
func (e *Engine) Move(id string, desired models.Position) (models.Position, bool) {
	i := e.room.Index(id)
	if i < 0 {
		return models.Position{}, false
	}
	item := &e.room.Items[i]
	item.Position = Clamp(e.room, item.Dimensions, desired)
	return item.Position, true
}

// Rotate переводит поворот на следующий шаг цикла.
func (e *Engine) Rotate(id string) (models.Rotation, bool) {
	i := e.room.Index(id)
	if i < 0 {
		return 0, false
	}
	item := &e.room.Items[i]
	item.Rotation = item.Rotation.Next()
	return item.Rotation, true
}

// ApplyBulk применяет расстановку: совпавшие id ограничиваются как в Move,
// несовпавшие пропускаются. Возвращает число обновленных предметов.
func (e *Engine) ApplyBulk(arr Arrangement) (int, error) {
	if len(arr) == 0 {
		return 0, ErrEmptyArrangement
	}

	updated := 0
	for _, p := range arr {
		i := e.room.Index(p.ID)
		if i < 0 {
			continue
		}
		item := &e.room.Items[i]
		item.Position = Clamp(e.room, item.Dimensions, models.Position{X: p.X, Y: p.Y})
		item.Rotation = models.NormalizeRotation(p.Rotation)
		updated++
	}
	return updated, nil
}

// StaggerOffset: сдвиг нового предмета, когда в комнате уже count предметов.
func StaggerOffset(count int) float64 {
	return math.Mod(float64(count)*StaggerStep, StaggerCycle)
}

// Add добавляет предмет в конец списка, ставя его в центр комнаты со сдвигом.
func (e *Engine) Add(item models.FurnitureItem) models.FurnitureItem {
	offset := StaggerOffset(len(e.room.Items))
	centered := models.Position{
		X: (e.room.Width-item.Dimensions.Width)/2 + offset,
		Y: (e.room.Depth-item.Dimensions.Depth)/2 + offset,
	}
	item.Position = Clamp(e.room, item.Dimensions, centered)
	if !item.Rotation.Valid() {
		item.Rotation = models.Rotation0
	}
	e.room.Items = append(e.room.Items, item)
	return item
}

// Remove удаляет предмет. Подтверждение проверяет вызывающий.
func (e *Engine) Remove(id string) bool {
	i := e.room.Index(id)
	if i < 0 {
		return false
	}
	e.room.Items = append(e.room.Items[:i], e.room.Items[i+1:]...)
	return true
}

func clamp(val, min, max float64) float64 {
	if math.IsNaN(val) || val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
