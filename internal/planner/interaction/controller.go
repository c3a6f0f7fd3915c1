package interaction

import (
	"context"

	"room-planner/internal/planner/layout"
	"room-planner/internal/planner/models"
)

// ============================================================
// Gesture State Machine
// ============================================================

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Point: координаты указателя в пикселях viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Target двигает и поворачивает предметы (обычно это сервис планировщика).
type Target interface {
	ItemPosition(id string) (models.Position, bool)
	MoveItem(ctx context.Context, id string, p models.Position) (models.Position, error)
	RotateItem(ctx context.Context, id string) (models.Rotation, error)
}

type gesture struct {
	itemID    string
	pointerID int
	start     Point
	initial   models.Position
	scale     float64
}

// Controller переводит жест перетаскивания в поток Move для Target.
// Один активный жест за раз; повторный pointer-down во время жеста игнорируется.
type Controller struct {
	state    State
	selected string
	active   gesture
}

func NewController() *Controller {
	return &Controller{state: Idle}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Selected() string {
	return c.selected
}

// DraggingItem возвращает id перетаскиваемого предмета.
func (c *Controller) DraggingItem() (string, bool) {
	if c.state != Dragging {
		return "", false
	}
	return c.active.itemID, true
}

// PointerDown начинает жест на предмете: Idle → Dragging.
func (c *Controller) PointerDown(target Target, itemID string, pointerID int, at Point, t layout.ViewTransform) bool {
	if c.state == Dragging {
		return false
	}
	if !(t.Scale > 0) {
		return false
	}
	pos, ok := target.ItemPosition(itemID)
	if !ok {
		return false
	}

	c.selected = itemID
	c.active = gesture{
		itemID:    itemID,
		pointerID: pointerID,
		start:     at,
		initial:   pos,
		scale:     t.Scale,
	}
	c.state = Dragging
	return true
}

// CanvasPointerDown: нажатие по пустому месту холста снимает выделение.
func (c *Controller) CanvasPointerDown() {
	if c.state == Dragging {
		return
	}
	c.selected = ""
}

// PointerMove считает смещение от начальной точки жеста, а не от прошлого кадра,
// поэтому результат не зависит от частоты событий.
func (c *Controller) PointerMove(ctx context.Context, target Target, pointerID int, at Point) (models.Position, bool, error) {
	if c.state != Dragging || pointerID != c.active.pointerID {
		return models.Position{}, false, nil
	}

	g := c.active
	desired := models.Position{
		X: g.initial.X + (at.X-g.start.X)/g.scale,
		Y: g.initial.Y + (at.Y-g.start.Y)/g.scale,
	}
	pos, err := target.MoveItem(ctx, g.itemID, desired)
	if err != nil {
		return models.Position{}, false, err
	}
	return pos, true, nil
}

// PointerUp завершает жест захваченного указателя: Dragging → Idle.
func (c *Controller) PointerUp(pointerID int) bool {
	if c.state != Dragging || pointerID != c.active.pointerID {
		return false
	}
	c.release()
	return true
}

// CaptureLost завершает жест независимо от указателя.
func (c *Controller) CaptureLost() {
	if c.state == Dragging {
		c.release()
	}
}

// TapRotate поворачивает выделенный предмет. Жест не начинает и не меняет.
func (c *Controller) TapRotate(ctx context.Context, target Target, itemID string) (models.Rotation, bool, error) {
	if itemID == "" || itemID != c.selected {
		return 0, false, nil
	}
	r, err := target.RotateItem(ctx, itemID)
	if err != nil {
		return 0, false, err
	}
	return r, true, nil
}

// Forget сбрасывает выделение и жест, если предмет исчез.
func (c *Controller) Forget(itemID string) {
	if c.selected == itemID {
		c.selected = ""
	}
	if c.state == Dragging && c.active.itemID == itemID {
		c.release()
	}
}

func (c *Controller) release() {
	c.active = gesture{}
	c.state = Idle
}
