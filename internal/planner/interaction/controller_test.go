package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-planner/internal/planner/layout"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
)

// engineTarget подключает контроллер напрямую к Placement Engine.
type engineTarget struct {
	engine *placement.Engine
	moves  int
}

func (t *engineTarget) ItemPosition(id string) (models.Position, bool) {
	item, ok := t.engine.Room().Item(id)
	return item.Position, ok
}

func (t *engineTarget) MoveItem(_ context.Context, id string, p models.Position) (models.Position, error) {
	t.moves++
	pos, ok := t.engine.Move(id, p)
	if !ok {
		return models.Position{}, errors.New("not found")
	}
	return pos, nil
}

func (t *engineTarget) RotateItem(_ context.Context, id string) (models.Rotation, error) {
	r, ok := t.engine.Rotate(id)
	if !ok {
		return 0, errors.New("not found")
	}
	return r, nil
}

func newTarget() *engineTarget {
	room := &models.Room{
		ID: "r", Width: 400, Depth: 500,
		Items: []models.FurnitureItem{
			{ID: "a", Dimensions: models.Dimensions{Width: 60, Depth: 60, Height: 60}, Position: models.Position{X: 100, Y: 100}},
			{ID: "b", Dimensions: models.Dimensions{Width: 80, Depth: 40, Height: 60}, Position: models.Position{X: 200, Y: 300}},
		},
	}
	return &engineTarget{engine: placement.New(room)}
}

var half = layout.ViewTransform{Scale: 0.5, OffsetX: 20, OffsetY: 30}

func TestDragLifecycle(t *testing.T) {
	ctx := context.Background()
	target := newTarget()
	c := NewController()
	require.Equal(t, Idle, c.State())

	require.True(t, c.PointerDown(target, "a", 1, Point{X: 100, Y: 100}, half))
	assert.Equal(t, Dragging, c.State())
	assert.Equal(t, "a", c.Selected())

	pos, moved, err := c.PointerMove(ctx, target, 1, Point{X: 110, Y: 90})
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, models.Position{X: 120, Y: 80}, pos)

	assert.True(t, c.PointerUp(1))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "a", c.Selected())

	_, moved, _ = c.PointerMove(ctx, target, 1, Point{X: 500, Y: 500})
	assert.False(t, moved)
}

func TestDragIsOrderIndependent(t *testing.T) {
	ctx := context.Background()

	steps := newTarget()
	c := NewController()
	c.PointerDown(steps, "a", 7, Point{X: 0, Y: 0}, half)
	c.PointerMove(ctx, steps, 7, Point{X: 40, Y: -500})
	c.PointerMove(ctx, steps, 7, Point{X: 90, Y: -20})
	last, _, err := c.PointerMove(ctx, steps, 7, Point{X: 150, Y: 60})
	require.NoError(t, err)

	single := newTarget()
	c2 := NewController()
	c2.PointerDown(single, "a", 7, Point{X: 0, Y: 0}, half)
	once, _, err := c2.PointerMove(ctx, single, 7, Point{X: 150, Y: 60})
	require.NoError(t, err)

	assert.Equal(t, once, last)
	assert.Equal(t, models.Position{X: 340, Y: 220}, last)
}

func TestDragClampsAgainstStartNotLastFrame(t *testing.T) {
	ctx := context.Background()
	target := newTarget()
	c := NewController()
	c.PointerDown(target, "a", 1, Point{}, layout.ViewTransform{Scale: 1})

	pos, _, _ := c.PointerMove(ctx, target, 1, Point{X: -500})
	assert.Equal(t, 0.0, pos.X)

	// Вернулись назад: позиция восстанавливается относительно начала жеста.
	pos, _, _ = c.PointerMove(ctx, target, 1, Point{X: 10})
	assert.Equal(t, 110.0, pos.X)
}

func TestReentrantPointerDownIgnored(t *testing.T) {
	ctx := context.Background()
	target := newTarget()
	c := NewController()

	require.True(t, c.PointerDown(target, "a", 1, Point{}, half))
	assert.False(t, c.PointerDown(target, "b", 2, Point{}, half))
	id, ok := c.DraggingItem()
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, moved, _ := c.PointerMove(ctx, target, 2, Point{X: 10, Y: 10})
	assert.False(t, moved)
	assert.False(t, c.PointerUp(2))
	assert.Equal(t, Dragging, c.State())

	c.CaptureLost()
	assert.Equal(t, Idle, c.State())
	assert.True(t, c.PointerDown(target, "b", 2, Point{}, half))
}

func TestPointerDownRejectsUnknownItemOrDeferredTransform(t *testing.T) {
	target := newTarget()
	c := NewController()
	assert.False(t, c.PointerDown(target, "ghost", 1, Point{}, half))
	assert.False(t, c.PointerDown(target, "a", 1, Point{}, layout.ViewTransform{}))
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, c.Selected())
}

func TestSelectionClearedByCanvasPointerDown(t *testing.T) {
	target := newTarget()
	c := NewController()
	c.PointerDown(target, "a", 1, Point{}, half)

	c.CanvasPointerDown()
	assert.Equal(t, "a", c.Selected(), "selection is kept while dragging")

	c.PointerUp(1)
	c.CanvasPointerDown()
	assert.Empty(t, c.Selected())
}

func TestTapRotateOnlyForSelected(t *testing.T) {
	ctx := context.Background()
	target := newTarget()
	c := NewController()

	_, ok, err := c.TapRotate(ctx, target, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	c.PointerDown(target, "a", 1, Point{}, half)
	c.PointerUp(1)
	moves := target.moves

	r, ok, err := c.TapRotate(ctx, target, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Rotation90, r)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, moves, target.moves)

	_, ok, _ = c.TapRotate(ctx, target, "b")
	assert.False(t, ok)
}

func TestForgetRemovedItem(t *testing.T) {
	target := newTarget()
	c := NewController()
	c.PointerDown(target, "a", 1, Point{}, half)

	c.Forget("a")
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, c.Selected())
}
