package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"room-planner/internal/planner/interaction"
	"room-planner/internal/planner/layout"
	"room-planner/internal/planner/models"
)

// ============================================================
// Canvas Sessions
// ============================================================

var ErrSessionNotFound = errors.New("canvas session not found")

// Canvas: состояние одного клиентского холста.
type Canvas struct {
	mu         sync.Mutex
	viewport   *layout.Viewport
	controller *interaction.Controller
}

// CanvasView клиент получает после каждого события.
type CanvasView struct {
	Token     string                `json:"token"`
	Ready     bool                  `json:"ready"`
	Transform *layout.ViewTransform `json:"transform,omitempty"`
	Viewport  layout.Viewport       `json:"viewport"`
	State     string                `json:"state"`
	Selected  string                `json:"selected,omitempty"`
	Dragging  string                `json:"dragging,omitempty"`
}

// DefaultCanvasIdle: сессия без запросов дольше этого срока удаляется.
const DefaultCanvasIdle = 30 * time.Minute

type canvasEntry struct {
	canvas   *Canvas
	lastSeen time.Time
}

type CanvasManager struct {
	mu       sync.Mutex
	canvases map[string]*canvasEntry // token -> canvas
	padding  float64
	idle     time.Duration
	now      func() time.Time
}

func NewCanvasManager(padding float64) *CanvasManager {
	return &CanvasManager{
		canvases: make(map[string]*canvasEntry),
		padding:  padding,
		idle:     DefaultCanvasIdle,
		now:      time.Now,
	}
}

// WithIdleTimeout задает срок жизни неактивной сессии; d <= 0 оставляет значение по умолчанию.
func (m *CanvasManager) WithIdleTimeout(d time.Duration) *CanvasManager {
	if d > 0 {
		m.idle = d
	}
	return m
}

// Issue заодно убирает просроченные сессии.
func (m *CanvasManager) Issue() (string, *Canvas) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()

	token := uuid.NewString()
	canvas := &Canvas{
		viewport:   layout.NewViewport(m.padding),
		controller: interaction.NewController(),
	}
	m.canvases[token] = &canvasEntry{canvas: canvas, lastSeen: m.now()}
	return token, canvas
}

// Resolve продлевает жизнь найденной сессии.
func (m *CanvasManager) Resolve(token string) (*Canvas, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.canvases[token]
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(entry.lastSeen) > m.idle {
		delete(m.canvases, token)
		return nil, false
	}
	entry.lastSeen = now
	return entry.canvas, true
}

func (m *CanvasManager) Close(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.canvases[token]; !ok {
		return false
	}
	delete(m.canvases, token)
	return true
}

// Sweep удаляет просроченные сессии и возвращает их число.
func (m *CanvasManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep()
}

func (m *CanvasManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.canvases)
}

// sweep вызывается под m.mu.
func (m *CanvasManager) sweep() int {
	now := m.now()
	removed := 0
	for token, entry := range m.canvases {
		if now.Sub(entry.lastSeen) > m.idle {
			delete(m.canvases, token)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[CANVAS] Dropped %d idle sessions", removed)
	}
	return removed
}

// ============================================================
// Canvas operations
// ============================================================

// Resize фиксирует реальный размер контейнера; трансформ пересчитается.
func (c *Canvas) Resize(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.Resize(width, height)
}

// PointerDown по предмету начинает перетаскивание; пустой itemID означает нажатие по холсту.
func (c *Canvas) PointerDown(p *Planner, itemID string, pointerID int, at interaction.Point) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if itemID == "" {
		c.controller.CanvasPointerDown()
		return false, nil
	}

	t, ok := c.transform(p)
	if !ok {
		return false, nil
	}
	return c.controller.PointerDown(p, itemID, pointerID, at, t), nil
}

// PointerMove двигает захваченный предмет. Если предмет исчез, жест отпускается.
func (c *Canvas) PointerMove(ctx context.Context, p *Planner, pointerID int, at interaction.Point) (models.Position, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, moved, err := c.controller.PointerMove(ctx, p, pointerID, at)
	if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrNoRoom) {
		log.Printf("[CANVAS] drag target vanished, releasing capture")
		c.controller.CaptureLost()
	}
	return pos, moved, err
}

func (c *Canvas) PointerUp(pointerID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller.PointerUp(pointerID)
}

func (c *Canvas) CaptureLost() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller.CaptureLost()
}

func (c *Canvas) Rotate(ctx context.Context, p *Planner, itemID string) (models.Rotation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok, err := c.controller.TapRotate(ctx, p, itemID)
	if errors.Is(err, ErrItemNotFound) {
		c.controller.Forget(itemID)
	}
	return r, ok, err
}

// View собирает снимок состояния холста для клиента.
func (c *Canvas) View(p *Planner, token string) CanvasView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := CanvasView{
		Token:    token,
		Viewport: *c.viewport,
		State:    c.controller.State().String(),
		Selected: c.controller.Selected(),
	}
	if id, ok := c.controller.DraggingItem(); ok {
		view.Dragging = id
	}
	if t, ok := c.transform(p); ok {
		view.Ready = true
		view.Transform = &t
	}
	return view
}

// transform вызывается под c.mu.
func (c *Canvas) transform(p *Planner) (layout.ViewTransform, bool) {
	room, ok := p.Room()
	if !ok {
		return layout.ViewTransform{}, false
	}
	return c.viewport.Transform(room.Width, room.Depth)
}
