package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
	"room-planner/internal/planner/suggest"
)

// ============================================================
// Planner
// ============================================================

const (
	DefaultRoomName = "My Room"

	RoomImageURL     = "/api/v1/room/image"
	itemImageURLTmpl = "/api/v1/room/items/%s/image"
)

var (
	ErrNoRoom       = errors.New("no active room")
	ErrItemNotFound = errors.New("item not found")
	ErrNoItems      = errors.New("room has no items")
	ErrScanFailed   = errors.New("image scan failed")
)

// Sink получает полный снимок на каждое изменение; побеждает последний.
type Sink interface {
	Save(ctx context.Context, room *models.Room) error
	Load(ctx context.Context) (*models.Room, error)
	Clear(ctx context.Context) error
}

// Planner владеет единственной активной комнатой.
// Любая мутация выполняется над копией, сохраняется и только потом публикуется.
type Planner struct {
	mu         sync.Mutex
	room       *models.Room
	sink       Sink
	provider   suggest.Provider
	reconciler *suggest.Reconciler
	images     *ImageStorage
	newID      func() string
}

func NewPlanner(sink Sink, provider suggest.Provider, images *ImageStorage) *Planner {
	return &Planner{
		sink:       sink,
		provider:   provider,
		reconciler: suggest.NewReconciler(provider),
		images:     images,
		newID:      uuid.NewString,
	}
}

// Start поднимает сохраненную комнату, если она есть.
func (p *Planner) Start(ctx context.Context) error {
	room, err := p.sink.Load(ctx)
	if err != nil {
		return fmt.Errorf("load room: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if room == nil {
		log.Printf("[PLANNER] No saved room, starting empty")
		return nil
	}
	if room.Items == nil {
		room.Items = []models.FurnitureItem{}
	}
	if err := room.Validate(); err != nil {
		// Снимок из старой версии: подтягиваем предметы в границы вместо отказа.
		log.Printf("[PLANNER] Saved room needs repair: %v", err)
		repairRoom(room)
	}
	p.room = room
	log.Printf("[PLANNER] Loaded room %s (%gx%g cm, %d items)", room.ID, room.Width, room.Depth, len(room.Items))
	return nil
}

// Room возвращает копию активной комнаты.
func (p *Planner) Room() (*models.Room, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.room == nil {
		return nil, false
	}
	return p.room.Clone(), true
}

// ============================================================
// Room lifecycle
// ============================================================

// CreateRoom заменяет активную комнату новой пустой.
func (p *Planner) CreateRoom(ctx context.Context, name string, width, depth float64) (*models.Room, error) {
	room := p.newRoom(name, width, depth)
	if err := room.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.replace(ctx, room); err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

// ScanRoom создает комнату по снимку. При ошибке провайдера ничего не создается.
func (p *Planner) ScanRoom(ctx context.Context, img suggest.Image) (*models.Room, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrScanFailed)
	}
	scan, err := p.provider.ScanRoomImage(ctx, img)
	if err != nil {
		log.Printf("[AI] scan room error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	width, depth := scan.Extents()
	room := p.newRoom("", width, depth)
	if len(img.Data) > 0 && p.images != nil {
		if _, err := p.images.SaveRoomImage(room.ID, img.Data); err != nil {
			log.Printf("[PLANNER] save room image error: %v", err)
		} else {
			room.ImageURL = RoomImageURL
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.replace(ctx, room); err != nil {
		if p.images != nil {
			p.images.RemoveRoom(room.ID)
		}
		return nil, err
	}
	return room.Clone(), nil
}

// Reset стирает сохраненное состояние, снимки и комнату в памяти.
func (p *Planner) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.sink.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	if p.images != nil {
		if err := p.images.Wipe(); err != nil {
			log.Printf("[PLANNER] wipe images error: %v", err)
		}
	}
	p.room = nil
	log.Printf("[PLANNER] Reset to initial state")
	return nil
}

// ============================================================
// Furniture
// ============================================================

// AddItem добавляет предмет с новым id в центр комнаты со сдвигом.
func (p *Planner) AddItem(ctx context.Context, item models.FurnitureItem) (models.FurnitureItem, error) {
	item.ID = p.newID()
	if !item.Type.Valid() {
		item.Type = models.ParseFurnitureType(string(item.Type))
	}
	if err := item.Dimensions.Validate(); err != nil {
		return models.FurnitureItem{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.TrimSpace(item.Name) == "" && p.room != nil {
		item.Name = fmt.Sprintf("Furniture %d", len(p.room.Items)+1)
	}

	var added models.FurnitureItem
	err := p.mutate(ctx, func(e *placement.Engine) error {
		added = e.Add(item)
		return nil
	})
	return added, err
}

// ScanItem распознает предмет по снимку и добавляет его.
func (p *Planner) ScanItem(ctx context.Context, img suggest.Image) (models.FurnitureItem, error) {
	p.mu.Lock()
	if p.room == nil {
		p.mu.Unlock()
		return models.FurnitureItem{}, ErrNoRoom
	}
	roomID, ordinal := p.room.ID, len(p.room.Items)+1
	p.mu.Unlock()

	if p.provider == nil {
		return models.FurnitureItem{}, fmt.Errorf("%w: no provider configured", ErrScanFailed)
	}
	scan, err := p.provider.ScanFurnitureImage(ctx, img)
	if err != nil {
		log.Printf("[AI] scan furniture error: %v", err)
		return models.FurnitureItem{}, fmt.Errorf("%w: %v", ErrScanFailed, err)
	}

	item := scan.Item(ordinal)
	item.ID = p.newID()
	if len(img.Data) > 0 && p.images != nil {
		if _, err := p.images.SaveItemImage(roomID, item.ID, img.Data); err != nil {
			log.Printf("[PLANNER] save item image error: %v", err)
		} else {
			item.ImageURL = fmt.Sprintf(itemImageURLTmpl, item.ID)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Комнату могли заменить, пока шел скан.
	if p.room == nil || p.room.ID != roomID {
		if p.images != nil {
			p.images.RemoveItemImage(roomID, item.ID)
		}
		return models.FurnitureItem{}, ErrNoRoom
	}

	var added models.FurnitureItem
	err = p.mutate(ctx, func(e *placement.Engine) error {
		added = e.Add(item)
		return nil
	})
	return added, err
}

// ItemPosition реализует interaction.Target.
func (p *Planner) ItemPosition(id string) (models.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.room == nil {
		return models.Position{}, false
	}
	item, ok := p.room.Item(id)
	return item.Position, ok
}

func (p *Planner) MoveItem(ctx context.Context, id string, desired models.Position) (models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pos models.Position
	err := p.mutate(ctx, func(e *placement.Engine) error {
		var ok bool
		if pos, ok = e.Move(id, desired); !ok {
			return ErrItemNotFound
		}
		return nil
	})
	return pos, err
}

func (p *Planner) RotateItem(ctx context.Context, id string) (models.Rotation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var r models.Rotation
	err := p.mutate(ctx, func(e *placement.Engine) error {
		var ok bool
		if r, ok = e.Rotate(id); !ok {
			return ErrItemNotFound
		}
		return nil
	})
	return r, err
}

// RemoveItem удаляет предмет. Подтверждение пользователя проверяет вызывающий.
func (p *Planner) RemoveItem(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.mutate(ctx, func(e *placement.Engine) error {
		if !e.Remove(id) {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	if p.images != nil {
		if err := p.images.RemoveItemImage(p.room.ID, id); err != nil {
			log.Printf("[PLANNER] %v", err)
		}
	}
	return nil
}

// ============================================================
// Arrangement
// ============================================================

// Arrange просит провайдера расставить мебель. Запрос идет без блокировки,
// результат накладывается на текущее состояние; при любой ошибке комната не меняется.
func (p *Planner) Arrange(ctx context.Context) (int, error) {
	snapshot, ok := p.Room()
	if !ok {
		return 0, ErrNoRoom
	}
	if len(snapshot.Items) == 0 {
		return 0, ErrNoItems
	}

	arr, err := p.reconciler.Propose(ctx, snapshot)
	if err != nil {
		return 0, err
	}
	return p.applyArrangement(ctx, arr)
}

// ApplyArrangement принимает сырую расстановку от внешнего источника.
func (p *Planner) ApplyArrangement(ctx context.Context, raw []byte) (int, error) {
	arr, err := suggest.Decode(raw)
	if err != nil {
		return 0, err
	}
	return p.applyArrangement(ctx, arr)
}

func (p *Planner) applyArrangement(ctx context.Context, arr placement.Arrangement) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var updated int
	err := p.mutate(ctx, func(e *placement.Engine) error {
		n, err := e.ApplyBulk(arr)
		if err != nil {
			return fmt.Errorf("%w: %v", suggest.ErrArrangementUnavailable, err)
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[PLANNER] Applied arrangement: %d of %d entries matched", updated, len(arr))
	return updated, nil
}

// ============================================================
// Helpers
// ============================================================

// mutate выполняет fn над копией комнаты, сохраняет и публикует её.
// Вызывается под p.mu.
func (p *Planner) mutate(ctx context.Context, fn func(e *placement.Engine) error) error {
	if p.room == nil {
		return ErrNoRoom
	}

	next := p.room.Clone()
	if err := fn(placement.New(next)); err != nil {
		return err
	}
	if err := p.sink.Save(ctx, next); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	p.room = next
	return nil
}

// replace сохраняет новую комнату и снимает старые снимки. Вызывается под p.mu.
func (p *Planner) replace(ctx context.Context, room *models.Room) error {
	if err := p.sink.Save(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	if p.room != nil && p.room.ID != room.ID && p.images != nil {
		if err := p.images.RemoveRoom(p.room.ID); err != nil {
			log.Printf("[PLANNER] %v", err)
		}
	}
	p.room = room.Clone()
	log.Printf("[PLANNER] Active room %s (%gx%g cm)", room.ID, room.Width, room.Depth)
	return nil
}

func (p *Planner) newRoom(name string, width, depth float64) *models.Room {
	if strings.TrimSpace(name) == "" {
		name = DefaultRoomName
	}
	return &models.Room{
		ID:    p.newID(),
		Name:  name,
		Width: width,
		Depth: depth,
		Items: []models.FurnitureItem{},
	}
}

// repairRoom возвращает загруженный снимок в допустимое состояние.
func repairRoom(room *models.Room) {
	if !(room.Width > 0) {
		room.Width = suggest.DefaultRoomWidth
	}
	if !(room.Depth > 0) {
		room.Depth = suggest.DefaultRoomDepth
	}

	seen := make(map[string]struct{}, len(room.Items))
	items := room.Items[:0]
	for _, item := range room.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		if item.Dimensions.Validate() != nil {
			continue
		}
		if !item.Rotation.Valid() {
			item.Rotation = models.Rotation0
		}
		item.Position = placement.Clamp(room, item.Dimensions, item.Position)
		items = append(items, item)
	}
	room.Items = items
}
