package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"room-planner/internal/planner/models"
	"room-planner/internal/planner/placement"
)

// ============================================================
// Suggestion Reconciler
// ============================================================

// ErrArrangementUnavailable видит пользователь при любой неудаче расстановки:
// автоматическая расстановка не удалась, комната не изменена.
var ErrArrangementUnavailable = errors.New("arrangement unavailable")

type Reconciler struct {
	provider Provider
}

func NewReconciler(provider Provider) *Reconciler {
	return &Reconciler{provider: provider}
}

// Footprints собирает описание предметов для провайдера.
func Footprints(room *models.Room) []Footprint {
	out := make([]Footprint, 0, len(room.Items))
	for _, item := range room.Items {
		out = append(out, Footprint{
			ID:    item.ID,
			Name:  item.Name,
			Width: item.Dimensions.Width,
			Depth: item.Dimensions.Depth,
		})
	}
	return out
}

// Propose запрашивает расстановку и полностью проверяет её до передачи в Engine.
func (r *Reconciler) Propose(ctx context.Context, room *models.Room) (placement.Arrangement, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrArrangementUnavailable)
	}

	raw, err := r.provider.ProposeArrangement(ctx, room.Width, room.Depth, Footprints(room))
	if err != nil {
		log.Printf("[AI] propose arrangement error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrArrangementUnavailable, err)
	}

	arr, err := Decode(raw)
	if err != nil {
		log.Printf("[AI] rejected arrangement: %v", err)
		return nil, err
	}
	return arr, nil
}

// ============================================================
// Decoding
// ============================================================

// Decode разбирает недоверенный ответ. Либо вся расстановка корректна,
// либо возвращается ErrArrangementUnavailable и ничего не применяется.
func Decode(raw []byte) (placement.Arrangement, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: response is not an array", ErrArrangementUnavailable)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArrangementUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: response is empty", ErrArrangementUnavailable)
	}

	arr := make(placement.Arrangement, 0, len(records))
	for i, rec := range records {
		p, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrArrangementUnavailable, i, err)
		}
		arr = append(arr, p)
	}
	return arr, nil
}

func decodeRecord(rec json.RawMessage) (placement.Placement, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return placement.Placement{}, fmt.Errorf("not an object: %v", err)
	}
	if fields == nil {
		return placement.Placement{}, fmt.Errorf("not an object")
	}

	id, err := decodeID(fields["id"])
	if err != nil {
		return placement.Placement{}, err
	}
	x, err := requireNumber(fields, "x")
	if err != nil {
		return placement.Placement{}, err
	}
	y, err := requireNumber(fields, "y")
	if err != nil {
		return placement.Placement{}, err
	}

	var rotation float64
	if v, ok := fields["rotation"]; ok && v != nil {
		n, ok := v.(json.Number)
		if !ok {
			return placement.Placement{}, fmt.Errorf("rotation is not a number")
		}
		if rotation, err = n.Float64(); err != nil {
			return placement.Placement{}, fmt.Errorf("rotation: %v", err)
		}
	}

	return placement.Placement{ID: id, X: x, Y: y, Rotation: rotation}, nil
}

// decodeID принимает строку или число: провайдер иногда возвращает числовые id.
func decodeID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("empty id")
		}
		return id, nil
	case json.Number:
		f, err := id.Float64()
		if err != nil {
			return "", fmt.Errorf("id: %v", err)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("missing id")
	}
	return "", fmt.Errorf("id has unsupported type %T", v)
}

func requireNumber(fields map[string]any, key string) (float64, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return f, nil
}
