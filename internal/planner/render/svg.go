package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"room-planner/internal/planner/models"
)

// ============================================================
// Renderer
// ============================================================

const (
	// GridStep: шаг сетки пола, см.
	GridStep = 20.0

	// unitsPerCM: svgo рисует в целых, поэтому внутри SVG координаты в миллиметрах.
	unitsPerCM = 10
)

type Renderer struct {
	grid bool
}

func NewRenderer() *Renderer {
	return &Renderer{grid: true}
}

// WithoutGrid отключает сетку пола.
func (r *Renderer) WithoutGrid() *Renderer {
	r.grid = false
	return r
}

// Render собирает SVG плана комнаты. Внешний размер в сантиметрах, viewBox в миллиметрах.
func (r *Renderer) Render(room *models.Room) (string, error) {
	if room == nil {
		return "", fmt.Errorf("room is nil")
	}
	if err := room.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)

	w, d := mm(room.Width), mm(room.Depth)
	canvas.Startview(int(math.Ceil(room.Width)), int(math.Ceil(room.Depth)), 0, 0, w, d)

	r.renderFloor(canvas, room, w, d)
	if r.grid {
		r.renderGrid(canvas, room, w, d)
	}
	r.renderItems(canvas, room)

	canvas.End()
	return buf.String(), nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderFloor(canvas *svg.SVG, room *models.Room, w, d int) {
	canvas.Rect(0, 0, w, d, attr("id", "room-"+room.ID), "fill:#ffffff;stroke:#cbd5e1;stroke-width:20")
}

func (r *Renderer) renderGrid(canvas *svg.SVG, room *models.Room, w, d int) {
	const style = "stroke:#000;stroke-opacity:0.05;stroke-width:5"

	for x := GridStep; x < room.Width; x += GridStep {
		canvas.Line(mm(x), 0, mm(x), d, style)
	}
	for y := GridStep; y < room.Depth; y += GridStep {
		canvas.Line(0, mm(y), w, mm(y), style)
	}
}

// renderItems рисует предметы в порядке списка; поворот вокруг центра только визуальный.
func (r *Renderer) renderItems(canvas *svg.SVG, room *models.Room) {
	for _, item := range room.Items {
		x, y := mm(item.Position.X), mm(item.Position.Y)
		w, d := mm(item.Dimensions.Width), mm(item.Dimensions.Depth)
		cx, cy := x+w/2, y+d/2

		group := []string{attr("id", item.ID), attr("data-type", string(item.Type))}
		if item.Rotation != models.Rotation0 {
			group = append(group, attr("transform", fmt.Sprintf("rotate(%d %d %d)", int(item.Rotation), cx, cy)))
		}

		canvas.Group(group...)
		canvas.Roundrect(x, y, w, d, 40, 40, "fill:#ffffff;stroke:#94a3b8;stroke-width:10")
		canvas.Text(cx, cy, item.Name, fmt.Sprintf(
			"font-size:%dpx;text-anchor:middle;dominant-baseline:middle;fill:#334155",
			labelSize(w, d)))
		canvas.Gend()
	}
}

// ============================================================
// Formatting helpers
// ============================================================

func mm(cm float64) int {
	return int(math.Round(cm * unitsPerCM))
}

func labelSize(w, d int) int {
	size := d / 4
	if w < d {
		size = w / 4
	}
	return clamp(size, 60, 140)
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// attr собирает атрибут name="value"; svgo пишет такие строки как есть.
func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}
