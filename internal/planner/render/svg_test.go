package render

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-planner/internal/planner/models"
)

func TestRenderRoom(t *testing.T) {
	room := &models.Room{
		ID: "r1", Name: "My Room", Width: 400, Depth: 500,
		Items: []models.FurnitureItem{
			{ID: "sofa", Name: "Sofa <big>", Type: models.Sofa, Dimensions: models.Dimensions{Width: 200, Depth: 90, Height: 80}, Position: models.Position{X: 10, Y: 20}, Rotation: models.Rotation90},
			{ID: "lamp", Name: "Lamp", Type: models.Other, Dimensions: models.Dimensions{Width: 30, Depth: 30, Height: 150}, Position: models.Position{X: 0, Y: 0}},
		},
	}

	svg, err := NewRenderer().WithoutGrid().Render(room)
	require.NoError(t, err)

	assert.Contains(t, svg, `viewBox="0 0 4000 5000"`)
	assert.Contains(t, svg, `id="sofa" data-type="Sofa" transform="rotate(90 1100 650)"`)
	assert.Contains(t, svg, `id="lamp" data-type="Other"`)
	assert.Equal(t, 1, strings.Count(svg, "transform="))
	assert.Contains(t, svg, `Sofa &lt;big&gt;`)
	assert.NotContains(t, svg, "<line")
	assert.Less(t, strings.Index(svg, `id="sofa"`), strings.Index(svg, `id="lamp"`))

	// Результат должен быть корректным XML.
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		if _, err := dec.Token(); err != nil {
			require.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestRenderGrid(t *testing.T) {
	svg, err := NewRenderer().Render(&models.Room{ID: "r", Width: 100, Depth: 60})
	require.NoError(t, err)
	assert.Equal(t, 4+2, strings.Count(svg, "<line"))
}

func TestRenderRejectsInvalidRoom(t *testing.T) {
	_, err := NewRenderer().Render(nil)
	assert.Error(t, err)
	_, err = NewRenderer().Render(&models.Room{Width: 0, Depth: 10})
	assert.ErrorIs(t, err, models.ErrInvalidRoom)
}
