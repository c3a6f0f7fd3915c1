package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFurnitureType(t *testing.T) {
	tests := []struct {
		in   string
		want FurnitureType
	}{
		{"Chair", Chair},
		{"sofa", Sofa},
		{"  BED ", Bed},
		{"Cabinet", Cabinet},
		{"lamp", Other},
		{"", Other},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFurnitureType(tt.in), tt.in)
	}
}

func TestRotationCycle(t *testing.T) {
	r := Rotation0
	seen := []Rotation{}
	for i := 0; i < 4; i++ {
		r = r.Next()
		require.True(t, r.Valid())
		seen = append(seen, r)
	}
	assert.Equal(t, []Rotation{Rotation90, Rotation180, Rotation270, Rotation0}, seen)
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   float64
		want Rotation
	}{
		{0, Rotation0},
		{90, Rotation90},
		{180, Rotation180},
		{270, Rotation270},
		{45, Rotation0},
		{360, Rotation0},
		{-90, Rotation0},
		{90.5, Rotation0},
		{math.NaN(), Rotation0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRotation(tt.in), "%v", tt.in)
	}
}

func TestRoomValidate(t *testing.T) {
	item := FurnitureItem{
		ID:         "a",
		Name:       "Chair",
		Type:       Chair,
		Dimensions: Dimensions{Width: 60, Depth: 60, Height: 90},
		Position:   Position{X: 340, Y: 0},
	}
	room := &Room{ID: "r", Width: 400, Depth: 500, Items: []FurnitureItem{item}}
	require.NoError(t, room.Validate())

	bad := room.Clone()
	bad.Items[0].Position.X = 341
	assert.ErrorIs(t, bad.Validate(), ErrInvalidItem)

	dup := room.Clone()
	dup.Items = append(dup.Items, item)
	assert.ErrorIs(t, dup.Validate(), ErrInvalidRoom)

	flat := room.Clone()
	flat.Depth = 0
	assert.ErrorIs(t, flat.Validate(), ErrInvalidRoom)

	rot := room.Clone()
	rot.Items[0].Rotation = 45
	assert.ErrorIs(t, rot.Validate(), ErrInvalidItem)
}

func TestRoomCloneIsDeep(t *testing.T) {
	room := &Room{Width: 400, Depth: 500, Items: []FurnitureItem{{ID: "a"}}}
	clone := room.Clone()
	clone.Items[0].Position.X = 10

	assert.Zero(t, room.Items[0].Position.X)
	assert.Equal(t, 0, room.Index("a"))
	assert.Equal(t, -1, room.Index("missing"))
}

func TestMaxPositionPinsOversizedItems(t *testing.T) {
	room := &Room{Width: 100, Depth: 100}
	x, y := room.MaxPosition(Dimensions{Width: 150, Depth: 40})
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 60.0, y)
}
