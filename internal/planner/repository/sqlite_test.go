package repository

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-planner/internal/planner/models"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background(), filepath.Join("..", "..", "..", "migrations", "001_init_planner.sql")))
	return repo
}

func sampleRoom() *models.Room {
	return &models.Room{
		ID:       "room-1",
		Name:     "My Room",
		Width:    400,
		Depth:    500,
		ImageURL: "/api/v1/room/image",
		Items: []models.FurnitureItem{
			{ID: "b", Name: "Sofa", Type: models.Sofa, Dimensions: models.Dimensions{Width: 200, Depth: 90, Height: 80}, Position: models.Position{X: 12.5, Y: 40}, Rotation: models.Rotation270},
			{ID: "a", Name: "Lamp", Type: models.Other, Dimensions: models.Dimensions{Width: 30, Depth: 30, Height: 160}, Position: models.Position{X: 0, Y: 0}, ImageURL: "/api/v1/room/items/a/image"},
		},
	}
}

func TestLoadEmpty(t *testing.T) {
	repo := openTestRepo(t)
	room, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestSaveLoadRoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	require.NoError(t, repo.Save(ctx, sampleRoom()))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRoom(), got)
}

func TestSaveReplacesWholeSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	require.NoError(t, repo.Save(ctx, sampleRoom()))

	next := &models.Room{ID: "room-2", Name: "Study", Width: 300, Depth: 300}
	require.NoError(t, repo.Save(ctx, next))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "room-2", got.ID)
	assert.NotNil(t, got.Items, "missing item list defaults to empty")
	assert.Empty(t, got.Items)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	require.NoError(t, repo.Save(ctx, sampleRoom()))

	require.NoError(t, repo.Clear(ctx))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, repo.Ping(ctx))
}
