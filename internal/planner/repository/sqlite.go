package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"room-planner/internal/planner/models"
)

// ============================================================
// SQLite Repository
// ============================================================

// Repository хранит один снимок активной комнаты.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Save перезаписывает снимок целиком в одной транзакции.
func (r *Repository) Save(ctx context.Context, room *models.Room) (err error) {
	if room == nil {
		return fmt.Errorf("save: nil room")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM furniture_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("clear rooms: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO rooms (id, name, width, depth, image_url, updated_at)
        VALUES (?, ?, ?, ?, ?, datetime('now'))
    `, room.ID, room.Name, room.Width, room.Depth, room.ImageURL)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO furniture_items (room_id, seq, id, name, type, width, depth, height, x, y, rotation, image_url)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range room.Items {
		_, err = stmt.ExecContext(ctx,
			room.ID, i, item.ID, item.Name, string(item.Type),
			item.Dimensions.Width, item.Dimensions.Depth, item.Dimensions.Height,
			item.Position.X, item.Position.Y, int(item.Rotation), item.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("insert item %q: %w", item.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load возвращает последний снимок или (nil, nil), если сохранений нет.
func (r *Repository) Load(ctx context.Context) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, width, depth, image_url
        FROM rooms
        ORDER BY updated_at DESC
        LIMIT 1
    `)

	var room models.Room
	if err := row.Scan(&room.ID, &room.Name, &room.Width, &room.Depth, &room.ImageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, type, width, depth, height, x, y, rotation, image_url
        FROM furniture_items
        WHERE room_id = ?
        ORDER BY seq
    `, room.ID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	room.Items = []models.FurnitureItem{}
	for rows.Next() {
		var (
			item     models.FurnitureItem
			kind     string
			rotation int
		)
		if err := rows.Scan(&item.ID, &item.Name, &kind,
			&item.Dimensions.Width, &item.Dimensions.Depth, &item.Dimensions.Height,
			&item.Position.X, &item.Position.Y, &rotation, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Type = models.ParseFurnitureType(kind)
		item.Rotation = models.NormalizeRotation(float64(rotation))
		room.Items = append(room.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return &room, nil
}

// Clear удаляет все сохраненное состояние.
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM furniture_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("clear rooms: %w", err)
	}
	return nil
}

// Ping проверяет соединение для readiness-пробы.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
