package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// Image Storage
// ============================================================

// imageExt: формат не фиксирован, тип определяется по содержимому при отдаче.
const imageExt = ".img"

// ImageStorage хранит опорные снимки комнаты и мебели на диске.
type ImageStorage struct {
	root string
}

func NewImageStorage(root string) *ImageStorage {
	return &ImageStorage{root: root}
}

func (s *ImageStorage) RoomDir(roomID string) string {
	return filepath.Join(s.root, safeName(roomID))
}

func (s *ImageStorage) RoomImagePath(roomID string) string {
	return filepath.Join(s.RoomDir(roomID), "room"+imageExt)
}

func (s *ImageStorage) ItemsDir(roomID string) string {
	return filepath.Join(s.RoomDir(roomID), "items")
}

func (s *ImageStorage) ItemImagePath(roomID, itemID string) string {
	return filepath.Join(s.ItemsDir(roomID), safeName(itemID)+imageExt)
}

func (s *ImageStorage) SaveRoomImage(roomID string, data []byte) (string, error) {
	path := s.RoomImagePath(roomID)
	return path, s.saveFile(path, data)
}

func (s *ImageStorage) SaveItemImage(roomID, itemID string, data []byte) (string, error) {
	path := s.ItemImagePath(roomID, itemID)
	return path, s.saveFile(path, data)
}

func (s *ImageStorage) RemoveItemImage(roomID, itemID string) error {
	err := os.Remove(s.ItemImagePath(roomID, itemID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove item image: %w", err)
	}
	return nil
}

// RemoveRoom удаляет все снимки комнаты.
func (s *ImageStorage) RemoveRoom(roomID string) error {
	if roomID == "" {
		return nil
	}
	if err := os.RemoveAll(s.RoomDir(roomID)); err != nil {
		return fmt.Errorf("remove room images: %w", err)
	}
	return nil
}

// Wipe удаляет все хранилище.
func (s *ImageStorage) Wipe() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("wipe images: %w", err)
	}
	return nil
}

func (s *ImageStorage) saveFile(target string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir image dir: %w", err)
	}
	return os.WriteFile(target, data, 0o644)
}

// safeName не дает id выйти за пределы каталога.
func safeName(id string) string {
	id = filepath.Base(id)
	return strings.NewReplacer("..", "_", string(filepath.Separator), "_").Replace(id)
}
