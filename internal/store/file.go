package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/telshop/storefront/internal/domain"
)

// FileStore keeps the snapshot as a single JSON file on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(context.Context) (*domain.Cart, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.EmptyCart(), nil
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	return decodeSnapshot(data), nil
}

func (s *FileStore) Save(_ context.Context, cart *domain.Cart) error {
	data, err := encodeSnapshot(cart)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cart snapshot: %w", err)
	}
	return nil
}
