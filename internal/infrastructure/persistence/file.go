package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/cart"
)

// FileStore keeps the cart snapshot in a single JSON file
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger logrus.FieldLogger
}

// NewFileStore creates a file-backed store
func NewFileStore(path string, logger logrus.FieldLogger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Save writes to a temporary file and renames it over the snapshot so a crash
// never leaves a half-written file behind.
func (s *FileStore) Save(ctx context.Context, c cart.Cart) error {
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace cart snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) cart.Cart {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		return cart.Cart{}
	}
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("failed to read cart snapshot")
		return cart.Cart{}
	}

	c, err := decode(data)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("discarding corrupt cart snapshot")
		return cart.Cart{}
	}
	return c
}
