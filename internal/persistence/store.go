package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"

	"baerhub/internal/config"
	"baerhub/internal/core"
)

// Store keeps the client's session and preferences in a pebble database under the data
// directory.
type Store struct {
	Config *config.Config

	mu sync.RWMutex
	db *pebble.DB
}

// NewMemory returns an open store backed by an in-memory filesystem.
func NewMemory() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	s := &Store{Config: &config.Config{DataDir: dir}}
	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Init(_ context.Context) error {
	if s.Config == nil || s.Config.DataDir == "" {
		return ErrNoDataDir
	}

	dir := filepath.Clean(s.Config.DataDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()

	return nil
}

func (s *Store) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotOpen
	}

	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrKeyNotFound, key)
		}
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer is closed.
	return append([]byte(nil), value...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return ErrNotOpen
	}

	return s.db.Set([]byte(key), value, pebble.Sync)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return ErrNotOpen
	}

	return s.db.Delete([]byte(key), pebble.Sync)
}
