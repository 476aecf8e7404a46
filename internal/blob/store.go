// Package blob is the boundary to raw file storage. The real deployment
// target is an object store; this package keeps only the contract plus the
// two local implementations the service and its tests need.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"trustbridge/pkg/platform/sentinel"
)

// Store puts and gets opaque document bytes by handle.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Memory holds blobs in a map. Used by tests and the zero-config dev mode.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (s *Memory) Put(_ context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[key] = copied
	return key, nil
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Local stores blobs as files under a directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (s *Local) Put(_ context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return key, nil
}

func (s *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}
