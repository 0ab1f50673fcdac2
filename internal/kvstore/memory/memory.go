// Package memory is an in-process kvstore.Store, optionally seeded from JSON
// files on disk.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fintrack/internal/kvstore"
)

type Store struct {
	mu     sync.Mutex
	values map[string]string
}

func New() *Store {
	return &Store{values: map[string]string{}}
}

// NewFromDir seeds the store with base/<key>.json for every persisted key.
// Missing or blank files are skipped.
func NewFromDir(base string) *Store {
	s := New()
	if base == "" {
		return s
	}
	for _, key := range kvstore.Keys {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(b)); v != "" {
			s.values[key] = v
		}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Len reports how many keys are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
