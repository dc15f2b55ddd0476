// Package memory provides in-memory repositories used when no database is
// configured and as fakes in tests.
package memory

import (
	"context"
	"sync"

	"optovik-store/repository"
)

// SettingsStore keeps site settings in a map.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
	// Err, when set, is returned by every call. Tests use it to simulate outages.
	Err error
}

var _ repository.SettingsRepositoryInterface = (*SettingsStore)(nil)

// NewSettingsStore returns a store seeded with the given values.
func NewSettingsStore(seed map[string]string) *SettingsStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &SettingsStore{values: values}
}

// GetAll implements the repository interface.
func (s *SettingsStore) GetAll(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// Set implements the repository interface.
func (s *SettingsStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.values[key] = value
	return nil
}

// SetErr swaps the simulated failure.
func (s *SettingsStore) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}
