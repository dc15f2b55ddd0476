package memory

import (
	"context"
	"sync"

	"optovik-store/models"
	"optovik-store/repository"
)

// AuditLogStore keeps audit entries in memory.
type AuditLogStore struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	// Err, when set, is returned by Append.
	Err error
}

var _ repository.AuditLogRepositoryInterface = (*AuditLogStore)(nil)

// NewAuditLogStore returns an empty store.
func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{}
}

// Append implements the repository interface.
func (s *AuditLogStore) Append(_ context.Context, entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	entry.ID = int64(len(s.entries) + 1)
	entry.CreatedAt = timestamp()
	s.entries = append(s.entries, *entry)
	return nil
}

// List implements the repository interface.
func (s *AuditLogStore) List(_ context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := []models.AuditLogEntry{}
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if filter.Action != "" && s.entries[i].Action != filter.Action {
			continue
		}
		out = append(out, s.entries[i])
	}
	return out, nil
}
