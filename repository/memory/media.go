package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"optovik-store/models"
	"optovik-store/repository"
)

// MediaStore keeps product media records in memory.
type MediaStore struct {
	mu     sync.Mutex
	items  map[int64]models.ProductMedia
	nextID int64
}

var _ repository.MediaRepositoryInterface = (*MediaStore)(nil)

// NewMediaStore returns an empty store.
func NewMediaStore() *MediaStore {
	return &MediaStore{items: make(map[int64]models.ProductMedia)}
}

// ExistsByDriveFileID implements the repository interface.
func (s *MediaStore) ExistsByDriveFileID(_ context.Context, driveFileID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.items {
		if m.DriveFileID != "" && m.DriveFileID == driveFileID {
			return true, nil
		}
	}
	return false, nil
}

// Insert implements the repository interface.
func (s *MediaStore) Insert(_ context.Context, media *models.ProductMedia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if media.DriveFileID != "" {
		for _, m := range s.items {
			if m.DriveFileID == media.DriveFileID {
				return fmt.Errorf("drive file %s already imported: %w", media.DriveFileID, repository.ErrConflict)
			}
		}
	}
	s.nextID++
	media.ID = s.nextID
	media.CreatedAt = timestamp()
	s.items[media.ID] = *media
	return nil
}

// GetByID implements the repository interface.
func (s *MediaStore) GetByID(_ context.Context, id int64) (*models.ProductMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

// ListByProduct implements the repository interface.
func (s *MediaStore) ListByProduct(_ context.Context, productID string) ([]models.ProductMedia, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ProductMedia{}
	for _, m := range s.items {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete implements the repository interface.
func (s *MediaStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
