package memory

import (
	"context"
	"sync"

	"optovik-store/models"
	"optovik-store/repository"
)

// CartStore keeps cart snapshots in memory.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]models.Cart
	saves int
	// Err, when set, is returned by Save.
	Err error
}

var _ repository.CartRepositoryInterface = (*CartStore)(nil)

// NewCartStore returns an empty store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]models.Cart)}
}

// Get implements the repository interface.
func (s *CartStore) Get(_ context.Context, id string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c.Clone()
	return &out, nil
}

// Save implements the repository interface.
func (s *CartStore) Save(_ context.Context, cart models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cart.UpdatedAt = timestamp()
	s.carts[cart.ID] = cart.Clone()
	s.saves++
	return nil
}

// Delete implements the repository interface.
func (s *CartStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

// Saves reports how many writes reached the store.
func (s *CartStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
