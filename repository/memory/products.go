package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"optovik-store/models"
	"optovik-store/repository"
)

// ProductStore keeps the catalog in memory.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

var _ repository.ProductRepositoryInterface = (*ProductStore)(nil)

// NewProductStore returns an empty catalog.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]models.Product)}
}

// Create implements the repository interface.
func (s *ProductStore) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.articleTaken(p.Article, "") {
		return fmt.Errorf("article %s already exists: %w", p.Article, repository.ErrConflict)
	}
	now := timestamp()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

// Update implements the repository interface.
func (s *ProductStore) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.articleTaken(p.Article, p.ID) {
		return fmt.Errorf("article %s already exists: %w", p.Article, repository.ErrConflict)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = timestamp()
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

// Deactivate implements the repository interface.
func (s *ProductStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = timestamp()
	s.products[id] = p
	return nil
}

// GetByID implements the repository interface.
func (s *ProductStore) GetByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

// GetByArticle implements the repository interface.
func (s *ProductStore) GetByArticle(_ context.Context, article string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if strings.EqualFold(p.Article, strings.TrimSpace(article)) {
			out := cloneProduct(p)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List implements the repository interface.
func (s *ProductStore) List(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := []models.Product{}
	for _, p := range s.products {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Article), search) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return []models.Product{}, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, nil
}

// ListCategories implements the repository interface.
func (s *ProductStore) ListCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range s.products {
		if !p.IsActive || p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

// UpdateRetailPrice implements the repository interface.
func (s *ProductStore) UpdateRetailPrice(_ context.Context, id string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.RetailPrice = price
	p.UpdatedAt = timestamp()
	s.products[id] = p
	return nil
}

func (s *ProductStore) articleTaken(article, exceptID string) bool {
	for id, p := range s.products {
		if id != exceptID && strings.EqualFold(p.Article, article) {
			return true
		}
	}
	return false
}

func cloneProduct(p models.Product) models.Product {
	p.Colors = append([]string{}, p.Colors...)
	p.Sizes = append([]string{}, p.Sizes...)
	return p
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
