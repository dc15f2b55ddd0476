package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
	"optovik-store/utils"
)

// ErrProductNotFound is returned when a product id or article is unknown.
var ErrProductNotFound = errors.New("product not found")

// ErrDuplicateArticle is returned when another product already uses the article.
var ErrDuplicateArticle = errors.New("article already exists")

// ProductService handles catalog operations
type ProductService struct {
	repo  repository.ProductRepositoryInterface
	audit AuditRecorder
	newID func() string
}

// NewProductService creates a new ProductService
func NewProductService(repo repository.ProductRepositoryInterface, audit AuditRecorder) *ProductService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &ProductService{repo: repo, audit: audit, newID: uuid.NewString}
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// Get returns a product by id
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Categories returns the distinct categories of active products
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

// Create adds a product
func (s *ProductService) Create(ctx context.Context, actor string, req models.ProductRequest) (*models.Product, error) {
	if err := utils.Validate.Struct(req); err != nil {
		return nil, err
	}
	p := &models.Product{ID: s.newID(), IsActive: true}
	applyProductRequest(p, req)

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateArticle
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.audit.Record(ctx, actor, AuditProductCreated, "product:"+p.ID, map[string]string{"article": p.Article})
	logger.Log.Infof("✅ Product created: id=%s article=%s", p.ID, p.Article)
	return p, nil
}

// Update replaces the editable fields of a product
func (s *ProductService) Update(ctx context.Context, actor, id string, req models.ProductRequest) (*models.Product, error) {
	if err := utils.Validate.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(p, req)

	if err := s.repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrDuplicateArticle
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.audit.Record(ctx, actor, AuditProductUpdated, "product:"+p.ID, map[string]string{"article": p.Article})
	return p, nil
}

// Deactivate hides a product from the storefront
func (s *ProductService) Deactivate(ctx context.Context, actor, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	s.audit.Record(ctx, actor, AuditProductDeactivated, "product:"+id, nil)
	return nil
}

func applyProductRequest(p *models.Product, req models.ProductRequest) {
	p.Article = strings.ToUpper(strings.TrimSpace(req.Article))
	p.Name = strings.TrimSpace(req.Name)
	p.Category = strings.TrimSpace(req.Category)
	p.Description = strings.TrimSpace(req.Description)
	p.RetailPrice = req.RetailPrice.Round(2)
	p.Colors = cleanList(req.Colors, strings.TrimSpace)
	p.Sizes = cleanList(req.Sizes, utils.NormalizeSize)
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// cleanList normalizes values and drops blanks and duplicates, keeping order.
func cleanList(values []string, normalize func(string) string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
