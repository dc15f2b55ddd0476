package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"optovik-store/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint would be violated.
var ErrConflict = errors.New("conflict")

// SettingsRepositoryInterface defines the contract for site settings storage
type SettingsRepositoryInterface interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// ProductRepositoryInterface defines the contract for catalog storage
type ProductRepositoryInterface interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByArticle(ctx context.Context, article string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpdateRetailPrice(ctx context.Context, id string, price decimal.Decimal) error
}

// CartRepositoryInterface defines the contract for cart persistence
type CartRepositoryInterface interface {
	Get(ctx context.Context, id string) (*models.Cart, error)
	Save(ctx context.Context, cart models.Cart) error
	Delete(ctx context.Context, id string) error
}

// OrderRepositoryInterface defines the contract for order storage
type OrderRepositoryInterface interface {
	// Create inserts the order and its lines atomically and fills in generated ids
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.OrderListItem, error)
	ListWithLines(ctx context.Context, from, to time.Time) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetPaymentID(ctx context.Context, id int64, paymentID string) error
	Stats(ctx context.Context, from, to time.Time) (*models.OrderStats, error)
}

// AuditLogRepositoryInterface defines the contract for audit log storage
type AuditLogRepositoryInterface interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
}

// MediaRepositoryInterface defines the contract for product media storage
type MediaRepositoryInterface interface {
	ExistsByDriveFileID(ctx context.Context, driveFileID string) (bool, error)
	Insert(ctx context.Context, media *models.ProductMedia) error
	GetByID(ctx context.Context, id int64) (*models.ProductMedia, error)
	ListByProduct(ctx context.Context, productID string) ([]models.ProductMedia, error)
	Delete(ctx context.Context, id int64) error
}
