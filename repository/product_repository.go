package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"optovik-store/logger"
	"optovik-store/models"
)

const productColumns = `id, article, name, category, description, retail_price, colors, sizes, is_active, created_at, updated_at`

// ProductRepository handles database operations for products
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Ensure ProductRepository implements ProductRepositoryInterface
var _ ProductRepositoryInterface = (*ProductRepository)(nil)

// Create inserts a new product. The caller assigns the id.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	logger.Log.Infof("📦 CreateProduct: article=%s, name=%s", p.Article, p.Name)

	colors, sizes, err := encodeVariants(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, article, name, category, description, retail_price, colors, sizes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.Article, p.Name, p.Category, p.Description, p.RetailPrice, colors, sizes, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("article %s already exists: %w", p.Article, ErrConflict)
		}
		logger.Log.Errorf("❌ CreateProduct: Error inserting product: %v", err)
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a product
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	colors, sizes, err := encodeVariants(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET article = $2, name = $3, category = $4, description = $5, retail_price = $6,
		    colors = $7, sizes = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.Article, p.Name, p.Category, p.Description, p.RetailPrice, colors, sizes, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("article %s already exists: %w", p.Article, ErrConflict)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Deactivate hides a product from the storefront without deleting order history references
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a product by id
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetByArticle returns a product by article, case-insensitively
func (r *ProductRepository) GetByArticle(ctx context.Context, article string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE UPPER(article) = UPPER($1)`, strings.TrimSpace(article))
	return scanProduct(row)
}

// List retrieves products matching the provided filters
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`

	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = true")
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR article ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Log.Errorf("❌ ListProducts: Error querying products: %v", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// ListCategories returns the distinct categories of active products
func (r *ProductRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM products WHERE is_active = true AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateRetailPrice sets the retail price of a product
func (r *ProductRepository) UpdateRetailPrice(ctx context.Context, id string, price decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET retail_price = $2, updated_at = NOW() WHERE id = $1`, id, price)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var colors, sizes []byte
	err := row.Scan(&p.ID, &p.Article, &p.Name, &p.Category, &p.Description, &p.RetailPrice,
		&colors, &sizes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	if err := json.Unmarshal(colors, &p.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors of product %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("failed to decode sizes of product %s: %w", p.ID, err)
	}
	return &p, nil
}

func encodeVariants(p *models.Product) (colors, sizes []byte, err error) {
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if colors, err = json.Marshal(p.Colors); err != nil {
		return nil, nil, fmt.Errorf("failed to encode colors: %w", err)
	}
	if sizes, err = json.Marshal(p.Sizes); err != nil {
		return nil, nil, fmt.Errorf("failed to encode sizes: %w", err)
	}
	return colors, sizes, nil
}

// isUniqueViolation reports Postgres error 23505
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
