package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"optovik-store/logger"
	"optovik-store/models"
)

// CartRepository persists cart snapshots as JSONB
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Ensure CartRepository implements CartRepositoryInterface
var _ CartRepositoryInterface = (*CartRepository)(nil)

// Get loads a cart by id
func (r *CartRepository) Get(ctx context.Context, id string) (*models.Cart, error) {
	var raw []byte
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT lines, updated_at FROM carts WHERE id = $1`, id).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load cart %s: %w", id, err)
	}

	cart := &models.Cart{ID: id, UpdatedAt: formatTime(updatedAt)}
	if err := json.Unmarshal(raw, &cart.Lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart %s: %w", id, err)
	}
	return cart, nil
}

// Save replaces the stored snapshot of a cart
func (r *CartRepository) Save(ctx context.Context, cart models.Cart) error {
	lines := cart.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", cart.ID, err)
	}

	query := `
		INSERT INTO carts (id, lines, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id)
		DO UPDATE SET lines = EXCLUDED.lines, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, cart.ID, raw); err != nil {
		logger.Log.Errorf("❌ SaveCart: Error saving cart %s: %v", cart.ID, err)
		return fmt.Errorf("failed to save cart %s: %w", cart.ID, err)
	}
	logger.Log.Debugf("💾 SaveCart: cart=%s lines=%d", cart.ID, len(lines))
	return nil
}

// Delete removes a cart. Deleting a missing cart is not an error.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", id, err)
	}
	return nil
}
