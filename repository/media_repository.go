package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"optovik-store/logger"
	"optovik-store/models"
)

// MediaRepository handles database operations for product media
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new MediaRepository
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Ensure MediaRepository implements MediaRepositoryInterface
var _ MediaRepositoryInterface = (*MediaRepository)(nil)

// ExistsByDriveFileID checks whether a Drive file was already imported
func (r *MediaRepository) ExistsByDriveFileID(ctx context.Context, driveFileID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM product_media WHERE drive_file_id = $1)`, driveFileID).Scan(&exists)
	if err != nil {
		logger.Log.Errorf("❌ Error checking existence for drive_file_id %s: %v", driveFileID, err)
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	logger.Log.Debugf("🔍 Existence check result for drive_file_id %s: exists=%v", driveFileID, exists)
	return exists, nil
}

// Insert stores a media record and fills in its id
func (r *MediaRepository) Insert(ctx context.Context, media *models.ProductMedia) error {
	logger.Log.Infof("💾 Repository.Insert called for product %s position %d", media.ProductID, media.Position)

	query := `
		INSERT INTO product_media (product_id, position, drive_file_id, thumb_path, medium_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		media.ProductID, media.Position, nullString(media.DriveFileID), media.ThumbPath, media.MediumPath,
	).Scan(&media.ID, &createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("drive file %s already imported: %w", media.DriveFileID, ErrConflict)
		}
		logger.Log.Errorf("❌ Error inserting media for product %s: %v", media.ProductID, err)
		return fmt.Errorf("failed to insert media: %w", err)
	}
	media.CreatedAt = formatTime(createdAt)
	logger.Log.Infof("✅ Successfully inserted media id=%d", media.ID)
	return nil
}

// GetByID returns one media record
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (*models.ProductMedia, error) {
	query := `SELECT id, product_id, position, COALESCE(drive_file_id, ''), thumb_path, medium_path, created_at
		FROM product_media WHERE id = $1`
	return scanMedia(r.db.QueryRowContext(ctx, query, id))
}

// ListByProduct returns the media of a product ordered by position
func (r *MediaRepository) ListByProduct(ctx context.Context, productID string) ([]models.ProductMedia, error) {
	query := `SELECT id, product_id, position, COALESCE(drive_file_id, ''), thumb_path, medium_path, created_at
		FROM product_media WHERE product_id = $1 ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	out := []models.ProductMedia{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Delete removes a media record
func (r *MediaRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM product_media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedia(row rowScanner) (*models.ProductMedia, error) {
	var m models.ProductMedia
	var createdAt time.Time
	if err := row.Scan(&m.ID, &m.ProductID, &m.Position, &m.DriveFileID, &m.ThumbPath, &m.MediumPath, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan media: %w", err)
	}
	m.CreatedAt = formatTime(createdAt)
	return &m, nil
}
