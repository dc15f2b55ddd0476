package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
)

const driveSyncConcurrency = 4

var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrDriveUnavailable = errors.New("google drive is not configured")
)

// MediaServiceDeps bundles constructor inputs for MediaService.
type MediaServiceDeps struct {
	Media    repository.MediaRepositoryInterface
	Products repository.ProductRepositoryInterface
	Cache    *MediaCache
	Drive    DriveSource
	FolderID string
	Audit    AuditRecorder
}

// MediaService stores product images and syncs them from Google Drive
type MediaService struct {
	media    repository.MediaRepositoryInterface
	products repository.ProductRepositoryInterface
	cache    *MediaCache
	drive    DriveSource
	folderID string
	audit    AuditRecorder
}

// NewMediaService creates a new MediaService
func NewMediaService(deps MediaServiceDeps) *MediaService {
	audit := deps.Audit
	if audit == nil {
		audit = noopAudit{}
	}
	return &MediaService{
		media:    deps.Media,
		products: deps.Products,
		cache:    deps.Cache,
		drive:    deps.Drive,
		folderID: deps.FolderID,
		audit:    audit,
	}
}

// Upload optimizes an image and attaches it to a product
func (s *MediaService) Upload(ctx context.Context, actor, productID string, position int, data []byte) (*models.ProductMedia, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if position <= 0 {
		existing, err := s.media.ListByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		position = len(existing) + 1
	}

	m, err := s.store(ctx, productID, position, "", data)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, AuditMediaUploaded, fmt.Sprintf("media:%d", m.ID), map[string]string{"productId": productID})
	return m, nil
}

// store writes both variants and records them. Cached files are removed if the insert fails.
func (s *MediaService) store(ctx context.Context, productID string, position int, driveFileID string, data []byte) (*models.ProductMedia, error) {
	thumb, err := OptimizeImage(data, VariantThumb)
	if err != nil {
		return nil, err
	}
	medium, err := OptimizeImage(data, VariantMedium)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()[:8]
	m := &models.ProductMedia{
		ProductID:   productID,
		Position:    position,
		DriveFileID: driveFileID,
		ThumbPath:   s.cache.Path(productID, position, VariantThumb, token),
		MediumPath:  s.cache.Path(productID, position, VariantMedium, token),
	}
	if err := s.cache.Save(m.ThumbPath, thumb); err != nil {
		return nil, err
	}
	if err := s.cache.Save(m.MediumPath, medium); err != nil {
		s.cache.Remove(m.ThumbPath)
		return nil, err
	}
	if err := s.media.Insert(ctx, m); err != nil {
		s.cache.Remove(m.ThumbPath, m.MediumPath)
		return nil, fmt.Errorf("failed to record media: %w", err)
	}
	withURLs(m)
	logger.Log.Infof("✅ Stored media id=%d for product %s (thumb %d bytes, medium %d bytes)", m.ID, productID, len(thumb), len(medium))
	return m, nil
}

// ListByProduct returns a product's images in display order
func (s *MediaService) ListByProduct(ctx context.Context, productID string) ([]models.ProductMedia, error) {
	items, err := s.media.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		withURLs(&items[i])
	}
	return items, nil
}

// Read returns the bytes of one variant
func (s *MediaService) Read(ctx context.Context, id int64, variant string) ([]byte, error) {
	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	path := m.MediumPath
	if variant == VariantThumb {
		path = m.ThumbPath
	}
	return s.cache.Read(path)
}

// Delete removes a media record and its files
func (s *MediaService) Delete(ctx context.Context, actor string, id int64) error {
	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(m.ThumbPath, m.MediumPath)
	s.audit.Record(ctx, actor, AuditMediaDeleted, fmt.Sprintf("media:%d", id), nil)
	return nil
}

// SyncFromDrive imports images from the configured Drive folder. Files already
// imported are skipped; per-file failures are collected and do not stop the sync.
func (s *MediaService) SyncFromDrive(ctx context.Context, actor, folderID string) (*models.MediaSyncResult, error) {
	if s.drive == nil {
		return nil, ErrDriveUnavailable
	}
	if folderID == "" {
		folderID = s.folderID
	}
	if folderID == "" {
		return nil, fmt.Errorf("%w: folder id is required", ErrDriveUnavailable)
	}

	logger.Log.Infof("🔄 Starting media sync for folder: %s", folderID)
	images, err := s.drive.ListProductImages(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images from Drive: %w", err)
	}

	result := &models.MediaSyncResult{Total: len(images), Errors: []string{}}
	var mu sync.Mutex
	record := func(inserted, skipped bool, msg string) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case inserted:
			result.Inserted++
		case skipped:
			result.Skipped++
		}
		if msg != "" {
			result.Errors = append(result.Errors, msg)
			logger.Log.Warnf("❌ %s", msg)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(driveSyncConcurrency)
	for _, img := range images {
		img := img
		g.Go(func() error {
			inserted, skipped, msg := s.syncOne(gctx, img)
			record(inserted, skipped, msg)
			return nil
		})
	}
	_ = g.Wait()

	s.audit.Record(ctx, actor, AuditMediaSynced, "drive:"+folderID, map[string]int{
		"total":    result.Total,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
	})
	logger.Log.Infof("🎉 Media sync completed: %d inserted, %d skipped, %d failed, %d total",
		result.Inserted, result.Skipped, len(result.Errors), result.Total)
	return result, nil
}

func (s *MediaService) syncOne(ctx context.Context, img models.DriveImage) (inserted, skipped bool, errMsg string) {
	exists, err := s.media.ExistsByDriveFileID(ctx, img.DriveFileID)
	if err != nil {
		return false, false, fmt.Sprintf("%s: existence check failed: %v", img.FileName, err)
	}
	if exists {
		return false, true, ""
	}

	article, position, ok := driveFileArticle(img.FileName)
	if !ok {
		return false, true, ""
	}
	product, err := s.products.GetByArticle(ctx, article)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, true, fmt.Sprintf("%s: unknown article %s", img.FileName, article)
		}
		return false, false, fmt.Sprintf("%s: product lookup failed: %v", img.FileName, err)
	}

	data, err := s.drive.DownloadImage(ctx, img.DriveFileID)
	if err != nil {
		return false, false, fmt.Sprintf("%s: %v", img.FileName, err)
	}
	if _, err := s.store(ctx, product.ID, position, img.DriveFileID, data); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return false, true, ""
		}
		return false, false, fmt.Sprintf("%s: %v", img.FileName, err)
	}
	return true, false, ""
}

func withURLs(m *models.ProductMedia) {
	m.ThumbURL = fmt.Sprintf("/api/media/%d/%s", m.ID, VariantThumb)
	m.MediumURL = fmt.Sprintf("/api/media/%d/%s", m.ID, VariantMedium)
}
