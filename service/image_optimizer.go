package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"optovik-store/logger"
)

// Image variants served to the storefront
const (
	VariantThumb  = "thumb"
	VariantMedium = "medium"
)

type variantSpec struct {
	maxDim  int
	quality int
}

var variantSpecs = map[string]variantSpec{
	VariantThumb:  {maxDim: 300, quality: 60},
	VariantMedium: {maxDim: 800, quality: 75},
}

// ErrUnsupportedImage is returned for uploads that are not a decodable PNG or JPEG.
var ErrUnsupportedImage = errors.New("unsupported image")

// OptimizeImage decodes PNG or JPEG data, fits it into the variant's bounding box
// and re-encodes it as JPEG. Images already inside the box keep their size.
func OptimizeImage(imageData []byte, variant string) ([]byte, error) {
	spec, ok := variantSpecs[variant]
	if !ok {
		return nil, fmt.Errorf("unknown image variant %q", variant)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	logger.Log.Debugf("📸 Image decoded: format=%s, bounds=%v", format, img.Bounds())

	bounds := img.Bounds()
	if bounds.Dx() > spec.maxDim || bounds.Dy() > spec.maxDim {
		img = imaging.Fit(img, spec.maxDim, spec.maxDim, imaging.Lanczos)
		logger.Log.Debugf("🔄 Resized image: %dx%d -> %v", bounds.Dx(), bounds.Dy(), img.Bounds().Size())
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: spec.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// MediaCache stores optimized variants on disk
type MediaCache struct {
	dir string
}

// NewMediaCache creates the cache directory if needed
func NewMediaCache(dir string) (*MediaCache, error) {
	if dir == "" {
		dir = "cache/media"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &MediaCache{dir: dir}, nil
}

// Path returns where a variant of a product image is stored
func (c *MediaCache) Path(productID string, position int, variant, token string) string {
	return filepath.Join(c.dir, productID, fmt.Sprintf("%d_%s_%s.jpg", position, token, variant))
}

// Save writes data to path, creating parent directories
func (c *MediaCache) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	logger.Log.Debugf("✓ Image cached: %s", path)
	return nil
}

// Read returns the cached bytes at path
func (c *MediaCache) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read from cache: %w", err)
	}
	return data, nil
}

// Remove deletes cached files, ignoring ones already gone
func (c *MediaCache) Remove(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Log.Warnf("⚠️  Failed to remove cached image %s: %v", p, err)
		}
	}
}
