package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository/memory"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestOptimizeImage(t *testing.T) {
	src := pngBytes(t, 1200, 600)

	thumb, err := OptimizeImage(src, VariantThumb)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	small, err := OptimizeImage(pngBytes(t, 100, 80), VariantMedium)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)

	_, err = OptimizeImage([]byte("GIF89a"), VariantThumb)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	_, err = OptimizeImage(src, "huge")
	assert.Error(t, err)
}

type fakeDrive struct {
	mu        sync.Mutex
	images    []models.DriveImage
	files     map[string][]byte
	downloads []string
}

func (d *fakeDrive) ListProductImages(context.Context, string) ([]models.DriveImage, error) {
	return d.images, nil
}

func (d *fakeDrive) DownloadImage(_ context.Context, fileID string) ([]byte, error) {
	d.mu.Lock()
	d.downloads = append(d.downloads, fileID)
	d.mu.Unlock()
	data, ok := d.files[fileID]
	if !ok {
		return nil, errors.New("download failed")
	}
	return data, nil
}

type mediaFixture struct {
	svc      *MediaService
	media    *memory.MediaStore
	products *memory.ProductStore
	drive    *fakeDrive
}

func newMediaFixture(t *testing.T) *mediaFixture {
	t.Helper()
	cache, err := NewMediaCache(t.TempDir())
	require.NoError(t, err)
	products := memory.NewProductStore()
	seedProduct(t, products, "p1", "KT-1", "100", nil, nil)
	f := &mediaFixture{
		media:    memory.NewMediaStore(),
		products: products,
		drive:    &fakeDrive{files: map[string][]byte{}},
	}
	f.svc = NewMediaService(MediaServiceDeps{
		Media:    f.media,
		Products: products,
		Cache:    cache,
		Drive:    f.drive,
		FolderID: "folder",
	})
	return f
}

func TestMediaService_UploadReadDelete(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()

	m, err := f.svc.Upload(ctx, "admin", "p1", 0, pngBytes(t, 40, 40))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Position)
	assert.Equal(t, "/api/media/1/thumb", m.ThumbURL)

	second, err := f.svc.Upload(ctx, "admin", "p1", 0, pngBytes(t, 40, 40))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)

	list, err := f.svc.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "/api/media/2/medium", list[1].MediumURL)

	data, err := f.svc.Read(ctx, m.ID, VariantThumb)
	require.NoError(t, err)
	_, err = jpeg.DecodeConfig(bytes.NewReader(data))
	assert.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "admin", m.ID))
	_, err = os.Stat(m.ThumbPath)
	assert.True(t, os.IsNotExist(err))
	_, err = f.svc.Read(ctx, m.ID, VariantThumb)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "admin", m.ID), ErrMediaNotFound)
}

func TestMediaService_UploadRejections(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "admin", "missing", 1, pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = f.svc.Upload(ctx, "admin", "p1", 1, []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestMediaService_SyncFromDrive(t *testing.T) {
	f := newMediaFixture(t)
	ctx := context.Background()
	img := pngBytes(t, 20, 20)
	f.drive.images = []models.DriveImage{
		{DriveFileID: "a", FileName: "kt-1_2.png"},
		{DriveFileID: "b", FileName: "notes.txt"},
		{DriveFileID: "c", FileName: "KT-404.jpg"},
		{DriveFileID: "d", FileName: "KT-1_3.png"},
	}
	f.drive.files["a"] = img

	res, err := f.svc.SyncFromDrive(ctx, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 2)
	sort.Strings(res.Errors)
	assert.Contains(t, res.Errors[0], "KT-1_3.png")
	assert.Contains(t, res.Errors[1], "unknown article KT-404")

	list, err := f.svc.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Position)
	assert.Equal(t, "a", list[0].DriveFileID)

	// A second run skips what is already imported.
	f.drive.downloads = nil
	res, err = f.svc.SyncFromDrive(ctx, "admin", "folder")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.NotContains(t, f.drive.downloads, "a")
}

func TestMediaService_SyncWithoutDrive(t *testing.T) {
	svc := NewMediaService(MediaServiceDeps{Media: memory.NewMediaStore(), Products: memory.NewProductStore()})
	_, err := svc.SyncFromDrive(context.Background(), "admin", "folder")
	assert.ErrorIs(t, err, ErrDriveUnavailable)
}
