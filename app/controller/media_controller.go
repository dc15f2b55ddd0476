package controller

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"optovik-store/logger"
	"optovik-store/service"
)

const maxUploadSize = 25 << 20

// MediaController handles HTTP requests for product images
type MediaController struct {
	media *service.MediaService
}

// NewMediaController creates a new MediaController
func NewMediaController(media *service.MediaService) *MediaController {
	return &MediaController{media: media}
}

// ListByProduct handles GET /api/products/{productID}/media
func (c *MediaController) ListByProduct(w http.ResponseWriter, r *http.Request) {
	items, err := c.media.ListByProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, "ListMedia", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Image handles GET /api/media/{mediaID}/{variant}
func (c *MediaController) Image(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaID(w, r)
	if !ok {
		return
	}
	variant := chi.URLParam(r, "variant")
	if variant != service.VariantThumb && variant != service.VariantMedium {
		http.Error(w, "Unknown variant", http.StatusNotFound)
		return
	}
	data, err := c.media.Read(r.Context(), id, variant)
	if err != nil {
		writeError(w, "GetMediaImage", err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logger.Log.Errorf("❌ GetMediaImage: failed to write image: %v", err)
	}
}

// Upload handles POST /admin/products/{productID}/media?position=N
// The image is sent as the "file" field of a multipart form.
func (c *MediaController) Upload(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	logger.Log.Infof("📥 UploadMedia: product=%s actor=%s", productID, Actor(r))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	m, err := c.media.Upload(r.Context(), Actor(r), productID, queryInt(r, "position", 0), data)
	if err != nil {
		writeError(w, "UploadMedia", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// Delete handles DELETE /admin/media/{mediaID}
func (c *MediaController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := mediaID(w, r)
	if !ok {
		return
	}
	if err := c.media.Delete(r.Context(), Actor(r), id); err != nil {
		writeError(w, "DeleteMedia", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync handles POST /admin/media/sync?folderId=
// Without folderId the configured Drive folder is used.
func (c *MediaController) Sync(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	logger.Log.Infof("📥 SyncMedia: folder=%s actor=%s", folderID, Actor(r))

	result, err := c.media.SyncFromDrive(r.Context(), Actor(r), folderID)
	if err != nil {
		writeError(w, "SyncMedia", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func mediaID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "mediaID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid media ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
