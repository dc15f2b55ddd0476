package controller

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/service"
)

const maxImportSize = 10 << 20

// ProductController handles HTTP requests for the catalog
type ProductController struct {
	products *service.ProductService
	imports  *service.PriceImportService
}

// NewProductController creates a new ProductController
func NewProductController(products *service.ProductService, imports *service.PriceImportService) *ProductController {
	return &ProductController{products: products, imports: imports}
}

// List handles GET /api/products and GET /admin/products
// Query params: category, q, limit, offset. The public route only sees active products.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, true)
}

// AdminList handles GET /admin/products?active=true
func (c *ProductController) AdminList(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, queryBool(r, "active"))
}

func (c *ProductController) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	q := r.URL.Query()
	products, err := c.products.List(r.Context(), models.ProductFilter{
		Category:   strings.TrimSpace(q.Get("category")),
		Search:     q.Get("q"),
		ActiveOnly: activeOnly,
		Limit:      queryInt(r, "limit", 100),
		Offset:     queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, "ListProducts", err)
		return
	}
	logger.Log.Debugf("✅ ListProducts: %d products", len(products))
	writeJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{productID}
func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.products.Get(r.Context(), chi.URLParam(r, "productID"))
	if err == nil && !p.IsActive {
		err = service.ErrProductNotFound
	}
	if err != nil {
		writeError(w, "GetProduct", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Categories handles GET /api/categories
func (c *ProductController) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.products.Categories(r.Context())
	if err != nil {
		writeError(w, "ListCategories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Create handles POST /admin/products
func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := c.products.Create(r.Context(), Actor(r), req)
	if err != nil {
		writeError(w, "CreateProduct", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /admin/products/{productID}
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := c.products.Update(r.Context(), Actor(r), chi.URLParam(r, "productID"), req)
	if err != nil {
		writeError(w, "UpdateProduct", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Deactivate handles DELETE /admin/products/{productID}
func (c *ProductController) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := c.products.Deactivate(r.Context(), Actor(r), chi.URLParam(r, "productID")); err != nil {
		writeError(w, "DeactivateProduct", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportPrices handles POST /admin/products/import?dryRun=true
// The workbook is sent as the "file" field of a multipart form.
func (c *ProductController) ImportPrices(w http.ResponseWriter, r *http.Request) {
	logger.Log.Infof("📥 ImportPrices: actor=%s dryRun=%s", Actor(r), r.URL.Query().Get("dryRun"))

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := c.imports.Import(r.Context(), Actor(r), file, queryBool(r, "dryRun"))
	if err != nil {
		writeError(w, "ImportPrices", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
