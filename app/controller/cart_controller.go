package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/service"
)

// CartController handles HTTP requests for storefront carts
type CartController struct {
	carts *service.CartService
}

// NewCartController creates a new CartController
func NewCartController(carts *service.CartService) *CartController {
	return &CartController{carts: carts}
}

// Create handles POST /api/carts
func (c *CartController) Create(w http.ResponseWriter, r *http.Request) {
	logger.Log.Debugf("📥 CreateCart: %s %s", r.Method, r.URL.Path)

	resp, err := c.carts.Create(r.Context())
	if err != nil {
		writeError(w, "CreateCart", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/carts/{cartID}
// Example response:
//
//	{
//	  "cart": {"id": "7c1c...", "lines": [{"productId": "...", "quantity": 12, "unitRetailPrice": "450"}]},
//	  "pricing": {"orderType": "wholesale", "retailTotal": "5400", "currentTotal": "4860", "totalEconomy": "540", ...}
//	}
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := c.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, "GetCart", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddItem handles POST /api/carts/{cartID}/items
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartID")
	logger.Log.Debugf("📥 AddCartItem: cart=%s", cartID)

	var req models.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := c.carts.AddItem(r.Context(), cartID, req)
	if err != nil {
		writeError(w, "AddCartItem", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateItem handles PATCH /api/carts/{cartID}/items
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := c.carts.UpdateItem(r.Context(), chi.URLParam(r, "cartID"), req)
	if err != nil {
		writeError(w, "UpdateCartItem", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /api/carts/{cartID}/items?productId=&color=&size=
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}
	resp, err := c.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartID"), productID, q.Get("color"), q.Get("size"))
	if err != nil {
		writeError(w, "RemoveCartItem", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Clear handles DELETE /api/carts/{cartID}
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	resp, err := c.carts.Clear(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, "ClearCart", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
