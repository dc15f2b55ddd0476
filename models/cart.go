package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one product/color/size combination in a cart.
type CartLine struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName,omitempty"`
	UnitRetailPrice decimal.Decimal `json:"unitRetailPrice"`
	Quantity        int             `json:"quantity"`
	SelectedColor   string          `json:"selectedColor,omitempty"`
	SelectedSize    string          `json:"selectedSize,omitempty"`
}

// Key identifies the line inside a cart.
func (l CartLine) Key() string {
	return l.ProductID + "|" + strings.ToLower(l.SelectedColor) + "|" + strings.ToLower(l.SelectedSize)
}

// Cart is the persisted cart state.
type Cart struct {
	ID        string     `json:"id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt string     `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy so callers never share the store's line slice.
func (c Cart) Clone() Cart {
	out := c
	out.Lines = make([]CartLine, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}

// AddCartItemRequest is the body of POST /api/carts/{id}/items.
type AddCartItemRequest struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gt=0"`
	SelectedColor string `json:"selectedColor,omitempty"`
	SelectedSize  string `json:"selectedSize,omitempty"`
}

// UpdateCartItemRequest is the body of PATCH /api/carts/{id}/items.
// A quantity of zero or less removes the line.
type UpdateCartItemRequest struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selectedColor,omitempty"`
	SelectedSize  string `json:"selectedSize,omitempty"`
}

// CartResponse bundles the cart with its pricing.
type CartResponse struct {
	Cart    Cart           `json:"cart"`
	Pricing PricingSummary `json:"pricing"`
}
