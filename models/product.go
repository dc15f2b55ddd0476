package models

import "github.com/shopspring/decimal"

// Product represents a catalog product
type Product struct {
	ID          string          `json:"id"`
	Article     string          `json:"article"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// ProductRequest is the body for creating or updating a product
// Example: {"article": "KT-1024", "name": "Футболка оверсайз", "category": "Футболки", "retailPrice": 450, "colors": ["черный"], "sizes": ["M", "L"]}
type ProductRequest struct {
	Article     string          `json:"article" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"max=128"`
	Description string          `json:"description,omitempty"`
	RetailPrice decimal.Decimal `json:"retailPrice" validate:"gte=0"`
	Colors      []string        `json:"colors,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	IsActive    *bool           `json:"isActive,omitempty"`
}

// ProductFilter holds optional filters for product listing
type ProductFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
