package utils

import (
	"strings"
)

// Column roles recognized in uploaded price sheets.
const (
	ColumnArticle = "article"
	ColumnName    = "name"
	ColumnPrice   = "price"
)

// headerSynonyms maps normalized header captions to column roles.
// Wholesale columns are deliberately absent: imports only ever touch retail prices.
var headerSynonyms = map[string]string{
	"артикул":        ColumnArticle,
	"арт":            ColumnArticle,
	"арт.":           ColumnArticle,
	"код":            ColumnArticle,
	"код товара":     ColumnArticle,
	"article":        ColumnArticle,
	"sku":            ColumnArticle,
	"наименование":   ColumnName,
	"название":       ColumnName,
	"товар":          ColumnName,
	"name":           ColumnName,
	"product":        ColumnName,
	"цена":           ColumnPrice,
	"цена, руб":      ColumnPrice,
	"цена руб":       ColumnPrice,
	"розница":        ColumnPrice,
	"розничная цена": ColumnPrice,
	"цена розница":   ColumnPrice,
	"price":          ColumnPrice,
	"retail price":   ColumnPrice,
}

// MapHeaderToColumn maps a header caption to its column role
// Input is normalized to lowercase with collapsed spaces before mapping
// Returns "" when the caption is not recognized
func MapHeaderToColumn(caption string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(caption)), " ")
	normalized = strings.TrimSuffix(normalized, ":")
	if role, ok := headerSynonyms[normalized]; ok {
		return role
	}
	// "Цена (руб.)", "Цена, ₽" and similar variants
	if strings.HasPrefix(normalized, "цена") && !strings.Contains(normalized, "опт") {
		return ColumnPrice
	}
	if strings.HasPrefix(normalized, "артикул") {
		return ColumnArticle
	}
	return ""
}
