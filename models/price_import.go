package models

import "github.com/shopspring/decimal"

// PriceSheetRow is a row recognized in an uploaded price sheet
type PriceSheetRow struct {
	Sheet   string          `json:"sheet"`
	Row     int             `json:"row"`
	Article string          `json:"article"`
	Name    string          `json:"name,omitempty"`
	Price   decimal.Decimal `json:"price"`
}

// PriceImportResult reports what a price import changed
type PriceImportResult struct {
	DryRun          bool            `json:"dryRun"`
	Recognized      int             `json:"recognized"`
	Updated         int             `json:"updated"`
	Unchanged       int             `json:"unchanged"`
	UnknownArticles []string        `json:"unknownArticles"`
	Skipped         []string        `json:"skipped"`
	Rows            []PriceSheetRow `json:"rows,omitempty"`
}
