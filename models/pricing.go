package models

import "github.com/shopspring/decimal"

// OrderType classifies a cart by its undiscounted total.
type OrderType string

const (
	OrderTypeRetail    OrderType = "retail"
	OrderTypeWholesale OrderType = "wholesale"
)

// LinePricing is the per-line part of a PricingSummary.
type LinePricing struct {
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	SelectedColor   string          `json:"selectedColor,omitempty"`
	SelectedSize    string          `json:"selectedSize,omitempty"`
	UnitRetailPrice decimal.Decimal `json:"unitRetailPrice"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`       // Price after the applied tier
	RetailTotal     decimal.Decimal `json:"retailTotal"`     // unitRetailPrice * quantity
	LineTotal       decimal.Decimal `json:"lineTotal"`       // unitPrice * quantity
	Economy         decimal.Decimal `json:"economy"`         // retailTotal - lineTotal
	DiscountPercent decimal.Decimal `json:"discountPercent"` // 0 when no tier applies
}

// ThresholdProgress tracks how far a cart is from a configured minimum.
type ThresholdProgress struct {
	Current    decimal.Decimal `json:"current"`
	Target     decimal.Decimal `json:"target"`
	Percentage float64         `json:"percentage"`
	Remaining  decimal.Decimal `json:"remaining"`
	IsReached  bool            `json:"isReached"`
}

// NextDiscount is one rung of the upsell ladder.
type NextDiscount struct {
	Amount    decimal.Decimal `json:"amount"`
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// WholesaleUpsellInfo is advisory: what the customer needs to add to reach the next tiers.
type WholesaleUpsellInfo struct {
	NextTier  NextDiscount    `json:"nextTier"`
	Remaining decimal.Decimal `json:"remaining"`
	Ladder    []NextDiscount  `json:"ladder"`
}

// PricingAnomaly records a cart line that was excluded from the totals.
type PricingAnomaly struct {
	LineIndex int    `json:"lineIndex"`
	ProductID string `json:"productId,omitempty"`
	Reason    string `json:"reason"`
}

// PricingSummary is derived from cart lines and settings on every change. Never persisted.
type PricingSummary struct {
	RetailTotal         decimal.Decimal      `json:"retailTotal"`
	CurrentTotal        decimal.Decimal      `json:"currentTotal"`
	TotalEconomy        decimal.Decimal      `json:"totalEconomy"`
	OrderType           OrderType            `json:"orderType"`
	AppliedTier         *WholesaleTier       `json:"appliedTier,omitempty"`
	TierGap             bool                 `json:"tierGap"` // Wholesale by total, but no tier qualified
	Lines               []LinePricing        `json:"lines"`
	ProgressToMinOrder  ThresholdProgress    `json:"progressToMinOrder"`
	ProgressToWholesale ThresholdProgress    `json:"progressToWholesale"`
	WholesaleUpsell     *WholesaleUpsellInfo `json:"wholesaleUpsell,omitempty"`
	Anomalies           []PricingAnomaly     `json:"anomalies,omitempty"`
}
