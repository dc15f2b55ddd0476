package models

import "github.com/shopspring/decimal"

// Setting keys stored in the site_settings table.
const (
	SettingMinOrderAmount          = "min_order_amount"
	SettingMinWholesaleOrderAmount = "min_wholesale_order_amount"
	SettingWholesaleGradations     = "wholesale_gradations"
	SettingStoreName               = "store_name"
	SettingPaymentCardEnabled      = "payment_card_enabled"
	SettingPaymentCashEnabled      = "payment_cash_enabled"
	SettingDeliveryMethods         = "delivery_methods"
)

// WholesaleTier is a (threshold amount, discount percent) pair.
type WholesaleTier struct {
	Amount  decimal.Decimal `json:"amount" validate:"gte=0"`
	Percent decimal.Decimal `json:"percent" validate:"gte=0,lte=100"`
}

// Setting is a single key/value row.
type Setting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// UpdateSettingRequest is the body of PUT /admin/settings/{key}.
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// UpdateGradationsRequest is the body of PUT /admin/settings/gradations.
// MinWholesaleOrderAmount, when present, is saved together with the tiers so
// both sides of the coverage rule can move in one request.
type UpdateGradationsRequest struct {
	Tiers                   []WholesaleTier  `json:"tiers" validate:"dive"`
	MinWholesaleOrderAmount *decimal.Decimal `json:"minWholesaleOrderAmount,omitempty"`
}
