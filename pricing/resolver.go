package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"optovik-store/models"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Anomaly reasons reported for lines excluded from the totals.
const (
	ReasonMissingProduct   = "missing_product"
	ReasonInvalidQuantity  = "invalid_quantity"
	ReasonNegativeUnitCost = "negative_unit_price"
)

// Settings is the snapshot of pricing configuration the resolver works from.
type Settings struct {
	MinRetailOrder    decimal.Decimal
	MinWholesaleOrder decimal.Decimal
	Tiers             []models.WholesaleTier
}

// Resolve derives the pricing summary for a cart. It never fails: malformed
// lines are left out of the totals and reported in Anomalies.
func Resolve(lines []models.CartLine, settings Settings) models.PricingSummary {
	summary := models.PricingSummary{
		RetailTotal:  decimal.Zero,
		CurrentTotal: decimal.Zero,
		TotalEconomy: decimal.Zero,
		OrderType:    models.OrderTypeRetail,
		Lines:        make([]models.LinePricing, 0, len(lines)),
	}

	valid := make([]models.CartLine, 0, len(lines))
	for i, line := range lines {
		if reason := lineAnomaly(line); reason != "" {
			summary.Anomalies = append(summary.Anomalies, models.PricingAnomaly{
				LineIndex: i,
				ProductID: line.ProductID,
				Reason:    reason,
			})
			continue
		}
		valid = append(valid, line)
		summary.RetailTotal = summary.RetailTotal.Add(line.UnitRetailPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	tiers := usableTiers(settings.Tiers)

	// An empty cart stays retail even when the wholesale minimum is zero.
	var applied *models.WholesaleTier
	if len(valid) > 0 && summary.RetailTotal.GreaterThanOrEqual(settings.MinWholesaleOrder) {
		summary.OrderType = models.OrderTypeWholesale
		applied = selectTier(tiers, summary.RetailTotal)
		if applied == nil {
			summary.TierGap = true
		}
	}
	summary.AppliedTier = applied

	percent := decimal.Zero
	if applied != nil {
		percent = clampPercent(applied.Percent)
	}
	factor := hundred.Sub(percent).Div(hundred)

	for _, line := range valid {
		qty := decimal.NewFromInt(int64(line.Quantity))
		unitPrice := line.UnitRetailPrice
		if applied != nil {
			unitPrice = line.UnitRetailPrice.Mul(factor)
		}
		retailTotal := line.UnitRetailPrice.Mul(qty)
		lineTotal := unitPrice.Mul(qty)

		summary.Lines = append(summary.Lines, models.LinePricing{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			SelectedColor:   line.SelectedColor,
			SelectedSize:    line.SelectedSize,
			UnitRetailPrice: line.UnitRetailPrice,
			UnitPrice:       unitPrice,
			RetailTotal:     retailTotal,
			LineTotal:       lineTotal,
			Economy:         retailTotal.Sub(lineTotal),
			DiscountPercent: percent,
		})
		summary.CurrentTotal = summary.CurrentTotal.Add(lineTotal)
	}
	summary.TotalEconomy = summary.RetailTotal.Sub(summary.CurrentTotal)

	summary.ProgressToMinOrder = progress(summary.RetailTotal, settings.MinRetailOrder)
	summary.ProgressToWholesale = progress(summary.RetailTotal, settings.MinWholesaleOrder)

	if summary.OrderType == models.OrderTypeRetail {
		summary.WholesaleUpsell = upsell(tiers, summary.RetailTotal)
	}

	return summary
}

func lineAnomaly(line models.CartLine) string {
	switch {
	case line.ProductID == "":
		return ReasonMissingProduct
	case line.Quantity <= 0:
		return ReasonInvalidQuantity
	case line.UnitRetailPrice.IsNegative():
		return ReasonNegativeUnitCost
	}
	return ""
}

// usableTiers drops tiers with a negative amount and returns a copy sorted
// descending by amount. The caller's slice is never reordered.
func usableTiers(tiers []models.WholesaleTier) []models.WholesaleTier {
	out := make([]models.WholesaleTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Amount.IsNegative() {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// selectTier returns the highest tier whose amount does not exceed total.
// tiers must be sorted descending by amount.
func selectTier(tiers []models.WholesaleTier, total decimal.Decimal) *models.WholesaleTier {
	for i := range tiers {
		if tiers[i].Amount.LessThanOrEqual(total) {
			tier := tiers[i]
			tier.Percent = clampPercent(tier.Percent)
			return &tier
		}
	}
	return nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func progress(current, target decimal.Decimal) models.ThresholdProgress {
	p := models.ThresholdProgress{
		Current:   current,
		Target:    target,
		Remaining: decimal.Zero,
	}
	if !target.IsPositive() {
		p.Percentage = 100
		p.IsReached = true
		return p
	}

	pct := current.Div(target).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	p.Percentage = pct.Round(2).InexactFloat64()
	if remaining := target.Sub(current); remaining.IsPositive() {
		p.Remaining = remaining
	}
	p.IsReached = current.GreaterThanOrEqual(target)
	return p
}

// upsell lists every tier above total in ascending order; nil when none is left.
// tiers must be sorted descending by amount.
func upsell(tiers []models.WholesaleTier, total decimal.Decimal) *models.WholesaleUpsellInfo {
	var ladder []models.NextDiscount
	for i := len(tiers) - 1; i >= 0; i-- {
		t := tiers[i]
		if !t.Amount.GreaterThan(total) {
			continue
		}
		ladder = append(ladder, models.NextDiscount{
			Amount:    t.Amount,
			Percent:   clampPercent(t.Percent),
			Remaining: t.Amount.Sub(total),
		})
	}
	if len(ladder) == 0 {
		return nil
	}
	return &models.WholesaleUpsellInfo{
		NextTier:  ladder[0],
		Remaining: ladder[0].Remaining,
		Ladder:    ladder,
	}
}
