package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func line(id, price string, qty int) models.CartLine {
	return models.CartLine{ProductID: id, UnitRetailPrice: dec(price), Quantity: qty}
}

func tier(amount, percent string) models.WholesaleTier {
	return models.WholesaleTier{Amount: dec(amount), Percent: dec(percent)}
}

func TestResolve_WholesaleScenario(t *testing.T) {
	settings := Settings{
		MinRetailOrder:    dec("1000"),
		MinWholesaleOrder: dec("5000"),
		Tiers:             []models.WholesaleTier{tier("5000", "10")},
	}

	got := Resolve([]models.CartLine{line("p1", "450", 20)}, settings)

	assertDec(t, "9000", got.RetailTotal)
	assertDec(t, "8100", got.CurrentTotal)
	assertDec(t, "900", got.TotalEconomy)
	assert.Equal(t, models.OrderTypeWholesale, got.OrderType)
	require.NotNil(t, got.AppliedTier)
	assertDec(t, "10", got.AppliedTier.Percent)
	assert.False(t, got.TierGap)
	assert.Nil(t, got.WholesaleUpsell)

	require.Len(t, got.Lines, 1)
	assertDec(t, "405", got.Lines[0].UnitPrice)
	assertDec(t, "8100", got.Lines[0].LineTotal)
	assertDec(t, "900", got.Lines[0].Economy)
	assertDec(t, "10", got.Lines[0].DiscountPercent)
}

func TestResolve_EmptyCart(t *testing.T) {
	cases := map[string]Settings{
		"typical": {
			MinRetailOrder:    dec("1000"),
			MinWholesaleOrder: dec("5000"),
			Tiers:             []models.WholesaleTier{tier("5000", "10")},
		},
		"zero thresholds": {
			Tiers: []models.WholesaleTier{tier("0", "50")},
		},
		"no settings": {},
	}

	for name, settings := range cases {
		t.Run(name, func(t *testing.T) {
			got := Resolve(nil, settings)
			assert.True(t, got.RetailTotal.IsZero())
			assert.True(t, got.CurrentTotal.IsZero())
			assert.True(t, got.TotalEconomy.IsZero())
			assert.Equal(t, models.OrderTypeRetail, got.OrderType)
			assert.Nil(t, got.AppliedTier)
			assert.Empty(t, got.Lines)
			assert.True(t, got.ProgressToMinOrder.Current.IsZero())
		})
	}
}

func TestResolve_RetailUpsellLadder(t *testing.T) {
	settings := Settings{
		MinWholesaleOrder: dec("5000"),
		Tiers:             []models.WholesaleTier{tier("10000", "15"), tier("5000", "10")},
	}

	got := Resolve([]models.CartLine{line("p1", "400", 10)}, settings)

	assertDec(t, "4000", got.RetailTotal)
	assertDec(t, "4000", got.CurrentTotal)
	assert.Equal(t, models.OrderTypeRetail, got.OrderType)
	require.NotNil(t, got.WholesaleUpsell)
	assertDec(t, "5000", got.WholesaleUpsell.NextTier.Amount)
	assertDec(t, "1000", got.WholesaleUpsell.Remaining)

	require.Len(t, got.WholesaleUpsell.Ladder, 2)
	assertDec(t, "5000", got.WholesaleUpsell.Ladder[0].Amount)
	assertDec(t, "1000", got.WholesaleUpsell.Ladder[0].Remaining)
	assertDec(t, "10000", got.WholesaleUpsell.Ladder[1].Amount)
	assertDec(t, "6000", got.WholesaleUpsell.Ladder[1].Remaining)
	assertDec(t, "15", got.WholesaleUpsell.Ladder[1].Percent)
}

func TestResolve_ThresholdIsInclusive(t *testing.T) {
	settings := Settings{
		MinWholesaleOrder: dec("5000"),
		Tiers:             []models.WholesaleTier{tier("5000", "5")},
	}

	atBoundary := Resolve([]models.CartLine{line("p1", "2500", 2)}, settings)
	assert.Equal(t, models.OrderTypeWholesale, atBoundary.OrderType)
	assertDec(t, "4750", atBoundary.CurrentTotal)
	assert.True(t, atBoundary.ProgressToWholesale.IsReached)
	assert.Equal(t, float64(100), atBoundary.ProgressToWholesale.Percentage)

	below := Resolve([]models.CartLine{line("p1", "4999.99", 1)}, settings)
	assert.Equal(t, models.OrderTypeRetail, below.OrderType)
	assertDec(t, "0.01", below.ProgressToWholesale.Remaining)
}

func TestResolve_HighestQualifyingTierWins(t *testing.T) {
	settings := Settings{
		MinWholesaleOrder: dec("5000"),
		Tiers: []models.WholesaleTier{
			tier("5000", "10"),
			tier("20000", "20"),
			tier("10000", "15"),
		},
	}

	got := Resolve([]models.CartLine{line("p1", "1000", 12)}, settings)

	require.NotNil(t, got.AppliedTier)
	assertDec(t, "10000", got.AppliedTier.Amount)
	assertDec(t, "10200", got.CurrentTotal)
	assertDec(t, "1800", got.TotalEconomy)
	assertDec(t, "5000", settings.Tiers[0].Amount, "caller's tier order must be preserved")
}

func TestResolve_WholesaleWithoutQualifyingTierIsFlagged(t *testing.T) {
	settings := Settings{
		MinWholesaleOrder: dec("3000"),
		Tiers:             []models.WholesaleTier{tier("5000", "10")},
	}

	got := Resolve([]models.CartLine{line("p1", "1000", 4)}, settings)

	assert.Equal(t, models.OrderTypeWholesale, got.OrderType)
	assert.True(t, got.TierGap)
	assert.Nil(t, got.AppliedTier)
	assertDec(t, "4000", got.CurrentTotal)
	assert.True(t, got.TotalEconomy.IsZero())
	assert.Nil(t, got.WholesaleUpsell)
}

func TestResolve_MalformedLinesAreExcluded(t *testing.T) {
	lines := []models.CartLine{
		line("p1", "100", 2),
		line("", "500", 1),
		line("p3", "100", -4),
		line("p4", "100", 0),
		{ProductID: "p5", UnitRetailPrice: dec("-10"), Quantity: 1},
		line("p6", "50", 1),
	}

	got := Resolve(lines, Settings{MinWholesaleOrder: dec("1000")})

	assertDec(t, "250", got.RetailTotal)
	require.Len(t, got.Lines, 2)
	require.Len(t, got.Anomalies, 4)
	assert.Equal(t, models.PricingAnomaly{LineIndex: 1, Reason: ReasonMissingProduct}, got.Anomalies[0])
	assert.Equal(t, ReasonInvalidQuantity, got.Anomalies[1].Reason)
	assert.Equal(t, "p3", got.Anomalies[1].ProductID)
	assert.Equal(t, ReasonInvalidQuantity, got.Anomalies[2].Reason)
	assert.Equal(t, ReasonNegativeUnitCost, got.Anomalies[3].Reason)
}

func TestResolve_PercentIsClampedAtEvaluation(t *testing.T) {
	cases := []struct {
		name    string
		percent string
		total   string
	}{
		{name: "above hundred", percent: "150", total: "0"},
		{name: "negative", percent: "-20", total: "6000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := Settings{
				MinWholesaleOrder: dec("5000"),
				Tiers:             []models.WholesaleTier{tier("5000", tc.percent)},
			}
			got := Resolve([]models.CartLine{line("p1", "3000", 2)}, settings)
			assertDec(t, tc.total, got.CurrentTotal)
			assert.False(t, got.CurrentTotal.IsNegative())
			assert.False(t, got.CurrentTotal.GreaterThan(got.RetailTotal))
		})
	}
}

func TestResolve_ZeroTargetProgress(t *testing.T) {
	settings := Settings{MinRetailOrder: decimal.Zero, MinWholesaleOrder: dec("5000")}

	for _, lines := range [][]models.CartLine{nil, {line("p1", "10", 1)}} {
		got := Resolve(lines, settings)
		assert.True(t, got.ProgressToMinOrder.IsReached)
		assert.Equal(t, float64(100), got.ProgressToMinOrder.Percentage)
		assert.True(t, got.ProgressToMinOrder.Remaining.IsZero())
	}
}

func TestResolve_ProgressIsCapped(t *testing.T) {
	settings := Settings{MinRetailOrder: dec("1000"), MinWholesaleOrder: dec("8000")}

	got := Resolve([]models.CartLine{line("p1", "1000", 3)}, settings)

	assert.Equal(t, float64(100), got.ProgressToMinOrder.Percentage)
	assert.True(t, got.ProgressToMinOrder.IsReached)
	assert.Equal(t, 37.5, got.ProgressToWholesale.Percentage)
	assertDec(t, "5000", got.ProgressToWholesale.Remaining)
	assert.False(t, got.ProgressToWholesale.IsReached)
}

func TestResolve_RetailTotalIsAdditive(t *testing.T) {
	lines := []models.CartLine{
		line("p1", "199.90", 3),
		line("p2", "1250", 7),
		line("p3", "0.05", 11),
	}
	tierSets := [][]models.WholesaleTier{
		nil,
		{tier("1000", "5")},
		{tier("1000", "5"), tier("5000", "12.5"), tier("9000", "30")},
	}

	want := decimal.Zero
	for _, l := range lines {
		want = want.Add(l.UnitRetailPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	for _, tiers := range tierSets {
		got := Resolve(lines, Settings{MinWholesaleOrder: dec("1000"), Tiers: tiers})
		assert.True(t, want.Equal(got.RetailTotal))
		assert.True(t, got.RetailTotal.Sub(got.CurrentTotal).Equal(got.TotalEconomy))
	}
}

func TestResolve_AddingLowerTierNeverReducesDiscount(t *testing.T) {
	lines := []models.CartLine{line("p1", "1000", 7)}
	base := []models.WholesaleTier{tier("5000", "10"), tier("6000", "12")}
	settings := Settings{MinWholesaleOrder: dec("1000"), Tiers: base}

	before := Resolve(lines, settings)

	settings.Tiers = append(append([]models.WholesaleTier{}, base...), tier("1000", "3"))
	after := Resolve(lines, settings)

	require.NotNil(t, before.AppliedTier)
	require.NotNil(t, after.AppliedTier)
	assert.True(t, after.AppliedTier.Percent.GreaterThanOrEqual(before.AppliedTier.Percent))
}

func TestResolve_IsIdempotent(t *testing.T) {
	lines := []models.CartLine{line("p1", "333.33", 3), line("p2", "10", 1)}
	settings := Settings{
		MinRetailOrder:    dec("500"),
		MinWholesaleOrder: dec("1000"),
		Tiers:             []models.WholesaleTier{tier("1000", "7.5")},
	}

	assert.Equal(t, Resolve(lines, settings), Resolve(lines, settings))
}
