package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"optovik-store/models"
)

func TestMemo_ReturnsCachedSummaryForIdenticalInputs(t *testing.T) {
	memo := NewMemo(8)
	settings := Settings{MinWholesaleOrder: dec("5000"), Tiers: []models.WholesaleTier{tier("5000", "10")}}
	lines := []models.CartLine{line("p1", "450", 20)}

	first := memo.Resolve(lines, settings)
	second := memo.Resolve([]models.CartLine{line("p1", "450", 20)}, settings)

	assert.Equal(t, first, second)
	hits, misses := memo.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestMemo_RecomputesOnChange(t *testing.T) {
	memo := NewMemo(8)
	settings := Settings{MinWholesaleOrder: dec("5000"), Tiers: []models.WholesaleTier{tier("5000", "10")}}

	retail := memo.Resolve([]models.CartLine{line("p1", "450", 2)}, settings)
	wholesale := memo.Resolve([]models.CartLine{line("p1", "450", 20)}, settings)

	assert.Equal(t, models.OrderTypeRetail, retail.OrderType)
	assert.Equal(t, models.OrderTypeWholesale, wholesale.OrderType)

	settings.Tiers = []models.WholesaleTier{tier("5000", "20")}
	changed := memo.Resolve([]models.CartLine{line("p1", "450", 20)}, settings)
	assertDec(t, "7200", changed.CurrentTotal)
}

func TestMemo_EvictsWhenFull(t *testing.T) {
	memo := NewMemo(2)
	settings := Settings{}

	for qty := 1; qty <= 5; qty++ {
		memo.Resolve([]models.CartLine{line("p1", "10", qty)}, settings)
	}

	assert.LessOrEqual(t, len(memo.entries), 2)
}

func TestKey_DistinguishesFieldBoundaries(t *testing.T) {
	a := []models.CartLine{{ProductID: "ab", SelectedColor: "c", UnitRetailPrice: dec("1"), Quantity: 1}}
	b := []models.CartLine{{ProductID: "a", SelectedColor: "bc", UnitRetailPrice: dec("1"), Quantity: 1}}

	assert.NotEqual(t, Key(a, Settings{}), Key(b, Settings{}))
}
