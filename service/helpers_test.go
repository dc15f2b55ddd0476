package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type auditCall struct {
	actor, action, target string
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAudit) Record(_ context.Context, actor, action, target string, _ interface{}) {
	a.mu.Lock()
	a.calls = append(a.calls, auditCall{actor, action, target})
	a.mu.Unlock()
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.calls))
	for _, c := range a.calls {
		out = append(out, c.action)
	}
	return out
}

func seedProduct(t *testing.T, store *memory.ProductStore, id, article, price string, colors, sizes []string) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:          id,
		Article:     article,
		Name:        "Товар " + article,
		Category:    "Одежда",
		RetailPrice: dec(price),
		Colors:      colors,
		Sizes:       sizes,
		IsActive:    true,
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

// wholesaleSettings is the 450×20 scenario setup: retail from 1000, wholesale from 5000 at 10%.
func wholesaleSettings() map[string]string {
	return map[string]string{
		models.SettingMinOrderAmount:          "1000",
		models.SettingMinWholesaleOrderAmount: "5000",
		models.SettingWholesaleGradations:     `[{"amount":"5000","percent":"10"},{"amount":"10000","percent":"15"}]`,
	}
}

func newLoadedProvider(t *testing.T, seed map[string]string) (*SettingsProvider, *memory.SettingsStore) {
	t.Helper()
	store := memory.NewSettingsStore(seed)
	p := NewSettingsProvider(SettingsProviderDeps{Repository: store, TTL: time.Hour})
	require.NoError(t, p.Load(context.Background()))
	return p, store
}
