package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository/memory"
)

func TestSettingsProvider_Reads(t *testing.T) {
	p, _ := newLoadedProvider(t, map[string]string{
		models.SettingMinOrderAmount:      "5 000,50",
		models.SettingStoreName:           "  ",
		models.SettingWholesaleGradations: `[{"amount":"5000","percent":"10"}]`,
		"broken_number":                   "много",
	})

	assert.Equal(t, "default", p.GetSetting(models.SettingStoreName, "default"))
	assert.Equal(t, "fallback", p.GetSetting("missing", "fallback"))
	assertDec(t, "5000.5", p.GetSettingAsNumber(models.SettingMinOrderAmount, dec("0")))
	assertDec(t, "7", p.GetSettingAsNumber("broken_number", dec("7")))

	tiers := p.GetWholesaleGradations()
	require.Len(t, tiers, 1)
	assertDec(t, "10", tiers[0].Percent)

	all := p.All()
	require.Len(t, all, 4)
	assert.Equal(t, "broken_number", all[0].Key)
}

func TestSettingsProvider_UnparsableGradations(t *testing.T) {
	p, _ := newLoadedProvider(t, map[string]string{models.SettingWholesaleGradations: "{not json"})
	assert.Empty(t, p.GetWholesaleGradations())
	assert.NotNil(t, p.GetWholesaleGradations())
}

func TestSettingsProvider_StaleWhileRevalidate(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewSettingsStore(map[string]string{models.SettingStoreName: "v1"})
	p := NewSettingsProvider(SettingsProviderDeps{Repository: store, TTL: time.Minute, Clock: clock.Now})
	require.NoError(t, p.Load(context.Background()))

	require.NoError(t, store.Set(context.Background(), models.SettingStoreName, "v2"))

	// Fresh cache: the store is not consulted.
	assert.Equal(t, "v1", p.GetSetting(models.SettingStoreName, ""))
	p.Wait()
	assert.Equal(t, "v1", p.GetSetting(models.SettingStoreName, ""))

	// Stale cache: the old value is served while a refresh runs.
	clock.Advance(2 * time.Minute)
	assert.Equal(t, "v1", p.GetSetting(models.SettingStoreName, ""))
	p.Wait()
	assert.Equal(t, "v2", p.GetSetting(models.SettingStoreName, ""))
}

func TestSettingsProvider_KeepsLastKnownGood(t *testing.T) {
	clock := newFakeClock()
	store := memory.NewSettingsStore(map[string]string{models.SettingMinOrderAmount: "3000"})
	p := NewSettingsProvider(SettingsProviderDeps{Repository: store, TTL: time.Minute, Clock: clock.Now})
	require.NoError(t, p.Load(context.Background()))

	store.SetErr(errors.New("connection refused"))
	clock.Advance(2 * time.Minute)

	assertDec(t, "3000", p.GetSettingAsNumber(models.SettingMinOrderAmount, dec("0")))
	p.Wait()
	assertDec(t, "3000", p.GetSettingAsNumber(models.SettingMinOrderAmount, dec("0")))
	assert.Error(t, p.Refresh(context.Background()))
	assertDec(t, "3000", p.GetSettingAsNumber(models.SettingMinOrderAmount, dec("0")))

	store.SetErr(nil)
	clock.Advance(2 * time.Minute)
	p.GetSetting(models.SettingMinOrderAmount, "")
	p.Wait()
	assertDec(t, "3000", p.GetSettingAsNumber(models.SettingMinOrderAmount, dec("0")))
}

func TestSettingsProvider_ReadBeforeLoad(t *testing.T) {
	store := memory.NewSettingsStore(map[string]string{models.SettingStoreName: "Оптовик"})
	p := NewSettingsProvider(SettingsProviderDeps{Repository: store})
	assert.Equal(t, "Оптовик", p.GetSetting(models.SettingStoreName, ""))

	failing := memory.NewSettingsStore(nil)
	failing.SetErr(errors.New("down"))
	q := NewSettingsProvider(SettingsProviderDeps{Repository: failing})
	assert.Equal(t, "def", q.GetSetting(models.SettingStoreName, "def"))
	assertDec(t, "0", q.PricingSettings().MinRetailOrder)
	q.Wait()
}

func TestSettingsProvider_SetValidatesNumbers(t *testing.T) {
	audit := &recordingAudit{}
	store := memory.NewSettingsStore(nil)
	p := NewSettingsProvider(SettingsProviderDeps{Repository: store, Audit: audit, TTL: time.Hour})
	require.NoError(t, p.Load(context.Background()))
	ctx := context.Background()

	assert.ErrorIs(t, p.Set(ctx, "admin", models.SettingMinOrderAmount, "-5"), ErrInvalidSetting)
	assert.ErrorIs(t, p.Set(ctx, "admin", models.SettingMinOrderAmount, "abc"), ErrInvalidSetting)
	assert.ErrorIs(t, p.Set(ctx, "admin", " ", "x"), ErrInvalidSetting)

	require.NoError(t, p.Set(ctx, "admin", models.SettingMinOrderAmount, "3 000"))
	assert.Equal(t, "3000", p.GetSetting(models.SettingMinOrderAmount, ""))
	stored, _ := store.GetAll(ctx)
	assert.Equal(t, "3000", stored[models.SettingMinOrderAmount])
	assert.Equal(t, []string{AuditSettingUpdated}, audit.actions())
}

func TestSettingsProvider_TierCoverage(t *testing.T) {
	ctx := context.Background()
	p, store := newLoadedProvider(t, wholesaleSettings())

	// Moving the threshold alone would leave a gap below the lowest tier.
	assert.ErrorIs(t, p.Set(ctx, "admin", models.SettingMinWholesaleOrderAmount, "4000"), ErrTierCoverage)

	err := p.SetGradations(ctx, "admin", models.UpdateGradationsRequest{
		Tiers: []models.WholesaleTier{{Amount: dec("6000"), Percent: dec("10")}},
	})
	assert.ErrorIs(t, err, ErrTierCoverage)

	// Threshold and tiers move together.
	threshold := dec("4000")
	require.NoError(t, p.SetGradations(ctx, "admin", models.UpdateGradationsRequest{
		Tiers: []models.WholesaleTier{
			{Amount: dec("8000"), Percent: dec("12")},
			{Amount: dec("4000"), Percent: dec("5")},
		},
		MinWholesaleOrderAmount: &threshold,
	}))

	ps := p.PricingSettings()
	assertDec(t, "4000", ps.MinWholesaleOrder)
	require.Len(t, ps.Tiers, 2)
	assertDec(t, "4000", ps.Tiers[0].Amount)

	stored, _ := store.GetAll(ctx)
	assert.Equal(t, "4000", stored[models.SettingMinWholesaleOrderAmount])

	// Clearing the tiers lifts the rule.
	require.NoError(t, p.SetGradations(ctx, "admin", models.UpdateGradationsRequest{}))
	require.NoError(t, p.Set(ctx, "admin", models.SettingMinWholesaleOrderAmount, "9000"))
}

func TestSettingsProvider_PricingSettingsNeverTorn(t *testing.T) {
	ctx := context.Background()
	p, _ := newLoadedProvider(t, wholesaleSettings())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 300; i++ {
			threshold := dec("5000")
			if i%2 == 1 {
				threshold = dec("7000")
			}
			err := p.SetGradations(ctx, "admin", models.UpdateGradationsRequest{
				Tiers:                   []models.WholesaleTier{{Amount: threshold, Percent: dec("10")}},
				MinWholesaleOrderAmount: &threshold,
			})
			assert.NoError(t, err)
		}
	}()

	for {
		ps := p.PricingSettings()
		require.NotEmpty(t, ps.Tiers)
		require.Truef(t, ps.Tiers[0].Amount.Equal(ps.MinWholesaleOrder),
			"tiers start at %s but threshold is %s", ps.Tiers[0].Amount, ps.MinWholesaleOrder)
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
	}
}

func TestSettingsProvider_GradationValidation(t *testing.T) {
	ctx := context.Background()
	p, _ := newLoadedProvider(t, map[string]string{models.SettingMinWholesaleOrderAmount: "5000"})

	tests := map[string]models.UpdateGradationsRequest{
		"percent above 100": {Tiers: []models.WholesaleTier{{Amount: dec("5000"), Percent: dec("120")}}},
		"negative amount":   {Tiers: []models.WholesaleTier{{Amount: dec("-1"), Percent: dec("5")}}},
		"duplicate amount": {Tiers: []models.WholesaleTier{
			{Amount: dec("5000"), Percent: dec("5")},
			{Amount: dec("5000"), Percent: dec("7")},
		}},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.SetGradations(ctx, "admin", req), ErrInvalidSetting)
		})
	}

	assert.ErrorIs(t, p.Set(ctx, "admin", models.SettingWholesaleGradations, "not json"), ErrInvalidSetting)
	require.NoError(t, p.Set(ctx, "admin", models.SettingWholesaleGradations, `[{"amount":"5000","percent":"10"}]`))
	assert.Len(t, p.GetWholesaleGradations(), 1)
}

func TestSettingsProvider_StoreFailureOnWrite(t *testing.T) {
	p, store := newLoadedProvider(t, map[string]string{models.SettingStoreName: "old"})
	store.SetErr(errors.New("read only"))

	err := p.Set(context.Background(), "admin", models.SettingStoreName, "new")
	require.Error(t, err)
	assert.Equal(t, "old", p.GetSetting(models.SettingStoreName, ""))
}
