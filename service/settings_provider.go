package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/pricing"
	"optovik-store/repository"
	"optovik-store/utils"
)

var (
	// ErrInvalidSetting is returned when an admin update carries an unusable value.
	ErrInvalidSetting = errors.New("invalid setting value")
	// ErrTierCoverage is returned when the lowest tier does not start at the wholesale threshold.
	ErrTierCoverage = errors.New("lowest wholesale tier must equal the minimum wholesale order amount")
)

const defaultSettingsTTL = time.Minute

// SettingsProviderDeps bundles constructor inputs for SettingsProvider.
type SettingsProviderDeps struct {
	Repository repository.SettingsRepositoryInterface
	TTL        time.Duration
	Clock      func() time.Time
	Audit      AuditRecorder
}

// SettingsProvider serves site settings from a cache that is revalidated in the background.
// Once loaded, reads never wait for the store. A stale read schedules at most one refresh,
// and a failed refresh keeps the last values that loaded successfully.
type SettingsProvider struct {
	repo  repository.SettingsRepositoryInterface
	ttl   time.Duration
	clock func() time.Time
	audit AuditRecorder

	mu         sync.RWMutex
	values     map[string]string
	loadedAt   time.Time
	loaded     bool
	attempted  bool
	refreshing bool
	// gen counts admin writes so a refresh that read the store earlier cannot undo them.
	gen uint64

	// writeMu serializes admin updates so coverage checks see a consistent pair.
	writeMu sync.Mutex
	bg      sync.WaitGroup
}

// NewSettingsProvider creates a provider. Call Load once at startup.
func NewSettingsProvider(deps SettingsProviderDeps) *SettingsProvider {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultSettingsTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	audit := deps.Audit
	if audit == nil {
		audit = noopAudit{}
	}
	return &SettingsProvider{
		repo:   deps.Repository,
		ttl:    ttl,
		clock:  clock,
		audit:  audit,
		values: map[string]string{},
	}
}

// Load reads all settings synchronously.
func (p *SettingsProvider) Load(ctx context.Context) error {
	return p.Refresh(ctx)
}

// Refresh reloads settings from the store. On failure the cached values are kept.
func (p *SettingsProvider) Refresh(ctx context.Context) error {
	p.mu.RLock()
	startGen := p.gen
	p.mu.RUnlock()

	values, err := p.repo.GetAll(ctx)
	if err != nil {
		logger.Log.Warnf("⚠️  Settings refresh failed, keeping last known values: %v", err)
		return fmt.Errorf("failed to refresh settings: %w", err)
	}

	p.mu.Lock()
	if p.gen == startGen {
		p.values = values
	}
	p.loadedAt = p.clock()
	p.loaded = true
	p.mu.Unlock()

	logger.Log.Debugf("⚙️  Settings refreshed: %d keys", len(values))
	return nil
}

// Wait blocks until background refreshes finish. Used on shutdown.
func (p *SettingsProvider) Wait() {
	p.bg.Wait()
}

// snapshot returns the current values and schedules a refresh when they are stale.
func (p *SettingsProvider) snapshot() map[string]string {
	p.mu.Lock()
	firstRead := !p.loaded && !p.attempted
	p.attempted = true
	p.mu.Unlock()
	if firstRead {
		// Read before Load: one synchronous attempt, defaults on failure.
		if err := p.Refresh(context.Background()); err != nil {
			p.mu.Lock()
			p.loadedAt = p.clock()
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	values := p.values
	stale := p.clock().Sub(p.loadedAt) >= p.ttl
	startRefresh := stale && !p.refreshing
	if startRefresh {
		p.refreshing = true
		p.bg.Add(1)
	}
	p.mu.Unlock()

	if startRefresh {
		go func() {
			defer p.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := p.Refresh(ctx); err != nil {
				// Retry no sooner than one TTL from now.
				p.mu.Lock()
				p.loadedAt = p.clock()
				p.mu.Unlock()
			}
			p.mu.Lock()
			p.refreshing = false
			p.mu.Unlock()
		}()
	}
	return values
}

// GetSetting returns the raw value of key or def when it is missing or blank.
func (p *SettingsProvider) GetSetting(key, def string) string {
	if v, ok := p.snapshot()[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// GetSettingAsNumber parses the value of key as a number, returning def when it is not numeric.
func (p *SettingsProvider) GetSettingAsNumber(key string, def decimal.Decimal) decimal.Decimal {
	return numberSetting(p.snapshot(), key, def)
}

func numberSetting(values map[string]string, key string, def decimal.Decimal) decimal.Decimal {
	raw, ok := values[key]
	if !ok {
		return def
	}
	n, err := utils.ParseNumber(raw)
	if err != nil {
		return def
	}
	return n
}

// GetWholesaleGradations parses the tier list. Unparsable JSON yields an empty list.
func (p *SettingsProvider) GetWholesaleGradations() []models.WholesaleTier {
	return parseGradations(p.snapshot()[models.SettingWholesaleGradations])
}

// PricingSettings bundles the values the pricing resolver needs, all read from one cached generation.
func (p *SettingsProvider) PricingSettings() pricing.Settings {
	values := p.snapshot()
	return pricing.Settings{
		MinRetailOrder:    numberSetting(values, models.SettingMinOrderAmount, decimal.Zero),
		MinWholesaleOrder: numberSetting(values, models.SettingMinWholesaleOrderAmount, decimal.Zero),
		Tiers:             parseGradations(values[models.SettingWholesaleGradations]),
	}
}

// All returns a copy of every cached setting.
func (p *SettingsProvider) All() []models.Setting {
	values := p.snapshot()
	out := make([]models.Setting, 0, len(values))
	for k, v := range values {
		out = append(out, models.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Set stores one setting. Threshold and gradation keys are validated against each other.
func (p *SettingsProvider) Set(ctx context.Context, actor, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidSetting)
	}

	switch key {
	case models.SettingWholesaleGradations:
		var tiers []models.WholesaleTier
		if err := json.Unmarshal([]byte(value), &tiers); err != nil {
			return fmt.Errorf("%w: gradations must be a JSON list: %v", ErrInvalidSetting, err)
		}
		return p.SetGradations(ctx, actor, models.UpdateGradationsRequest{Tiers: tiers})
	case models.SettingMinWholesaleOrderAmount, models.SettingMinOrderAmount:
		n, err := utils.ParseNumber(value)
		if err != nil || n.IsNegative() {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidSetting, key)
		}
		value = n.String()
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if key == models.SettingMinWholesaleOrderAmount {
		threshold, _ := decimal.NewFromString(value)
		if err := checkCoverage(p.GetWholesaleGradations(), threshold); err != nil {
			return err
		}
	}

	if err := p.repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	p.put(map[string]string{key: value})
	p.audit.Record(ctx, actor, AuditSettingUpdated, key, value)
	logger.Log.Infof("✅ Setting %s updated by %s", key, actor)
	return nil
}

// SetGradations validates and stores the tier list, optionally with a new wholesale threshold.
func (p *SettingsProvider) SetGradations(ctx context.Context, actor string, req models.UpdateGradationsRequest) error {
	if err := utils.Validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	seen := make(map[string]struct{}, len(req.Tiers))
	for _, t := range req.Tiers {
		k := t.Amount.String()
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate tier amount %s", ErrInvalidSetting, k)
		}
		seen[k] = struct{}{}
	}
	if req.MinWholesaleOrderAmount != nil && req.MinWholesaleOrderAmount.IsNegative() {
		return fmt.Errorf("%w: minimum wholesale order amount must not be negative", ErrInvalidSetting)
	}

	tiers := append([]models.WholesaleTier(nil), req.Tiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Amount.LessThan(tiers[j].Amount) })

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	threshold := p.GetSettingAsNumber(models.SettingMinWholesaleOrderAmount, decimal.Zero)
	if req.MinWholesaleOrderAmount != nil {
		threshold = *req.MinWholesaleOrderAmount
	}
	if err := checkCoverage(tiers, threshold); err != nil {
		return err
	}

	raw, err := json.Marshal(tiers)
	if err != nil {
		return fmt.Errorf("failed to encode gradations: %w", err)
	}

	updates := map[string]string{models.SettingWholesaleGradations: string(raw)}
	if req.MinWholesaleOrderAmount != nil {
		updates[models.SettingMinWholesaleOrderAmount] = threshold.String()
		if err := p.repo.Set(ctx, models.SettingMinWholesaleOrderAmount, threshold.String()); err != nil {
			return fmt.Errorf("failed to save wholesale threshold: %w", err)
		}
	}
	if err := p.repo.Set(ctx, models.SettingWholesaleGradations, string(raw)); err != nil {
		return fmt.Errorf("failed to save gradations: %w", err)
	}
	p.put(updates)
	p.audit.Record(ctx, actor, AuditGradationsUpdated, models.SettingWholesaleGradations, updates)
	logger.Log.Infof("✅ Wholesale gradations updated by %s: %d tiers", actor, len(tiers))
	return nil
}

// put writes values through to the cache without waiting for the next refresh.
func (p *SettingsProvider) put(updates map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := make(map[string]string, len(p.values)+len(updates))
	for k, v := range p.values {
		next[k] = v
	}
	for k, v := range updates {
		next[k] = v
	}
	p.values = next
	p.gen++
}

// checkCoverage requires a non-empty tier list to start exactly at the wholesale threshold,
// so every wholesale cart qualifies for some tier.
func checkCoverage(tiers []models.WholesaleTier, threshold decimal.Decimal) error {
	if len(tiers) == 0 {
		return nil
	}
	lowest := tiers[0].Amount
	for _, t := range tiers[1:] {
		if t.Amount.LessThan(lowest) {
			lowest = t.Amount
		}
	}
	if !lowest.Equal(threshold) {
		return fmt.Errorf("%w: lowest tier %s, threshold %s", ErrTierCoverage, lowest, threshold)
	}
	return nil
}

func parseGradations(raw string) []models.WholesaleTier {
	if strings.TrimSpace(raw) == "" {
		return []models.WholesaleTier{}
	}
	var tiers []models.WholesaleTier
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		logger.Log.Warnf("⚠️  Unparsable %s setting: %v", models.SettingWholesaleGradations, err)
		return []models.WholesaleTier{}
	}
	if tiers == nil {
		tiers = []models.WholesaleTier{}
	}
	return tiers
}
