package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "DB_HOST", "DB_USER", "DB_NAME", "SETTINGS_TTL",
		"CART_SAVE_DEBOUNCE", "CART_SAVE_MAX_DELAY", "PAYMENT_CURRENCY", "ORDER_RATE_RPS", "ORDER_RATE_BURST",
		"CART_IDLE_TTL", "TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultSettingsTTL, cfg.Settings.TTL)
	assert.Equal(t, defaultCartDebounce, cfg.Cart.Debounce)
	assert.Equal(t, defaultCartMaxDelay, cfg.Cart.MaxDelay)
	assert.Equal(t, "rub", cfg.Payments.Currency)
	assert.Equal(t, defaultOrderRPS, cfg.Server.OrderRPS)
	assert.Equal(t, defaultOrderBurst, cfg.Server.OrderBurst)
	assert.Equal(t, defaultCartIdleTTL, cfg.Cart.IdleTTL)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("SETTINGS_TTL", "30")
	t.Setenv("CART_SAVE_DEBOUNCE", "250ms")
	t.Setenv("CART_SAVE_MAX_DELAY", "2s")
	t.Setenv("PAYMENT_CURRENCY", "RUB")
	t.Setenv("TELEGRAM_API_URL", "http://localhost:8081/")
	t.Setenv("ORDER_RATE_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Settings.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Cart.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Cart.MaxDelay)
	assert.Equal(t, "rub", cfg.Payments.Currency)
	assert.Equal(t, "http://localhost:8081", cfg.Telegram.BaseURL)
	assert.Equal(t, 0.5, cfg.Server.OrderRPS)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", " 10.1.2.3/8, 127.0.0.1 ,::1,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Server.TrustedProxies, 3)
	assert.Equal(t, "10.0.0.0/8", cfg.Server.TrustedProxies[0].String())
	assert.Equal(t, "127.0.0.1/32", cfg.Server.TrustedProxies[1].String())
	assert.Equal(t, "::1/128", cfg.Server.TrustedProxies[2].String())
}

func TestLoad_DatabaseFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_NAME", "optovik")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SSLMODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=shop password=secret dbname=optovik sslmode=disable", cfg.Database.URL)

	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h/db", cfg.Database.URL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"bad duration":       {"SETTINGS_TTL", "soon"},
		"max below debounce": {"CART_SAVE_MAX_DELAY", "100ms"},
		"non-positive rps":   {"ORDER_RATE_RPS", "0"},
		"non-numeric burst":  {"ORDER_RATE_BURST", "many"},
		"bad proxy entry":    {"TRUSTED_PROXIES", "10.0.0.0/8, gateway"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CART_SAVE_DEBOUNCE", "")
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("OPTOVIK_TEST_VALUE", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPTOVIK_TEST_VALUE=from-file\n"), 0o600))

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("OPTOVIK_TEST_VALUE"))
}

func TestLoadEnvFile_SkippedInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("OPTOVIK_TEST_VALUE", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPTOVIK_TEST_VALUE=from-file\n"), 0o600))

	LoadEnvFile(path)
	assert.Equal(t, "from-env", os.Getenv("OPTOVIK_TEST_VALUE"))
}
