package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"optovik-store/logger"
)

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultSettingsTTL     = 60 * time.Second
	defaultCartDebounce    = 500 * time.Millisecond
	defaultCartMaxDelay    = 5 * time.Second
	defaultCartIdleTTL     = 30 * time.Minute
	defaultMediaCacheDir   = "cache/media"
	defaultCurrency        = "rub"
	defaultTelegramBaseURL = "https://api.telegram.org"
	defaultOrderRPS        = 1.0
	defaultOrderBurst      = 5
)

// Config holds runtime configuration grouped by concern.
type Config struct {
	Env      string
	LogLevel string
	Server   ServerConfig
	Database DatabaseConfig
	Admin    AdminConfig
	Settings SettingsConfig
	Cart     CartConfig
	Payments PaymentsConfig
	Telegram TelegramConfig
	Delivery DeliveryConfig
	Drive    DriveConfig
	Media    MediaConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicURL is used when links have to point back at this API.
	PublicURL string
	// Per-client limit on checkout and tracking requests.
	OrderRPS   float64
	OrderBurst int
	// TrustedProxies are the only peers whose X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []netip.Prefix
}

// DatabaseConfig is empty when no database is configured; the app then runs in memory mode.
type DatabaseConfig struct {
	URL string
}

type AdminConfig struct {
	Token string
}

type SettingsConfig struct {
	TTL time.Duration
}

type CartConfig struct {
	Debounce time.Duration
	MaxDelay time.Duration
	IdleTTL  time.Duration
}

type PaymentsConfig struct {
	StripeAPIKey string
	Currency     string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

type DeliveryConfig struct {
	CarrierBaseURL string
	CarrierToken   string
	AllowedOrigin  string
}

type DriveConfig struct {
	CredentialsPath string
	FolderID        string
}

type MediaConfig struct {
	CacheDir   string
	ChromePath string
}

// LoadEnvFile loads variables from an .env file outside production.
// Values in the file override the process environment.
func LoadEnvFile(path string) {
	if os.Getenv("ENV") == "production" {
		return
	}
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Overload(path); err != nil {
		logger.Log.Infof("⚠️  .env file not found at %s, using system environment variables", path)
		return
	}
	logger.Log.Infof("✓ Loaded environment variables from %s", path)
}

// Load builds the configuration from the process environment.
func Load() (Config, error) {
	cfg := Config{
		Env:      getenv("ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:      strings.TrimPrefix(getenv("PORT", defaultPort), ":"),
			PublicURL: strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		},
		Database: DatabaseConfig{URL: databaseURL()},
		Admin:    AdminConfig{Token: strings.TrimSpace(os.Getenv("ADMIN_TOKEN"))},
		Payments: PaymentsConfig{
			StripeAPIKey: strings.TrimSpace(os.Getenv("STRIPE_API_KEY")),
			Currency:     strings.ToLower(getenv("PAYMENT_CURRENCY", defaultCurrency)),
		},
		Telegram: TelegramConfig{
			BotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
			ChatID:   strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
			BaseURL:  strings.TrimRight(getenv("TELEGRAM_API_URL", defaultTelegramBaseURL), "/"),
		},
		Delivery: DeliveryConfig{
			CarrierBaseURL: strings.TrimRight(os.Getenv("CARRIER_API_URL"), "/"),
			CarrierToken:   strings.TrimSpace(os.Getenv("CARRIER_API_TOKEN")),
			AllowedOrigin:  getenv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Drive: DriveConfig{
			CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			FolderID:        os.Getenv("MEDIA_DRIVE_FOLDER_ID"),
		},
		Media: MediaConfig{
			CacheDir:   getenv("MEDIA_CACHE_DIR", defaultMediaCacheDir),
			ChromePath: os.Getenv("CHROME_PATH"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = durationEnv("SERVER_READ_TIMEOUT", defaultReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.WriteTimeout, err = durationEnv("SERVER_WRITE_TIMEOUT", defaultWriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Settings.TTL, err = durationEnv("SETTINGS_TTL", defaultSettingsTTL); err != nil {
		return Config{}, err
	}
	if cfg.Cart.Debounce, err = durationEnv("CART_SAVE_DEBOUNCE", defaultCartDebounce); err != nil {
		return Config{}, err
	}
	if cfg.Cart.MaxDelay, err = durationEnv("CART_SAVE_MAX_DELAY", defaultCartMaxDelay); err != nil {
		return Config{}, err
	}
	if cfg.Cart.IdleTTL, err = durationEnv("CART_IDLE_TTL", defaultCartIdleTTL); err != nil {
		return Config{}, err
	}
	if cfg.Server.TrustedProxies, err = prefixListEnv("TRUSTED_PROXIES"); err != nil {
		return Config{}, err
	}
	if cfg.Server.OrderRPS, err = floatEnv("ORDER_RATE_RPS", defaultOrderRPS); err != nil {
		return Config{}, err
	}
	if cfg.Server.OrderBurst, err = intEnv("ORDER_RATE_BURST", defaultOrderBurst); err != nil {
		return Config{}, err
	}
	if cfg.Cart.MaxDelay < cfg.Cart.Debounce {
		return Config{}, fmt.Errorf("CART_SAVE_MAX_DELAY (%s) must not be shorter than CART_SAVE_DEBOUNCE (%s)", cfg.Cart.MaxDelay, cfg.Cart.Debounce)
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the individual DB_* variables.
func databaseURL() string {
	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		return url
	}
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, getenv("DB_PORT", "5432"), user, os.Getenv("DB_PASSWORD"), name, getenv("DB_SSLMODE", "disable"))
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("750ms") or plain seconds ("30").
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return v, nil
}

// prefixListEnv parses a comma separated list of CIDRs or bare addresses.
func prefixListEnv(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("invalid %s entry %q: %w", key, item, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, item, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
