package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/osse101/SmartList_Go/internal/domain"
)

// Config holds the application configuration
type Config struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	LogLevel       string
	LogFormat      string
	ServiceName    string
	Version        string
	Environment    string

	StoreBackend   string
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
	DBMaxConns     int
	SnapshotDBPath string

	PromoCatalogPath string

	PurchasePlatform     domain.Platform
	RevenueCatKeyIOS     string
	RevenueCatKeyAndroid string
	RevenueCatBaseURL    string
	PurchaseInitTimeout  time.Duration

	Location *time.Location

	StripeSecretKey    string
	StripePrices       map[domain.ProductFamily]map[domain.BillingPeriod]string
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	SessionCacheSize int
	SessionTTL       time.Duration

	EventMaxRetries     int
	EventRetryDelay     time.Duration
	EventDeadLetterPath string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:      getEnv("API_KEY", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "smartlist-entitlements"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),

		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBName:         getEnv("DB_NAME", "smartlist"),
		DBMaxConns:     getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", DefaultSnapshotDBPath),

		PromoCatalogPath: getEnv("PROMO_CATALOG_PATH", ""),

		PurchasePlatform:     domain.Platform(strings.ToLower(getEnv("PURCHASE_PLATFORM", string(domain.PlatformWeb)))),
		RevenueCatKeyIOS:     getEnv("REVENUECAT_API_KEY_IOS", ""),
		RevenueCatKeyAndroid: getEnv("REVENUECAT_API_KEY_ANDROID", ""),
		RevenueCatBaseURL:    getEnv("REVENUECAT_BASE_URL", DefaultRevenueCatBaseURL),
		PurchaseInitTimeout:  getEnvAsDuration("PURCHASE_INIT_TIMEOUT", mustDuration(DefaultPurchaseInitTimeout)),

		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", ""),
		StripePrices: map[domain.ProductFamily]map[domain.BillingPeriod]string{
			domain.FamilyPremium: {
				domain.PeriodMonthly: getEnv("STRIPE_PRICE_PREMIUM_MONTHLY", ""),
				domain.PeriodYearly:  getEnv("STRIPE_PRICE_PREMIUM_YEARLY", ""),
			},
			domain.FamilyPro: {
				domain.PeriodMonthly: getEnv("STRIPE_PRICE_PRO_MONTHLY", ""),
				domain.PeriodYearly:  getEnv("STRIPE_PRICE_PRO_YEARLY", ""),
			},
		},

		SessionCacheSize: getEnvAsInt("SESSION_CACHE_SIZE", DefaultSessionCacheSize),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", mustDuration(DefaultSessionTTL)),

		EventMaxRetries:     getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay:     getEnvAsDuration("EVENT_RETRY_DELAY", mustDuration(DefaultEventRetryDelay)),
		EventDeadLetterPath: getEnv("EVENT_DEADLETTER_PATH", DefaultEventDeadLetterPath),
	}

	port, err := strconv.Atoi(getEnv("PORT", strconv.Itoa(DefaultPort)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidPort, err)
	}
	cfg.Port = port
	cfg.TrustedProxies = splitList(getEnv("TRUSTED_PROXIES", ""))

	loc, err := loadLocation(getEnv("TIMEZONE", DefaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidTimezone, err)
	}
	cfg.Location = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s", ErrMsgAPIKeyRequired)
	}

	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		return fmt.Errorf("%s: %q", ErrMsgInvalidStoreBackend, c.StoreBackend)
	}

	switch c.PurchasePlatform {
	case domain.PlatformIOS, domain.PlatformAndroid, domain.PlatformWeb:
	default:
		return fmt.Errorf("%s: %q", ErrMsgInvalidPlatform, c.PurchasePlatform)
	}

	if c.PurchasePlatform.IsNative() && c.RevenueCatAPIKey() == "" {
		return fmt.Errorf("%s", ErrMsgMissingPurchaseKey)
	}

	if c.PurchaseInitTimeout <= 0 {
		return fmt.Errorf("%s", ErrMsgInvalidInitTimeout)
	}

	return nil
}

// RevenueCatAPIKey returns the platform specific public SDK key
func (c *Config) RevenueCatAPIKey() string {
	switch c.PurchasePlatform {
	case domain.PlatformIOS:
		return c.RevenueCatKeyIOS
	case domain.PlatformAndroid:
		return c.RevenueCatKeyAndroid
	default:
		return ""
	}
}

// CheckoutEnabled reports whether web checkout can be offered
func (c *Config) CheckoutEnabled() bool {
	return c.StripeSecretKey != "" && c.CheckoutSuccessURL != "" && c.CheckoutCancelURL != ""
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
