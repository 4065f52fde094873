package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-envio/internal/quote"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	AdminAPIToken      string

	// Shipment-level quote parameters.
	DivisorDimCm      float64
	BaseFee           float64
	CostPerKm         float64
	MinKm             float64
	RuralSurchargePct float64
	DiscountTiers     string
	CurrencyCode      string

	// Per-item rate parameters. When disabled the variable charge is
	// neutralised and only the shared fees are billed.
	ItemRateEnabled             bool
	ItemRateDivisorDimCm        float64
	ItemRateBaseCost            float64
	ItemRateCostPerKg           float64
	ItemRateOverweightThreshold float64
	ItemRateOverweightPerKg     float64
	ItemRateFragilePct          float64
	ItemRateInsurancePct        float64
	ItemRateInsuranceMin        float64

	TariffCacheTTL   time.Duration
	IdempotencyTTL   time.Duration
	RateLimitQuotes  int
	RateLimitWindow  time.Duration
	NotifyOnAdvance  bool
	ShutdownTimeout  time.Duration
	DBMaxOpenConns   int
	DBMaxIdleConns   int

	MaxBodyBytes          int64
	SecurityHeadersEnable bool
	HSTSEnable            bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AdminAPIToken:      strings.TrimSpace(k.String("ADMIN_API_TOKEN")),

		DivisorDimCm:      floatOrDefault(k, "SHIPPING_DIVISOR_DIM_CM", 5000),
		BaseFee:           floatOrDefault(k, "SHIPPING_BASE_FEE", 5),
		CostPerKm:         floatOrDefault(k, "SHIPPING_COST_PER_KM", 0.4),
		MinKm:             floatOrDefault(k, "SHIPPING_MIN_KM", 3),
		RuralSurchargePct: floatOrDefault(k, "SHIPPING_RURAL_SURCHARGE_PCT", 0.1),
		DiscountTiers:     valueOrDefault(k.String("SHIPPING_DISCOUNT_TIERS"), "200:0.05,400:0.1,700:0.15"),
		CurrencyCode:      valueOrDefault(k.String("CURRENCY_CODE"), "Q"),

		ItemRateEnabled:             boolOrDefault(k, "ITEM_RATE_ENABLED", true),
		ItemRateDivisorDimCm:        floatOrDefault(k, "ITEM_RATE_DIVISOR_DIM_CM", 5000),
		ItemRateBaseCost:            floatOrDefault(k, "ITEM_RATE_BASE_COST", 10),
		ItemRateCostPerKg:           floatOrDefault(k, "ITEM_RATE_COST_PER_KG", 2.5),
		ItemRateOverweightThreshold: floatOrDefault(k, "ITEM_RATE_OVERWEIGHT_THRESHOLD_KG", 20),
		ItemRateOverweightPerKg:     floatOrDefault(k, "ITEM_RATE_OVERWEIGHT_PER_KG", 1.2),
		ItemRateFragilePct:          floatOrDefault(k, "ITEM_RATE_FRAGILE_PCT", 0.10),
		ItemRateInsurancePct:        floatOrDefault(k, "ITEM_RATE_INSURANCE_PCT", 0.015),
		ItemRateInsuranceMin:        floatOrDefault(k, "ITEM_RATE_INSURANCE_MIN", 1),

		TariffCacheTTL:  parseDuration(k.String("TARIFF_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitQuotes: intOrDefault(k, "RATE_LIMIT_QUOTES", 60),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		NotifyOnAdvance: boolOrDefault(k, "NOTIFY_ON_ADVANCE", true),
		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		DBMaxOpenConns:  intOrDefault(k, "DB_MAX_OPEN_CONNS", 0),
		DBMaxIdleConns:  intOrDefault(k, "DB_MAX_IDLE_CONNS", 0),

		MaxBodyBytes:          int64(intOrDefault(k, "MAX_BODY_BYTES", 1<<20)),
		SecurityHeadersEnable: boolOrDefault(k, "SECURITY_HEADERS_ENABLE", true),
		HSTSEnable:            boolOrDefault(k, "HSTS_ENABLE", false),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// EngineConfig builds the shipment-level quote parameters.
func (c *Config) EngineConfig() quote.Config {
	return quote.Config{
		DivisorDimCm:      c.DivisorDimCm,
		BaseFee:           c.BaseFee,
		CostPerKm:         c.CostPerKm,
		MinKm:             c.MinKm,
		RuralSurchargePct: c.RuralSurchargePct,
		DiscountTiers:     quote.ParseDiscountTiers(c.DiscountTiers),
		Currency:          c.CurrencyCode,
	}
}

// RateConfig builds the per-item rate parameters. When the item rate is
// disabled all charges are neutralised.
func (c *Config) RateConfig() quote.RateConfig {
	if !c.ItemRateEnabled {
		return quote.ZeroRateConfig()
	}
	return quote.RateConfig{
		DivisorDimCm:          c.ItemRateDivisorDimCm,
		BaseFee:               c.ItemRateBaseCost,
		PerKgFee:              c.ItemRateCostPerKg,
		OverweightThresholdKg: c.ItemRateOverweightThreshold,
		OverweightExtraPerKg:  c.ItemRateOverweightPerKg,
		FragileSurchargePct:   c.ItemRateFragilePct,
		UseInsurance:          true,
		InsurancePctOfPrice:   c.ItemRateInsurancePct,
		InsuranceMinimum:      c.ItemRateInsuranceMin,
	}
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func floatOrDefault(k *koanf.Koanf, key string, fallback float64) float64 {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Float64(key)
}

func intOrDefault(k *koanf.Koanf, key string, fallback int) int {
	if !k.Exists(key) || strings.TrimSpace(k.String(key)) == "" {
		return fallback
	}
	return k.Int(key)
}

func boolOrDefault(k *koanf.Koanf, key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(k.String(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
