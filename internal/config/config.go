package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// MinCartSecretBytes is the shortest accepted cookie signing key.
const MinCartSecretBytes = 32

// Cart store backends.
const (
	CartStoreCookie = "cookie"
	CartStoreRedis  = "redis"
)

// Catalog sources.
const (
	CatalogStatic   = "static"
	CatalogPostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CartStore         string
	CartCookieName    string
	// CartCookieSecret signs cookie carts. Outside production a random
	// per-process key is generated when unset.
	CartCookieSecret []byte
	CartTTL           time.Duration
	SessionCookieName string
	LocaleCookieName  string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
	CartLockEnabled   bool
	CartLockTTL       time.Duration

	CatalogSource   string
	CatalogCacheTTL time.Duration
	CatalogMigrate  bool
	// CatalogFallback serves the embedded seed while Postgres is failing.
	CatalogFallback       bool
	CatalogBreakerOpenFor time.Duration

	CheckoutMockDelay time.Duration
	IdempotencyTTL    time.Duration
	RateLimitWindow   time.Duration
	RateLimitMax      int
	BodyLimitBytes    int64
	CSRFEnabled       bool
	SecurityHeaders   bool
	HSTSEnabled       bool

	AsynqQueue         string
	WorkerConcurrency  int
	NotifyEmailEnabled bool
	NotifyEmailFrom    string

	ShutdownTimeout time.Duration
	HealthTimeout   time.Duration

	Obs Obs
}

// Obs groups logging, metrics and tracing settings.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBucketsMS string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	appEnv := strings.ToLower(valueOrDefault(k.String("APP_ENV"), "development"))
	production := appEnv == "production"

	cfg := &Config{
		AppEnv:             appEnv,
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartStore:         strings.ToLower(valueOrDefault(k.String("CART_STORE"), CartStoreCookie)),
		CartCookieName:    valueOrDefault(k.String("CART_COOKIE_NAME"), "casa-greda-cart"),
		CartTTL:           parseDuration(k.String("CART_TTL"), "720h"),
		SessionCookieName: valueOrDefault(k.String("SESSION_COOKIE_NAME"), "casa-greda-session"),
		LocaleCookieName:  valueOrDefault(k.String("LOCALE_COOKIE_NAME"), "locale"),
		CookieDomain:      strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:      parseBoolDefault(k.String("COOKIE_SECURE"), production),
		CookieSameSite:    parseSameSite(k.String("COOKIE_SAMESITE")),
		CartLockEnabled:   parseBoolDefault(k.String("CART_LOCK_ENABLED"), false),
		CartLockTTL:       parseDuration(k.String("CART_LOCK_TTL"), "5s"),

		CatalogSource:         strings.ToLower(valueOrDefault(k.String("CATALOG_SOURCE"), CatalogStatic)),
		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogMigrate:        parseBoolDefault(k.String("CATALOG_MIGRATE"), false),
		CatalogFallback:       parseBoolDefault(k.String("CATALOG_FALLBACK"), true),
		CatalogBreakerOpenFor: parseDuration(k.String("CATALOG_BREAKER_OPEN_FOR"), "30s"),

		CheckoutMockDelay: parseDuration(k.String("CHECKOUT_MOCK_DELAY"), "1s"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitWindow:   parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:      parseInt(k.String("RATE_LIMIT_MAX"), 120),
		BodyLimitBytes:    int64(parseInt(k.String("BODY_LIMIT_BYTES"), 64<<10)),
		CSRFEnabled:       parseBoolDefault(k.String("CSRF_ENABLED"), false),
		SecurityHeaders:   parseBoolDefault(k.String("SECURITY_HEADERS"), true),
		HSTSEnabled:       parseBoolDefault(k.String("HSTS_ENABLED"), production),

		AsynqQueue:         valueOrDefault(k.String("ASYNQ_QUEUE"), "events"),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),
		NotifyEmailEnabled: parseBoolDefault(k.String("NOTIFY_EMAIL_ENABLED"), true),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "Casa Greda <pedidos@casagreda.cl>"),

		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		HealthTimeout:   parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),

		Obs: Obs{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "casagreda"),
			MetricsBucketsMS: k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		},
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	cfg.CartCookieSecret = []byte(strings.TrimSpace(k.String("CART_COOKIE_SECRET")))
	if len(cfg.CartCookieSecret) == 0 && !production {
		secret := make([]byte, MinCartSecretBytes)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate cart secret: %w", err)
		}
		cfg.CartCookieSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.CartStore {
	case CartStoreCookie:
		if len(c.CartCookieSecret) < MinCartSecretBytes {
			errs = append(errs, fmt.Errorf("CART_COOKIE_SECRET must be at least %d bytes when CART_STORE=cookie", MinCartSecretBytes))
		}
	case CartStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CART_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CART_STORE must be %q or %q, got %q", CartStoreCookie, CartStoreRedis, c.CartStore))
	}
	switch c.CatalogSource {
	case CatalogStatic:
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when CATALOG_SOURCE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogStatic, CatalogPostgres, c.CatalogSource))
	}
	if c.CartLockEnabled && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when CART_LOCK_ENABLED=true"))
	}
	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true"))
	}
	if c.CartTTL <= 0 {
		errs = append(errs, errors.New("CART_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// UseRedis reports whether any component needs the Redis client.
func (c *Config) UseRedis() bool {
	return c.RedisURL != ""
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
		return strings.TrimSpace(value)
	}
	return fallback
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

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
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
