// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, authentication, rate limiting, the record
// deadline window and observability.
//
// A .env file (or the file named by ENV_FILE) is read first when present.
// Variables already set in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects the database driver and its connection target.
type DBConfig struct {
	Driver  string // DB_DRIVER: sqlite|postgres
	Path    string // DB_PATH: SQLite file
	DSN     string // DB_DSN: PostgreSQL connection string
	Tracing bool   // DB_TRACING: GORM OpenTelemetry plugin
}

// AuthConfig controls how the acting user is resolved.
type AuthConfig struct {
	JWTSecret    string // JWT_SECRET: HS256 key; empty disables bearer tokens
	AllowHeaders bool   // ALLOW_HEADER_AUTH: trust X-User-ID / X-User-Roles
}

// RecordsConfig holds record-domain tunables.
type RecordsConfig struct {
	DeadlineDays int // DEADLINE_DAYS
	MaxPageSize  int // MAX_PAGE_SIZE
}

// Deadline returns the overdue window as a duration.
func (r RecordsConfig) Deadline() time.Duration {
	return time.Duration(r.DeadlineDays) * 24 * time.Hour
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // grace period for in-flight requests
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	DB      DBConfig
	Auth    AuthConfig
	Records RecordsConfig

	// Rate limiting; the write tier falls back to the read tier when unset.
	RateRPS        float64
	RateBurst      int
	RateWriteRPS   float64
	RateWriteBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration // how long an Idempotency-Key is remembered
	IdempotencySweep time.Duration // how often expired keys are purged

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the optional .env file and the environment, applies defaults,
// normalizes values and validates the result.
func Load() (Config, error) {
	return LoadFile(getenv("ENV_FILE", ".env"))
}

// LoadFile is Load with an explicit env file; "" skips the file.
func LoadFile(envFile string) (Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver:  strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:    getenv("DB_PATH", "records.db"),
			DSN:     getenv("DB_DSN", ""),
			Tracing: getbool("DB_TRACING", false),
		},
		Auth: AuthConfig{
			JWTSecret:    getenv("JWT_SECRET", ""),
			AllowHeaders: getbool("ALLOW_HEADER_AUTH", false),
		},
		Records: RecordsConfig{
			DeadlineDays: getint("DEADLINE_DAYS", 30),
			MaxPageSize:  getint("MAX_PAGE_SIZE", 100),
		},

		// Rate limiting
		RateRPS:        getfloat("RATE_RPS", 5.0),
		RateBurst:      getint("RATE_BURST", 10),
		RateWriteRPS:   getfloat("RATE_WRITE_RPS", 0),
		RateWriteBurst: getint("RATE_WRITE_BURST", 0),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencySweep: getdur("IDEMPOTENCY_SWEEP", time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "unarchive-tracker"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 ||
		cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 || cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES and MAX_BODY_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DB.Driver)
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowHeaders {
		return errors.New("set JWT_SECRET or ALLOW_HEADER_AUTH, otherwise no request can authenticate")
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if cfg.Records.DeadlineDays < 1 {
		return errors.New("DEADLINE_DAYS must be >= 1")
	}
	if cfg.Records.MaxPageSize < 1 {
		return errors.New("MAX_PAGE_SIZE must be >= 1")
	}
	if cfg.RateRPS < 0 || cfg.RateWriteRPS < 0 {
		return errors.New("RATE_RPS and RATE_WRITE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.RateWriteBurst < 0 {
		return errors.New("RATE_WRITE_BURST must be >= 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 || cfg.IdempotencySweep <= 0 {
		return errors.New("IDEMPOTENCY_TTL and IDEMPOTENCY_SWEEP must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// loadDotEnv merges path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on", "sim":
			return true
		case "0", "false", "no", "n", "off", "nao", "não":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
