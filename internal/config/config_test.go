package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// validBase sets the minimum a Load call needs to pass validation.
func validBase(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("ALLOW_HEADER_AUTH", "true")
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	validBase(t)
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	validBase(t)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("MAX_BODY_BYTES", "4096")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/")

	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/records")
	t.Setenv("DB_TRACING", "1")

	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("DEADLINE_DAYS", "45")
	t.Setenv("MAX_PAGE_SIZE", "50")

	t.Setenv("RATE_RPS", "x")      // default 5.0
	t.Setenv("RATE_BURST", "nope") // default 10
	t.Setenv("RATE_WRITE_RPS", "0.5")
	t.Setenv("RATE_WRITE_BURST", "2")

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	t.Setenv("IDEMPOTENCY_TTL", "48h")
	t.Setenv("IDEMPOTENCY_SWEEP", "15m")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.ShutdownTimeout != 5*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.MaxBodyBytes != 4096 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.DSN != "postgres://u:p@db:5432/records" || !cfg.DB.Tracing {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.Auth.JWTSecret == "" || !cfg.Auth.AllowHeaders {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}
	if cfg.Records.DeadlineDays != 45 || cfg.Records.Deadline() != 45*24*time.Hour || cfg.Records.MaxPageSize != 50 {
		t.Fatalf("records unexpected: %+v", cfg.Records)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 || cfg.RateWriteRPS != 0.5 || cfg.RateWriteBurst != 2 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour || cfg.IdempotencySweep != 15*time.Minute {
		t.Fatalf("idempotency unexpected: %v %v", cfg.IdempotencyTTL, cfg.IdempotencySweep)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	validBase(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" || cfg.DB.Driver != "sqlite" || cfg.DB.Path != "records.db" {
		t.Fatalf("defaults unexpected: %+v", cfg)
	}
	if cfg.Records.DeadlineDays != 30 || cfg.Records.MaxPageSize != 100 {
		t.Fatalf("record defaults unexpected: %+v", cfg.Records)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || cfg.OTEL.ServiceName != "unarchive-tracker" {
		t.Fatalf("misc defaults unexpected: %+v", cfg)
	}
}

// Each case triggers exactly one validation error.
func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"postgres without DSN", map[string]string{"DB_DRIVER": "postgres"}, "DB_DSN"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"no auth", map[string]string{"ALLOW_HEADER_AUTH": "false"}, "JWT_SECRET or ALLOW_HEADER_AUTH"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 bytes"},
		{"deadline", map[string]string{"DEADLINE_DAYS": "0"}, "DEADLINE_DAYS"},
		{"page size", map[string]string{"MAX_PAGE_SIZE": "0"}, "MAX_PAGE_SIZE"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"write burst negative", map[string]string{"RATE_WRITE_BURST": "-1"}, "RATE_WRITE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"otel sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validBase(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	validBase(t)
	path := filepath.Join(t.TempDir(), "test.env")
	body := "DEADLINE_DAYS=12\nPORT=9999\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("PORT", "7000") // process env wins over the file
	// godotenv writes straight into the process environment.
	t.Cleanup(func() { os.Unsetenv("DEADLINE_DAYS") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Records.DeadlineDays != 12 {
		t.Fatalf("DEADLINE_DAYS from file = %d, want 12", cfg.Records.DeadlineDays)
	}
	if cfg.Port != "7000" {
		t.Fatalf("PORT = %q, want process value 7000", cfg.Port)
	}
}

func TestLoad_BadDotEnvFile(t *testing.T) {
	validBase(t)
	// A directory cannot be parsed as an env file.
	t.Setenv("ENV_FILE", t.TempDir())
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unreadable env file")
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "sim"} {
		t.Setenv("B_T", v)
		if !getbool("B_T", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "não"} {
		t.Setenv("B_F", v)
		if getbool("B_F", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
