package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Clear any environment variables to test defaults
	env := []string{
		"APP_ENV", "APP_HTTP_ADDR", "DB_DSN", "ADMIN_API_KEY",
		"METRICS_ADDR", "STORE_TYPE", "RATE_LIMIT_PER_IP",
		"RATE_LIMIT_PER_KEY", "AUDIT_QUEUE_SIZE", "LOG_LEVEL",
	}

	for _, key := range env {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify default values
	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr=':8080', got '%s'", cfg.HTTPAddr)
	}
	if cfg.AdminAPIKey != "admin-123" {
		t.Errorf("Expected AdminAPIKey='admin-123', got '%s'", cfg.AdminAPIKey)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("Expected MetricsAddr=':9090', got '%s'", cfg.MetricsAddr)
	}
	if cfg.StoreType != "postgres" {
		t.Errorf("Expected StoreType='postgres', got '%s'", cfg.StoreType)
	}
	if cfg.RateLimitPerIP != 100 {
		t.Errorf("Expected RateLimitPerIP=100, got %d", cfg.RateLimitPerIP)
	}
	if cfg.AuditQueueSize != 1024 {
		t.Errorf("Expected AuditQueueSize=1024, got %d", cfg.AuditQueueSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel='info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("APP_ENV", "test")
	os.Setenv("APP_HTTP_ADDR", ":9999")
	os.Setenv("ADMIN_API_KEY", "custom-key")
	os.Setenv("METRICS_ADDR", ":7777")
	os.Setenv("STORE_TYPE", "memory")
	os.Setenv("RATE_LIMIT_PER_IP", "200")
	os.Setenv("AUDIT_QUEUE_SIZE", "64")

	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("APP_HTTP_ADDR")
		os.Unsetenv("ADMIN_API_KEY")
		os.Unsetenv("METRICS_ADDR")
		os.Unsetenv("STORE_TYPE")
		os.Unsetenv("RATE_LIMIT_PER_IP")
		os.Unsetenv("AUDIT_QUEUE_SIZE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify environment overrides
	if cfg.AppEnv != "test" {
		t.Errorf("Expected AppEnv='test', got '%s'", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("Expected HTTPAddr=':9999', got '%s'", cfg.HTTPAddr)
	}
	if cfg.AdminAPIKey != "custom-key" {
		t.Errorf("Expected AdminAPIKey='custom-key', got '%s'", cfg.AdminAPIKey)
	}
	if cfg.MetricsAddr != ":7777" {
		t.Errorf("Expected MetricsAddr=':7777', got '%s'", cfg.MetricsAddr)
	}
	if cfg.StoreType != "memory" {
		t.Errorf("Expected StoreType='memory', got '%s'", cfg.StoreType)
	}
	if cfg.RateLimitPerIP != 200 {
		t.Errorf("Expected RateLimitPerIP=200, got %d", cfg.RateLimitPerIP)
	}
	if cfg.AuditQueueSize != 64 {
		t.Errorf("Expected AuditQueueSize=64, got %d", cfg.AuditQueueSize)
	}
}

func TestLoad_MissingEnvFileIsAcceptable(t *testing.T) {
	// Even if .env file doesn't exist, Load should succeed with defaults
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not fail when .env is missing: %v", err)
	}
	if cfg == nil {
		t.Fatal("Config should not be nil")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppEnv:         "dev",
			HTTPAddr:       ":8080",
			MetricsAddr:    ":9090",
			DatabaseDSN:    "postgres://localhost/quoting",
			StoreType:      "memory",
			AdminAPIKey:    "admin-123",
			AuditQueueSize: 1024,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid memory config", func(c *Config) {}, ""},
		{"valid postgres config", func(c *Config) { c.StoreType = "postgres" }, ""},
		{"unknown store type", func(c *Config) { c.StoreType = "sqlite" }, "STORE_TYPE"},
		{"postgres without DSN", func(c *Config) {
			c.StoreType = "postgres"
			c.DatabaseDSN = ""
		}, "DB_DSN"},
		{"empty HTTP addr", func(c *Config) { c.HTTPAddr = "" }, "APP_HTTP_ADDR"},
		{"empty metrics addr", func(c *Config) { c.MetricsAddr = "" }, "METRICS_ADDR"},
		{"zero audit queue", func(c *Config) { c.AuditQueueSize = 0 }, "AUDIT_QUEUE_SIZE"},
		{"default admin key in prod", func(c *Config) { c.AppEnv = "prod" }, "ADMIN_API_KEY"},
		{"custom admin key in prod", func(c *Config) {
			c.AppEnv = "prod"
			c.AdminAPIKey = "real-key"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var verr ValidationError
			ok := false
			if verr, ok = err.(ValidationError); !ok {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate() failed field %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
