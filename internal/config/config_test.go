package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load looks at so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	for name := range envMappings {
		t.Setenv(strings.ToUpper(name), "")
		os.Unsetenv(strings.ToUpper(name))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected env development, got %s", cfg.Env)
	}
	if cfg.Routing.Provider != ProviderOpenRouteService {
		t.Errorf("expected default provider %s, got %s", ProviderOpenRouteService, cfg.Routing.Provider)
	}
	if cfg.CacheTTL() != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.CacheTTL())
	}
	if cfg.RateLimit.Max != 60 || cfg.RateLimitWindow() != 15*time.Minute {
		t.Errorf("expected 60 per 15m, got %d per %v", cfg.RateLimit.Max, cfg.RateLimitWindow())
	}
	if cfg.WatchThrottle() != 4*time.Second {
		t.Errorf("expected watch throttle 4s, got %v", cfg.WatchThrottle())
	}
	if cfg.Routing.APIKey != "" {
		t.Errorf("expected no api key by default")
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5050")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ORS_API_KEY", "secret")
	t.Setenv("CACHE_TTL_SECONDS", "45")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW_MINUTES", "1")
	t.Setenv("CORS_ORIGIN", "https://shelters.example.com")
	t.Setenv("WATCH_THROTTLE_MS", "2500")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 5050 {
		t.Errorf("expected port 5050, got %d", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production env, got %s", cfg.Env)
	}
	if cfg.Routing.APIKey != "secret" {
		t.Errorf("expected api key from ORS_API_KEY, got %q", cfg.Routing.APIKey)
	}
	if cfg.CacheTTL() != 45*time.Second {
		t.Errorf("expected ttl 45s, got %v", cfg.CacheTTL())
	}
	if cfg.RateLimit.Max != 10 || cfg.RateLimitWindow() != time.Minute {
		t.Errorf("unexpected rate limit %d per %v", cfg.RateLimit.Max, cfg.RateLimitWindow())
	}
	if cfg.CORS.Origin != "https://shelters.example.com" {
		t.Errorf("unexpected cors origin %q", cfg.CORS.Origin)
	}
	if cfg.WatchThrottle() != 2500*time.Millisecond {
		t.Errorf("expected throttle 2.5s, got %v", cfg.WatchThrottle())
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "shelternav.yaml")
	content := `
port: 8080
routing:
  provider: osrm
  base_url: http://localhost:5000
cache:
  ttl_seconds: 10
shelters:
  file: shelters.json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected environment to override file port, got %d", cfg.Port)
	}
	if cfg.Routing.Provider != ProviderOSRM || cfg.Routing.BaseURL != "http://localhost:5000" {
		t.Errorf("unexpected routing config %+v", cfg.Routing)
	}
	if cfg.CacheTTL() != 10*time.Second {
		t.Errorf("expected ttl from file, got %v", cfg.CacheTTL())
	}
	if cfg.Shelters.File != "shelters.json" {
		t.Errorf("expected shelters file from config, got %q", cfg.Shelters.File)
	}
	if cfg.RateLimit.Max != 60 {
		t.Errorf("expected default rate limit to survive, got %d", cfg.RateLimit.Max)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROUTING_PROVIDER", "carrier-pigeon")
		_, err := Load("")
		if err == nil || !strings.Contains(err.Error(), "unknown routing provider") {
			t.Errorf("expected unknown provider error, got %v", err)
		}
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(cfg *Config) {}},
		{name: "port zero", mutate: func(cfg *Config) { cfg.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(cfg *Config) { cfg.Port = 70000 }, wantErr: true},
		{name: "osrm", mutate: func(cfg *Config) { cfg.Routing.Provider = ProviderOSRM }},
		{name: "empty provider", mutate: func(cfg *Config) { cfg.Routing.Provider = "" }, wantErr: true},
		{name: "zero ttl", mutate: func(cfg *Config) { cfg.Cache.TTLSeconds = 0 }, wantErr: true},
		{name: "zero rate limit", mutate: func(cfg *Config) { cfg.RateLimit.Max = 0 }, wantErr: true},
		{name: "zero window", mutate: func(cfg *Config) { cfg.RateLimit.WindowMinutes = 0 }, wantErr: true},
		{name: "zero throttle", mutate: func(cfg *Config) { cfg.Watch.ThrottleMS = 0 }},
		{name: "negative throttle", mutate: func(cfg *Config) { cfg.Watch.ThrottleMS = -1 }, wantErr: true},
		{name: "zero message rate", mutate: func(cfg *Config) { cfg.Watch.MessagesPerSecond = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(cfg *Config) { cfg.Shelters.MaxRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateSourceFlags(t *testing.T) {
	if err := ValidateSourceFlags("", ""); err != nil {
		t.Errorf("no flags should be valid, got %v", err)
	}
	if err := ValidateSourceFlags("shelters.json", ""); err != nil {
		t.Errorf("file only should be valid, got %v", err)
	}
	if err := ValidateSourceFlags("", "https://example.com/shelters.json"); err != nil {
		t.Errorf("url only should be valid, got %v", err)
	}
	if err := ValidateSourceFlags("shelters.json", "https://example.com/shelters.json"); err == nil {
		t.Error("expected error when both flags are set")
	}
}
