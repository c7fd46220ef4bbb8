package config

import (
	"fmt"
	"time"
)

const (
	ProviderOpenRouteService = "openrouteservice"
	ProviderOSRM             = "osrm"
)

// Config holds all the configuration settings for our application.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	Port      int             `koanf:"port"`
	Env       string          `koanf:"env"`
	Routing   RoutingConfig   `koanf:"routing"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Shelters  SheltersConfig  `koanf:"shelters"`
	Watch     WatchConfig     `koanf:"watch"`
}

// RoutingConfig selects and configures the walking-directions provider.
// An empty BaseURL or Profile means the provider's own default.
type RoutingConfig struct {
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	Profile  string `koanf:"profile"`
	APIKey   string `koanf:"api_key"`
}

type CacheConfig struct {
	TTLSeconds int `koanf:"ttl_seconds"`
}

type RateLimitConfig struct {
	Max           int `koanf:"max"`
	WindowMinutes int `koanf:"window_minutes"`
}

type CORSConfig struct {
	Origin string `koanf:"origin"`
}

// SheltersConfig names where the shelter set is loaded from.
// File wins over URL, and URL wins over GTFSURL. With none set, the
// built-in list is used.
type SheltersConfig struct {
	File           string `koanf:"file"`
	URL            string `koanf:"url"`
	GTFSURL        string `koanf:"gtfs_url"`
	AuthUser       string `koanf:"auth_user"`
	AuthPass       string `koanf:"auth_pass"`
	MaxRetries     int    `koanf:"max_retries"`
	RefreshMinutes int    `koanf:"refresh_minutes"`
}

type WatchConfig struct {
	ThrottleMS        int     `koanf:"throttle_ms"`
	MessagesPerSecond float64 `koanf:"messages_per_second"`
}

// defaultConfig returns the settings used when neither a config file nor the
// environment says otherwise.
func defaultConfig() Config {
	return Config{
		Port: 4000,
		Env:  "development",
		Routing: RoutingConfig{
			Provider: ProviderOpenRouteService,
		},
		Cache:     CacheConfig{TTLSeconds: 30},
		RateLimit: RateLimitConfig{Max: 60, WindowMinutes: 15},
		CORS:      CORSConfig{Origin: "*"},
		Shelters:  SheltersConfig{MaxRetries: 3},
		Watch:     WatchConfig{ThrottleMS: 4000, MessagesPerSecond: 5},
	}
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig()
	return &cfg
}

func (cfg *Config) IsProduction() bool {
	return cfg.Env == "production"
}

func (cfg *Config) CacheTTL() time.Duration {
	return time.Duration(cfg.Cache.TTLSeconds) * time.Second
}

func (cfg *Config) RateLimitWindow() time.Duration {
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

func (cfg *Config) WatchThrottle() time.Duration {
	return time.Duration(cfg.Watch.ThrottleMS) * time.Millisecond
}

func (cfg *Config) SheltersRefreshInterval() time.Duration {
	return time.Duration(cfg.Shelters.RefreshMinutes) * time.Minute
}

// Validate reports the first setting that cannot work.
func (cfg *Config) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	switch cfg.Routing.Provider {
	case ProviderOpenRouteService, ProviderOSRM:
	default:
		return fmt.Errorf("unknown routing provider %q", cfg.Routing.Provider)
	}
	if cfg.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %d", cfg.Cache.TTLSeconds)
	}
	if cfg.RateLimit.Max <= 0 {
		return fmt.Errorf("rate limit max must be positive, got %d", cfg.RateLimit.Max)
	}
	if cfg.RateLimit.WindowMinutes <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %d", cfg.RateLimit.WindowMinutes)
	}
	if cfg.Watch.ThrottleMS < 0 {
		return fmt.Errorf("watch throttle must not be negative, got %d", cfg.Watch.ThrottleMS)
	}
	if cfg.Watch.MessagesPerSecond <= 0 {
		return fmt.Errorf("watch messages per second must be positive, got %v", cfg.Watch.MessagesPerSecond)
	}
	if cfg.Shelters.MaxRetries < 0 {
		return fmt.Errorf("shelters max retries must not be negative, got %d", cfg.Shelters.MaxRetries)
	}
	return nil
}
