package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envMappings maps the supported environment variables to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"port":                      "port",
	"app_env":                   "env",
	"ors_api_key":               "routing.api_key",
	"routing_provider":          "routing.provider",
	"routing_base_url":          "routing.base_url",
	"routing_profile":           "routing.profile",
	"cache_ttl_seconds":         "cache.ttl_seconds",
	"rate_limit_max":            "rate_limit.max",
	"rate_limit_window_minutes": "rate_limit.window_minutes",
	"cors_origin":               "cors.origin",
	"shelters_file":             "shelters.file",
	"shelters_url":              "shelters.url",
	"shelters_gtfs_url":         "shelters.gtfs_url",
	"shelters_auth_user":        "shelters.auth_user",
	"shelters_auth_pass":        "shelters.auth_pass",
	"shelters_max_retries":      "shelters.max_retries",
	"shelters_refresh_minutes":  "shelters.refresh_minutes",
	"watch_throttle_ms":         "watch.throttle_ms",
	"watch_messages_per_second": "watch.messages_per_second",
}

// envTransformFunc turns PORT into port, ORS_API_KEY into routing.api_key and
// so on. An empty result tells koanf to skip the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration in three layers, each overriding the last:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file at configPath (or $CONFIG_PATH)
//  3. Environment variables listed in envMappings
//
// The result is validated before it is returned.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ValidateSourceFlags ensures that at most one shelter source is given on the
// command line: either --shelters-file or --shelters-url.
func ValidateSourceFlags(sheltersFile, sheltersURL string) error {
	if sheltersFile != "" && sheltersURL != "" {
		return fmt.Errorf("only one of --shelters-file or --shelters-url can be specified")
	}
	return nil
}
