//go:build integration

package integration

import (
	"fmt"

	"shelternav.org/internal/config"
)

// loadIntegrationConfig reads the same layered configuration as the server:
// defaults, an optional YAML file, then the environment.
func loadIntegrationConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load integration config: %w", err)
	}
	return cfg, nil
}
