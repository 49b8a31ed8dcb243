// Package util provides configuration loading and ambient path resolution
// for App Doctor.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sysoptim/app-doctor/pkg/types"
)

// LoadConfig loads configuration from a file (YAML or JSON).
// The file format is determined by extension (.yaml, .yml, .json).
// Environment variables are substituted, defaults are applied, and
// validation is performed.
func LoadConfig(path string) (*types.AppDoctorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Substitute environment variables in raw data BEFORE parsing so they
	// work in non-string fields too (e.g. port: ${PORT}).
	data = []byte(os.ExpandEnv(string(data)))

	ext := filepath.Ext(path)

	var config types.AppDoctorConfig

	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		// Try YAML first, then JSON
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.SubstituteEnvVars()

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads configuration from a file, or returns the default
// configuration if the file doesn't exist.
func LoadConfigOrDefault(path string) (*types.AppDoctorConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig()
	}
	return LoadConfig(path)
}

// DefaultConfig returns a default configuration: built-in fixers only,
// metrics enabled, HTTP API disabled.
func DefaultConfig() (*types.AppDoctorConfig, error) {
	config := &types.AppDoctorConfig{
		APIVersion: "app-doctor.io/v1alpha1",
		Kind:       "AppDoctorConfig",
		Metadata: types.ConfigMetadata{
			Name: "default",
		},
		Metrics: types.MetricsConfig{
			Enabled: true,
		},
		Server: types.ServerConfig{
			Enabled: false, // serve must be opted into
		},
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("default config validation failed: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file (YAML or JSON based on extension).
func SaveConfig(config *types.AppDoctorConfig, path string) error {
	ext := filepath.Ext(path)

	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported file extension: %s (use .yaml, .yml, or .json)", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
