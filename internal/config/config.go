// Package config resolves the managed tree root and the user's saved
// settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nelsonlove/jd/internal/scanner"
)

// EnvRoot overrides every other root source when set.
const EnvRoot = "JD_ROOT"

// Config represents the saved user configuration.
type Config struct {
	Version string `json:"version,omitempty"`
	Root    string `json:"root,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".jd", "config.json"), nil
}

// Load reads ~/.jd/config.json. A missing file is not an error; it
// returns an empty config.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes config.json under ~/.jd, creating the directory.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create .jd dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ResolveRoot finds the managed tree root for a command. Resolution
// order: the explicit flag value, the JD_ROOT environment variable, the
// saved config, then upward discovery from the working directory.
func ResolveRoot(flagValue string) (root string, source string, err error) {
	if flagValue != "" {
		return filepath.Clean(flagValue), "flag", nil
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return filepath.Clean(env), "environment", nil
	}

	cfg, err := Load()
	if err != nil {
		return "", "", err
	}
	if cfg.Root != "" {
		return cfg.Root, "config", nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err = scanner.DiscoverRoot(cwd)
	if err != nil {
		return "", "", err
	}
	return root, "discovered", nil
}
