package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ApplyFile overlays settings from a YAML file on top of c. Keys absent from
// the file keep their current (environment or default) values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.clamp()
	return nil
}

// LoadWithFile loads the environment configuration and applies path if it
// is non-empty. CONFIG_FILE is used when path is empty.
func LoadWithFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		return cfg, nil
	}
	if err := cfg.ApplyFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
