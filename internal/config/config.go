// Package config loads application configuration from environment
// variables, with an optional TOML file overriding the game rules.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        string
	RedisURL    string
	NotifierURL string
	RulesFile   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envOrDefault("PORT", "8010"),
		RedisURL:    envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		NotifierURL: envOrDefault("NOTIFIER_URL", "http://localhost:8011"),
		RulesFile:   os.Getenv("RULES_FILE"),
	}
}

// LoadRules returns the deployment game rules: the defaults, overlaid with
// the TOML file at path when one is configured.
func LoadRules(path string) (galaxy.Rules, error) {
	rules := galaxy.DefaultRules()
	if path == "" {
		return rules, nil
	}
	if _, err := toml.DecodeFile(path, &rules); err != nil {
		return rules, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	return rules, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
