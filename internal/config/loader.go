package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CURATOR_CONFIG is set
//  3. env (prefix CURATOR_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CURATOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CURATOR_API_URL, CURATOR_PAGE_SIZE, ...
	// Map env keys like CURATOR_PAGE_SIZE -> page_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CURATOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "curator_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations no run could honor. Non-positive target
// sizes are allowed here; they produce empty samples downstream.
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: api_url must not be empty", ErrInvalidConfig)
	}
	if c.Owner == "" {
		return fmt.Errorf("%w: owner must not be empty", ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	}
	if len(c.TargetSizes) == 0 {
		return fmt.Errorf("%w: target_sizes must not be empty", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	return nil
}
