// Package config loads environment files and generator settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-gold/internal/mining"
)

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
// With no paths it loads ./.env.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadGeneratorConfig reads a YAML generator config from path. Fields the file
// omits keep their DefaultConfig values. An empty path returns the defaults.
func LoadGeneratorConfig(path string) (mining.Config, error) {
	cfg := mining.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read generator config: %w", err)
	}
	return ParseGeneratorConfig(data)
}

// ParseGeneratorConfig decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func ParseGeneratorConfig(data []byte) (mining.Config, error) {
	cfg := mining.DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse generator config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MarshalGeneratorConfig renders cfg as YAML, the format LoadGeneratorConfig reads.
func MarshalGeneratorConfig(cfg mining.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
