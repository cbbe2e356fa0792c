package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that locate configuration sources.
const (
	EnvPrefix  = "SKYGUARD_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvEnvFile = EnvPrefix + "ENV_FILE"
)

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file and environment variables.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file named by SKYGUARD_ENV_FILE; it only fills variables that
//     are not already set
//  3. YAML file named by SKYGUARD_CONFIG
//  4. env (prefix SKYGUARD_); a double underscore separates nested keys,
//     e.g. SKYGUARD_RESCHEDULE__MAX_CANDIDATES -> reschedule.max_candidates
func Load(_ context.Context) (*Config, error) {
	base := New()

	if path := os.Getenv(EnvEnvFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	// Seed the minima table so a partial override keeps the other fields.
	for name, row := range base.Minima {
		prefix := "minima." + name + "."
		for key, val := range map[string]interface{}{
			"min_visibility_sm":        row.MinVisibilitySM,
			"min_ceiling_ft":           row.MinCeilingFt,
			"max_wind_kt":              row.MaxWindKt,
			"thunderstorms_disqualify": row.ThunderstormsDisqualify,
			"icing_disqualify":         row.IcingDisqualify,
		} {
			if err := k.Set(prefix+key, val); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
			}
		}
	}

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: config file %s not found", ErrLoadConfig, path)
			}
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	cfg.Minima = make(map[string]MinimaConfig, len(base.Minima))
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps SKYGUARD_RESCHEDULE__MAX_CANDIDATES to reschedule.max_candidates.
// The source locators themselves are not configuration keys.
func envKey(s string) string {
	switch s {
	case EnvConfig, EnvEnvFile:
		return ""
	}
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
