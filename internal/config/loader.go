package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/okian/brandboard/internal/validation"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BRANDBOARD_"

	// EnvConfigPath names the variable holding an optional YAML config path.
	EnvConfigPath = EnvPrefix + "CONFIG"
)

// sliceKeys are list-valued keys that may arrive from env as comma-separated strings.
var sliceKeys = []string{
	"http.cors_allowed_origins",
	"session.protected_paths",
	"session.onboarding_paths",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if BRANDBOARD_CONFIG is set
//  3. env (prefix BRANDBOARD_, "__" separates nested keys)
func Load(ctx context.Context) (*Config, error) {
	const op = "config.Load"

	k := koanf.New(".")

	if err := k.Load(structs.Provider(New(ctx), "koanf"), nil); err != nil {
		return nil, wrapKind(op, ErrLoadConfig, err)
	}

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapKind(op, ErrLoadConfig, err)
		}
	}

	// BRANDBOARD_STORE__DSN -> store.dsn, BRANDBOARD_LOG_LEVEL -> log_level
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapKind(op, ErrLoadConfig, err)
	}

	if err := splitSliceKeys(k); err != nil {
		return nil, wrapKind(op, ErrLoadConfig, err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapKind(op, ErrLoadConfig, err)
	}

	if err := validation.Struct(&cfg); err != nil {
		return nil, wrapKind(op, ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(key, out); err != nil {
			return err
		}
	}
	return nil
}
