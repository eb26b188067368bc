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

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"trustguard.yaml",
	"trustguard.yml",
	"/etc/trustguard/config.yaml",
}

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "TRUSTGUARD_"

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it.
//
// An empty path searches DefaultConfigPaths; a missing file there is fine
// (defaults plus env apply), but an explicitly given path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	candidates := []string{path}
	if !explicit {
		candidates = DefaultConfigPaths
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			if explicit {
				return nil, fmt.Errorf("config file %s: %w", candidate, err)
			}
			continue
		}
		if err := k.Load(file.Provider(candidate), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", candidate, err)
		}
		break
	}

	// TRUSTGUARD_MONITOR__AUTHENTICITY_PERIOD -> monitor.authenticity_period
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
