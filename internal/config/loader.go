package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var unmarshalConf = koanf.UnmarshalConf{Tag: "yaml"}

// Load reads the YAML file at path on top of Default() and validates the
// result. An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	// Keys absent from the file keep their defaults.
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	// A profiles list in the file replaces the built-in list instead of being
	// merged element by element.
	if k.Exists("profiles") {
		var profiles []ProfileConfig
		if err := k.UnmarshalWithConf("profiles", &profiles, unmarshalConf); err != nil {
			return nil, fmt.Errorf("failed to parse profiles from %q: %w", path, err)
		}
		cfg.Profiles = profiles
	}
	if k.Exists("layout.profiles") {
		cfg.Layout.Profiles = k.Strings("layout.profiles")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return cfg, nil
}
