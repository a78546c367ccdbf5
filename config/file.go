package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file, merging its fields over Default().
// The CLI is the only caller that touches the filesystem; library packages
// never read configuration directly.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
