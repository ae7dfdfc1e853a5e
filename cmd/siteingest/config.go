package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedConfig is the content of the --config file.
//
//	seeds:
//	  - https://example.com/
//	allowed_domains:
//	  - example.com
type SeedConfig struct {
	Seeds          []string `yaml:"seeds"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// LoadSeedConfig reads and parses a seed configuration file.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
