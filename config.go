package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v2"
)

// DatabaseConfig carries the connection settings for one database
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// CrawlConfig carries discovery settings
type CrawlConfig struct {
	// Schemas lists the schema names to crawl; empty means all
	Schemas []string `yaml:"schemas"`
	// Format selects the output renderer: info or sql
	Format string `yaml:"format"`
}

// Config is the YAML configuration file layout
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Crawl    CrawlConfig    `yaml:"crawl"`
}

// Filter returns the schema-name filter the Schemas list describes,
// or nil when every schema is accepted.
func (c CrawlConfig) Filter() func(string) bool {
	if len(c.Schemas) == 0 {
		return nil
	}
	names := slices.Clone(c.Schemas)
	return func(name string) bool {
		return slices.Contains(names, name)
	}
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultConfigPath is config.yaml next to the working directory
func DefaultConfigPath() string {
	dir, _ := os.Getwd()
	return filepath.Join(dir, "config.yaml")
}
