package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogConfig describes the remote catalog being scraped.
type CatalogConfig struct {
	BaseURL     string `yaml:"base_url"`
	BrandFilter string `yaml:"brand_filter"` // format string, %s is the brand slug
}

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	MaxPages       int  `yaml:"max_pages"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	UseBrowser     bool `yaml:"use_browser"`
	Headless       bool `yaml:"headless"`
}

// DatabaseConfig holds the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// HubConfig holds notification fan-out settings.
type HubConfig struct {
	SendTimeoutMs int `yaml:"send_timeout_ms"`
	Buffer        int `yaml:"buffer"`
}

// Config is the complete structure of the config.yml file.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Hub      HubConfig      `yaml:"hub"`
}

// Load reads and parses the config file, filling in defaults for anything
// the file leaves out.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config YAML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with every default applied, without touching disk.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = "https://ufa.streetfoot.ru/catalog/"
	}
	if c.Catalog.BrandFilter == "" {
		c.Catalog.BrandFilter = "?filtering=1&filter_brands=%s-brand"
	}
	if c.Scraper.MaxPages <= 0 {
		c.Scraper.MaxPages = 50
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		c.Scraper.TimeoutSeconds = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "sneakers.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Hub.SendTimeoutMs <= 0 {
		c.Hub.SendTimeoutMs = 1000
	}
	if c.Hub.Buffer <= 0 {
		c.Hub.Buffer = 16
	}
}
