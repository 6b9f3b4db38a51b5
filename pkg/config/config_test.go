package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog:
  base_url: "http://shop.test/catalog/"
scraper:
  max_pages: 7
server:
  addr: ":9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://shop.test/catalog/", cfg.Catalog.BaseURL)
	assert.Equal(t, 7, cfg.Scraper.MaxPages)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	// Everything omitted falls back to defaults.
	assert.Equal(t, "?filtering=1&filter_brands=%s-brand", cfg.Catalog.BrandFilter)
	assert.Equal(t, 30, cfg.Scraper.TimeoutSeconds)
	assert.Equal(t, "sneakers.db", cfg.Database.Path)
	assert.Equal(t, 1000, cfg.Hub.SendTimeoutMs)
	assert.Equal(t, 16, cfg.Hub.Buffer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://ufa.streetfoot.ru/catalog/", cfg.Catalog.BaseURL)
	assert.Equal(t, 50, cfg.Scraper.MaxPages)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Scraper.UseBrowser)
}
