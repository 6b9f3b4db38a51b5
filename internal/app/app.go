// Package app wires the application's dependencies together.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flashikNet/EduParser/internal/database"
	"github.com/flashikNet/EduParser/internal/fetcher"
	"github.com/flashikNet/EduParser/internal/hub"
	"github.com/flashikNet/EduParser/internal/scraper"
	"github.com/flashikNet/EduParser/internal/server"
	"github.com/flashikNet/EduParser/internal/syncer"
	"github.com/flashikNet/EduParser/pkg/config"
)

// App is the assembled application.
type App struct {
	Config  *config.Config
	Repo    *database.Repository
	Fetcher fetcher.Fetcher
	Scraper *scraper.CatalogScraper
	Engine  *syncer.Engine
	Hub     *hub.Hub
	Server  *server.Server

	browser *fetcher.BrowserFetcher
}

// New builds the full dependency graph from the config file.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	repo, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	a := &App{Config: cfg, Repo: repo}

	a.Fetcher, a.browser, err = NewFetcher(cfg.Scraper)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	a.Scraper = scraper.New(a.Fetcher, cfg.Scraper.MaxPages)
	a.Engine = syncer.New(a.Scraper, repo, cfg.Catalog)
	a.Hub = hub.New(time.Duration(cfg.Hub.SendTimeoutMs)*time.Millisecond, cfg.Hub.Buffer)
	a.Server = server.New(repo, a.Engine, a.Hub)

	return a, nil
}

// NewFetcher picks the page fetcher the config asks for. The browser handle
// is non-nil only for the rod-backed fetcher and must be closed by the caller.
func NewFetcher(cfg config.ScraperConfig) (fetcher.Fetcher, *fetcher.BrowserFetcher, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if !cfg.UseBrowser {
		return fetcher.NewHTTPFetcher(timeout), nil, nil
	}

	log.Info().Bool("headless", cfg.Headless).Msg("launching browser fetcher")
	browser, err := fetcher.NewBrowserFetcher(cfg.Headless, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}
	return browser, browser, nil
}

// Close releases the database and, when one was launched, the browser.
func (a *App) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			log.Warn().Err(err).Msg("closing browser")
		}
	}
	if err := a.Repo.Close(); err != nil {
		log.Warn().Err(err).Msg("closing database")
	}
}
