// Package syncer reconciles the persisted per-brand collection with a fresh
// scrape of the remote catalog.
package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/flashikNet/EduParser/internal/models"
	"github.com/flashikNet/EduParser/pkg/config"
)

// Scraper produces the full item list for one brand's catalog.
type Scraper interface {
	Scrape(ctx context.Context, startURL, brand string) ([]models.CatalogItem, error)
}

// Store is the persistence surface the engine needs.
type Store interface {
	ReplaceBrand(ctx context.Context, brand string, items []models.CatalogItem) (int, error)
}

// Engine runs the replace-all synchronization for a brand: scrape the
// catalog, then swap the brand's stored records for the scraped set in one
// transaction.
type Engine struct {
	scraper Scraper
	store   Store
	catalog config.CatalogConfig

	mu     sync.Mutex
	brands map[string]*sync.Mutex
}

// New creates a sync engine.
func New(scraper Scraper, store Store, catalog config.CatalogConfig) *Engine {
	return &Engine{
		scraper: scraper,
		store:   store,
		catalog: catalog,
		brands:  make(map[string]*sync.Mutex),
	}
}

// CatalogURL builds the listing URL for one brand. An empty brand yields the
// unfiltered catalog.
func CatalogURL(catalog config.CatalogConfig, brand string) string {
	if brand == "" {
		return catalog.BaseURL
	}
	return catalog.BaseURL + fmt.Sprintf(catalog.BrandFilter, brand)
}

// CatalogURL builds the listing URL this engine will scrape for one brand.
func (e *Engine) CatalogURL(brand string) string {
	return CatalogURL(e.catalog, brand)
}

// Sync scrapes the brand's catalog and replaces its stored records with the
// result. Returns the number of records written.
//
// If the scrape fails before producing anything the store is left untouched.
// Syncs of the same brand are mutually exclusive; different brands proceed in
// parallel.
func (e *Engine) Sync(ctx context.Context, brand string) (int, error) {
	items, err := e.scraper.Scrape(ctx, e.CatalogURL(brand), brand)
	if err != nil {
		return 0, fmt.Errorf("sync of %q aborted: %w", brand, err)
	}

	lock := e.brandLock(brand)
	lock.Lock()
	defer lock.Unlock()

	n, err := e.store.ReplaceBrand(ctx, brand, items)
	if err != nil {
		return 0, fmt.Errorf("sync of %q failed: %w", brand, err)
	}

	log.Info().Str("brand", brand).Int("count", n).Msg("brand synchronized")
	return n, nil
}

// brandLock returns the mutex serializing syncs of one brand, creating it on
// first use. Locks are never removed; the brand set is tiny and stable.
func (e *Engine) brandLock(brand string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.brands[brand]
	if !ok {
		lock = &sync.Mutex{}
		e.brands[brand] = lock
	}
	return lock
}
