// One-shot catalog scrape: walks a brand's pagination chain and prints the
// listing without touching the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flashikNet/EduParser/internal/app"
	"github.com/flashikNet/EduParser/internal/scraper"
	"github.com/flashikNet/EduParser/internal/syncer"
	"github.com/flashikNet/EduParser/pkg/config"
	"github.com/flashikNet/EduParser/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the config file")
	brandFlag := flag.String("brand", "", "Brand slug to scrape (empty scrapes the whole catalog)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing config file is fine for the CLI; defaults point at the
		// real catalog.
		cfg = config.Default()
	}

	brand := utils.NormalizeBrand(*brandFlag)

	f, browser, err := app.NewFetcher(cfg.Scraper)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build fetcher")
	}
	if browser != nil {
		defer browser.Close()
	}

	sc := scraper.New(f, cfg.Scraper.MaxPages)

	items, err := sc.Scrape(context.Background(), syncer.CatalogURL(cfg.Catalog, brand), brand)
	if err != nil {
		log.Fatal().Err(err).Str("brand", brand).Msg("scrape failed")
	}

	if len(items) == 0 {
		fmt.Printf("No sneakers found for brand %q\n", brand)
		return
	}

	fmt.Printf("Found %d sneakers for brand %q:\n", len(items), brand)
	for i, item := range items {
		fmt.Printf("%d. %s: %s\n", i+1, item.Name, item.Price)
	}
}
