package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/flashikNet/EduParser/internal/fetcher"
	"github.com/flashikNet/EduParser/internal/models"
	"github.com/flashikNet/EduParser/utils"
)

// ErrScrape marks a scrape that produced nothing because the very first page
// could not be fetched or parsed.
var ErrScrape = errors.New("catalog scrape failed")

// DefaultMaxPages bounds the pagination walk when the config does not.
const DefaultMaxPages = 50

// Selectors for the WooCommerce catalog markup.
const (
	productSelector  = "li.product"
	nameSelector     = "h3"
	priceSelector    = "span.amount"
	nextLinkSelector = "a.next.page-numbers"
)

// CatalogScraper walks a catalog's pagination chain and extracts every
// product it lists.
type CatalogScraper struct {
	fetcher  fetcher.Fetcher
	maxPages int
}

// New creates a CatalogScraper on top of the given page fetcher. maxPages
// bounds the walk; values below 1 fall back to DefaultMaxPages.
func New(f fetcher.Fetcher, maxPages int) *CatalogScraper {
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	return &CatalogScraper{fetcher: f, maxPages: maxPages}
}

// Scrape follows the "next page" chain from startURL and returns every item
// found, in page order and in document order within each page.
//
// The walk is bounded two ways: it follows at most maxPages pages, and it
// never revisits a URL it has already seen, so a catalog serving a cyclic
// next link cannot trap it. A fetch failure on the first page returns
// ErrScrape; a failure on a later page stops the walk and returns the items
// gathered so far.
func (s *CatalogScraper) Scrape(ctx context.Context, startURL, brand string) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	visited := make(map[string]struct{})
	pageURL := startURL

	for page := 0; page < s.maxPages; page++ {
		if _, seen := visited[pageURL]; seen {
			log.Warn().Str("url", pageURL).Str("brand", brand).
				Msg("pagination cycle detected, stopping walk")
			break
		}
		visited[pageURL] = struct{}{}

		html, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("%w: %v", ErrScrape, err)
			}
			log.Warn().Err(err).Str("url", pageURL).Str("brand", brand).Int("items", len(items)).
				Msg("page fetch failed mid-walk, returning partial result")
			return items, nil
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("%w: parsing %s: %v", ErrScrape, pageURL, err)
			}
			log.Warn().Err(err).Str("url", pageURL).Msg("page parse failed mid-walk, returning partial result")
			return items, nil
		}

		items = append(items, extractItems(doc, brand)...)

		next, ok := doc.Find(nextLinkSelector).First().Attr("href")
		if !ok {
			break
		}
		resolved, err := resolveURL(pageURL, next)
		if err != nil {
			log.Warn().Err(err).Str("href", next).Msg("unresolvable next link, stopping walk")
			break
		}
		pageURL = resolved
	}

	return items, nil
}

// extractItems pulls the product nodes out of one page. A node missing its
// name or price is skipped, not fatal.
func extractItems(doc *goquery.Document, brand string) []models.CatalogItem {
	var items []models.CatalogItem
	doc.Find(productSelector).Each(func(_ int, sel *goquery.Selection) {
		name := utils.CleanText(sel.Find(nameSelector).First().Text())
		price := utils.CleanText(sel.Find(priceSelector).First().Text())
		if name == "" || price == "" {
			log.Debug().Str("brand", brand).Str("name", name).Str("price", price).
				Msg("skipping product node with missing fields")
			return
		}
		items = append(items, models.CatalogItem{Name: name, Price: price, Brand: brand})
	})
	return items
}

// resolveURL resolves a possibly relative next-page href against the page it
// came from.
func resolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	hrefURL, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(hrefURL).String(), nil
}
