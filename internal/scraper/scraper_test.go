package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashikNet/EduParser/internal/fetcher"
	"github.com/flashikNet/EduParser/internal/models"
)

// fakeFetcher serves canned pages by URL.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	html, ok := f.pages[pageURL]
	if !ok {
		return "", &fetcher.FetchError{URL: pageURL, Status: 404}
	}
	return html, nil
}

func productHTML(name, price string) string {
	return fmt.Sprintf(`<li class="product"><h3>%s</h3><span class="amount">%s</span></li>`, name, price)
}

func page(products string, nextHref string) string {
	next := ""
	if nextHref != "" {
		next = fmt.Sprintf(`<a class="next page-numbers" href="%s">→</a>`, nextHref)
	}
	return fmt.Sprintf(`<html><body><ul>%s</ul>%s</body></html>`, products, next)
}

func TestScrape_FollowsPaginationChain(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://shop.test/catalog":        page(productHTML("A1", "100")+productHTML("A2", "200"), "http://shop.test/catalog/page/2"),
		"http://shop.test/catalog/page/2": page(productHTML("B1", "300")+productHTML("B2", "400"), "http://shop.test/catalog/page/3"),
		"http://shop.test/catalog/page/3": page(productHTML("C1", "500")+productHTML("C2", "600"), ""),
	}}

	s := New(f, 0)
	items, err := s.Scrape(context.Background(), "http://shop.test/catalog", "crocs")
	require.NoError(t, err)

	require.Len(t, items, 6)
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
		assert.Equal(t, "crocs", it.Brand)
	}
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "C1", "C2"}, names)
}

func TestScrape_BoundsCyclicNextLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://shop.test/a": page(productHTML("A", "1"), "http://shop.test/b"),
		"http://shop.test/b": page(productHTML("B", "2"), "http://shop.test/a"),
	}}

	s := New(f, 10)
	items, err := s.Scrape(context.Background(), "http://shop.test/a", "nike")
	require.NoError(t, err)

	// Each page visited exactly once, then the cycle is detected.
	assert.Len(t, items, 2)
	assert.Len(t, f.calls, 2)
}

func TestScrape_StopsAtPageCap(t *testing.T) {
	// Every page links to a fresh URL, so only the cap can stop the walk.
	pages := make(map[string]string)
	for i := 0; i < 20; i++ {
		pages[fmt.Sprintf("http://shop.test/p%d", i)] = page(productHTML(fmt.Sprintf("P%d", i), "1"), fmt.Sprintf("http://shop.test/p%d", i+1))
	}

	f := &fakeFetcher{pages: pages}
	s := New(f, 5)
	items, err := s.Scrape(context.Background(), "http://shop.test/p0", "nike")
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Len(t, f.calls, 5)
}

func TestScrape_SkipsRowsMissingFields(t *testing.T) {
	body := productHTML("Good Shoe", "1 000 руб.") +
		`<li class="product"><h3>No Price</h3></li>` +
		`<li class="product"><span class="amount">999</span></li>`
	f := &fakeFetcher{pages: map[string]string{"http://shop.test/catalog": page(body, "")}}

	s := New(f, 0)
	items, err := s.Scrape(context.Background(), "http://shop.test/catalog", "crocs")
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, models.CatalogItem{Name: "Good Shoe", Price: "1 000 руб.", Brand: "crocs"}, items[0])
}

func TestScrape_FirstPageFailureIsFatal(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}

	s := New(f, 0)
	items, err := s.Scrape(context.Background(), "http://shop.test/gone", "crocs")
	assert.ErrorIs(t, err, ErrScrape)
	assert.Empty(t, items)
}

func TestScrape_LaterPageFailureReturnsPartial(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://shop.test/catalog": page(productHTML("A", "1")+productHTML("B", "2"), "http://shop.test/missing"),
	}}

	s := New(f, 0)
	items, err := s.Scrape(context.Background(), "http://shop.test/catalog", "crocs")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestScrape_ResolvesRelativeNextLinks(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://shop.test/catalog/":       page(productHTML("A", "1"), "page/2"),
		"http://shop.test/catalog/page/2": page(productHTML("B", "2"), ""),
	}}

	s := New(f, 0)
	items, err := s.Scrape(context.Background(), "http://shop.test/catalog/", "crocs")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
