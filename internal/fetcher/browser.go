package fetcher

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserFetcher renders pages in a headless browser before handing back the
// HTML. It is the fetcher to reach for when the catalog builds its listing
// with JavaScript and the plain HTTP body is an empty shell.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewBrowserFetcher launches a browser instance shared by all Fetch calls.
func NewBrowserFetcher(headless bool, timeout time.Duration) (*BrowserFetcher, error) {
	u, err := launcher.New().Headless(headless).Launch()
	if err != nil {
		return nil, err
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return &BrowserFetcher{browser: browser, timeout: timeout}, nil
}

// Fetch navigates to the page, waits for it to load and returns the rendered
// document.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	page, err := stealth.Page(f.browser)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(f.timeout)
	if err := page.Navigate(pageURL); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	return html, nil
}

// Close shuts the shared browser down.
func (f *BrowserFetcher) Close() error {
	return f.browser.Close()
}
