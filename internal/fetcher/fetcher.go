package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/net/html/charset"
)

// ErrFetch marks any failure to retrieve a catalog page.
var ErrFetch = errors.New("page fetch failed")

// FetchError carries the page URL and, when the server answered at all, the
// HTTP status it answered with.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Fetcher retrieves the HTML body of a single catalog page. Implementations
// make exactly one attempt per call and hold no state across calls, so a
// caller-supplied retry policy can wrap one without changing the interface.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches pages over plain HTTP with browser-like headers.
type HTTPFetcher struct {
	client     *fasthttp.Client
	timeout    time.Duration
	userAgents []string
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		},
	}
}

// Fetch downloads one page and returns its body decoded to UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(pageURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	f.setRequestHeaders(req, pageURL)

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return "", &FetchError{URL: pageURL, Status: status}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		// Fall back to the raw body when the encoding is unknown.
		body = resp.Body()
	}

	decoded, err := decodeToUTF8(body, string(resp.Header.ContentType()))
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	return decoded, nil
}

// setRequestHeaders adds browser-like headers so the catalog does not serve
// a bot-wall instead of products.
func (f *HTTPFetcher) setRequestHeaders(req *fasthttp.Request, pageURL string) {
	req.Header.SetUserAgent(f.userAgents[uaHash(pageURL)%uint32(len(f.userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if parsed, err := url.Parse(pageURL); err == nil {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host))
	}
}

// decodeToUTF8 converts a page body to UTF-8 based on the Content-Type
// charset, falling back to sniffing the document itself.
func decodeToUTF8(body []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// uaHash keeps the user agent stable per host across a pagination walk.
func uaHash(s string) uint32 {
	h := uint32(0)
	for _, c := range s {
		h = h*31 + uint32(c)
	}
	return h
}
