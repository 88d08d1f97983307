// Package fetcher wraps http.Client for page retrieval: bounded timeout,
// custom user agent, and parsed goquery documents.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 15 * time.Second

// StatusError reports a fetch that completed with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status code %d", e.URL, e.StatusCode)
}

// Page is the result of one successful fetch.
type Page struct {
	// FinalURL is the URL after redirects, with fragment intact.
	FinalURL string
	// Title is the trimmed <title> text, empty when absent.
	Title string
	HTML  string
	Doc   *goquery.Document
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher() *Fetcher {
	return NewFetcherWith(DefaultTimeout, "")
}

// NewFetcherWith builds a fetcher with an explicit timeout and user agent.
// A zero timeout falls back to DefaultTimeout.
func NewFetcherWith(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves a page and parses it. Network failures and non-2xx
// statuses are errors; non-2xx is reported as *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	html := string(bodyBytes)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		FinalURL: finalURL,
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		HTML:     html,
		Doc:      doc,
	}, nil
}
