// Package crawler walks same-origin pages breadth-first from a seed URL and
// stores a snapshot of every page it fetches.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/fetcher"
	"github.com/balltd/convscrape/pkg/langdetect"
	"github.com/balltd/convscrape/pkg/parser"
	"github.com/balltd/convscrape/pkg/urlutil"
)

// Store is the persistence surface the crawler needs.
type Store interface {
	UpsertPage(page *models.ScrapePage) error
}

// StoreError reports a persistence failure during a crawl, so callers can
// tell it apart from a fetch failure.
type StoreError struct {
	URL string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to store page %s: %v", e.URL, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

type Crawler struct {
	Fetcher *fetcher.Fetcher
	Store   Store
	Logger  *slog.Logger

	// DetectLanguage enables language detection on stored snapshots.
	DetectLanguage bool
}

// Options controls one crawl run.
type Options struct {
	// Crawl enables link traversal; false scrapes only the seed page.
	Crawl bool
	// MaxPages caps saved pages when crawling; values below 1 mean 1.
	MaxPages int
}

// Run scrapes startURL and, when crawling, its same-origin descendants
// breadth-first. The frontier (visited set and queue) is owned by this loop
// alone. A failing seed fetch is a hard error; pages that fail later in a
// crawl are logged and skipped, and link collection is best-effort. Returns
// the number of pages saved.
func (c *Crawler) Run(ctx context.Context, startURL string, opts Options) (int, error) {
	start := urlutil.Clean(startURL)
	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	visited := make(map[string]struct{})
	toVisit := []string{start}
	saved := 0

	for len(toVisit) > 0 && (!opts.Crawl || saved < maxPages) {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		current := urlutil.Clean(toVisit[0])
		toVisit = toVisit[1:]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}

		page, err := c.Fetcher.Fetch(ctx, current)
		if err != nil {
			if saved == 0 {
				return 0, fmt.Errorf("failed to fetch %s: %w", current, err)
			}
			c.Logger.Warn("skipping unfetchable page", "url", current, "error", err)
			continue
		}

		snapshot := Snapshot(current, page, c.DetectLanguage)
		if err := c.Store.UpsertPage(snapshot); err != nil {
			return saved, &StoreError{URL: current, Err: err}
		}
		saved++
		c.Logger.Info("page saved", "url", current, "tables", len(snapshot.Tables))

		if opts.Crawl {
			for _, link := range parser.Links(page.Doc, current) {
				if _, ok := visited[link]; ok {
					continue
				}
				toVisit = append(toVisit, link)
			}
		}
	}

	return saved, nil
}

// Snapshot builds the stored form of a fetched page: cleaned URL identity,
// extracted tables, readability excerpt, and optionally a language guess.
func Snapshot(pageURL string, page *fetcher.Page, detectLanguage bool) *models.ScrapePage {
	cleaned := urlutil.Clean(pageURL)

	snapshot := &models.ScrapePage{
		URL:    cleaned,
		Title:  page.Title,
		Tables: parser.ExtractTables(page.Doc),
	}
	if parsed, err := url.Parse(cleaned); err == nil {
		snapshot.Path = parsed.Path
	}

	readable := parser.Distill(cleaned, page.HTML)
	snapshot.Excerpt = readable.Excerpt
	if snapshot.Title == "" {
		snapshot.Title = readable.Title
	}
	if detectLanguage {
		snapshot.Lang = langdetect.Detect(readable.Text)
	}

	return snapshot
}
