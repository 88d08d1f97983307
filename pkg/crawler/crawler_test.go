package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/fetcher"
)

type memStore struct {
	pages map[string]*models.ScrapePage
	order []string
}

func newMemStore() *memStore {
	return &memStore{pages: make(map[string]*models.ScrapePage)}
}

func (s *memStore) UpsertPage(page *models.ScrapePage) error {
	if _, ok := s.pages[page.URL]; !ok {
		s.order = append(s.order, page.URL)
	}
	s.pages[page.URL] = page
	return nil
}

func testCrawler(store Store) *Crawler {
	return &Crawler{
		Fetcher: fetcher.NewFetcher(),
		Store:   store,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Home</title></head><body>
			<a href="/shop">shop</a>
			<a href="/shop#deals">shop deals</a>
			<a href="/broken">broken</a>
			<a href="https://elsewhere.invalid/away">away</a>
		</body></html>`)
	})
	mux.HandleFunc("/shop", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Shop</title></head><body>
			<table><thead><tr><th>Item</th><th>Price</th></tr></thead>
			<tbody><tr><td>Gem</td><td>10</td></tr></tbody></table>
			<a href="/">home</a>
		</body></html>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_SinglePage(t *testing.T) {
	srv := newSite(t)
	store := newMemStore()

	saved, err := testCrawler(store).Run(context.Background(), srv.URL+"/shop#top", Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if saved != 1 {
		t.Errorf("saved = %d, want 1", saved)
	}

	page, ok := store.pages[srv.URL+"/shop"]
	if !ok {
		t.Fatalf("page not stored under cleaned URL; stored: %v", store.order)
	}
	if page.Title != "Shop" {
		t.Errorf("Title = %q, want Shop", page.Title)
	}
	if len(page.Tables) != 1 {
		t.Fatalf("Tables = %+v, want one table", page.Tables)
	}
	if page.Tables[0].Rows[0][0] != "Gem" {
		t.Errorf("table row = %v, want Gem row", page.Tables[0].Rows[0])
	}
	if page.Path != "/shop" {
		t.Errorf("Path = %q, want /shop", page.Path)
	}
}

func TestRun_Crawl(t *testing.T) {
	srv := newSite(t)
	store := newMemStore()

	saved, err := testCrawler(store).Run(context.Background(), srv.URL+"/", Options{Crawl: true, MaxPages: 10})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Home and shop are saved once each; the fragment variant of /shop is
	// deduplicated, the broken link is skipped, the off-origin link is
	// never queued.
	if saved != 2 {
		t.Errorf("saved = %d, want 2 (stored: %v)", saved, store.order)
	}
	if _, ok := store.pages[srv.URL+"/"]; !ok {
		t.Error("home page not stored")
	}
	if _, ok := store.pages[srv.URL+"/shop"]; !ok {
		t.Error("shop page not stored")
	}
}

func TestRun_MaxPages(t *testing.T) {
	srv := newSite(t)
	store := newMemStore()

	saved, err := testCrawler(store).Run(context.Background(), srv.URL+"/", Options{Crawl: true, MaxPages: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if saved != 1 {
		t.Errorf("saved = %d, want 1", saved)
	}

	t.Run("cap below one still saves the seed", func(t *testing.T) {
		store := newMemStore()
		saved, err := testCrawler(store).Run(context.Background(), srv.URL+"/", Options{Crawl: true, MaxPages: 0})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if saved != 1 {
			t.Errorf("saved = %d, want 1", saved)
		}
	})
}

func TestRun_SeedFetchFailure(t *testing.T) {
	srv := newSite(t)
	store := newMemStore()

	if _, err := testCrawler(store).Run(context.Background(), srv.URL+"/broken", Options{}); err == nil {
		t.Error("Run() expected error for unfetchable seed")
	}
	if len(store.order) != 0 {
		t.Errorf("stored %v, want nothing", store.order)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	srv := newSite(t)
	store := newMemStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testCrawler(store).Run(ctx, srv.URL+"/", Options{Crawl: true, MaxPages: 5}); err == nil {
		t.Error("Run() expected context error")
	}
}
