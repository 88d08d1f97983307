package serve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/db"
	"github.com/balltd/convscrape/pkg/fetcher"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	config := models.DefaultConfig()
	config.DetectLanguage = false

	srv := &Server{
		DB:      database,
		Fetcher: fetcher.NewFetcher(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:  config,
	}
	api := httptest.NewServer(srv.Routes())
	t.Cleanup(api.Close)
	return srv, api
}

// newTargetSite serves the pages the API is pointed at in these tests.
func newTargetSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/shop", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Shop</title></head><body>
			<table><thead><tr><th>Item</th><th>Price</th></tr></thead>
			<tbody><tr><td>Gem</td><td>10</td></tr></tbody></table>
			<p>1 Gem = 100 Coins</p>
			<p>2 Tokens = 10 Coins</p>
			<a href="/about">about</a>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>About</title></head><body><p>Just a shop.</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestScrapeAndPages(t *testing.T) {
	_, api := newTestServer(t)
	site := newTargetSite(t)

	resp := postJSON(t, api.URL+"/api/scrape", models.ScrapeRequest{URL: site.URL + "/shop"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", resp.StatusCode)
	}
	var scrape struct {
		Status     string `json:"status"`
		PagesSaved int    `json:"pages_saved"`
	}
	decodeBody(t, resp, &scrape)
	if scrape.PagesSaved != 1 {
		t.Errorf("pages_saved = %d, want 1", scrape.PagesSaved)
	}

	t.Run("pages lists the snapshot", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/api/pages")
		if err != nil {
			t.Fatal(err)
		}
		var body struct {
			Items []models.PageSummary `json:"items"`
		}
		decodeBody(t, resp, &body)
		if len(body.Items) != 1 {
			t.Fatalf("items = %+v, want one page", body.Items)
		}
		if body.Items[0].TableCount != 1 {
			t.Errorf("table_count = %d, want 1", body.Items[0].TableCount)
		}
	})

	t.Run("page by url", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/api/page?url=" + site.URL + "/shop%23deals")
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200 (fragment should be stripped)", resp.StatusCode)
		}
		var page models.ScrapePage
		decodeBody(t, resp, &page)
		if page.Title != "Shop" {
			t.Errorf("title = %q, want Shop", page.Title)
		}
		if len(page.Tables) != 1 || page.Tables[0].Rows[0][0] != "Gem" {
			t.Errorf("tables = %+v, want the Gem table", page.Tables)
		}
	})

	t.Run("crawl saves linked pages", func(t *testing.T) {
		resp := postJSON(t, api.URL+"/api/scrape", models.ScrapeRequest{
			URL: site.URL + "/shop", Crawl: true, MaxPages: 10,
		})
		var body struct {
			PagesSaved int `json:"pages_saved"`
		}
		decodeBody(t, resp, &body)
		if body.PagesSaved != 2 {
			t.Errorf("pages_saved = %d, want 2", body.PagesSaved)
		}
	})
}

func TestScrapeValidation(t *testing.T) {
	_, api := newTestServer(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing url", models.ScrapeRequest{}, http.StatusBadRequest},
		{"non-http url", models.ScrapeRequest{URL: "ftp://example.com"}, http.StatusBadRequest},
		{"unfetchable url", models.ScrapeRequest{URL: "http://127.0.0.1:1/x"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, api.URL+"/api/scrape", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	t.Run("GET not allowed", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/api/scrape")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", resp.StatusCode)
		}
	})
}

func TestPageLookupErrors(t *testing.T) {
	_, api := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no params", "", http.StatusBadRequest},
		{"unknown url", "?url=https://example.com/nope", http.StatusNotFound},
		{"bad id", "?id=banana", http.StatusBadRequest},
		{"unknown id", "?id=12345", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(api.URL + "/api/page" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestExtractEndpoint(t *testing.T) {
	srv, api := newTestServer(t)
	site := newTargetSite(t)

	resp := postJSON(t, api.URL+"/api/extract", models.ExtractRequest{URL: site.URL + "/shop"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		PageURL   string                    `json:"page_url"`
		PageTitle string                    `json:"page_title"`
		Count     int                       `json:"count"`
		Items     []models.ConversionRecord `json:"items"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2: %+v", body.Count, body.Items)
	}
	if body.Items[0].Source != "Gem" || body.Items[0].Rate != 100 {
		t.Errorf("items[0] = %+v, want Gem→Coins@100", body.Items[0])
	}
	if body.Items[1].Source != "Tokens" || body.Items[1].Rate != 5 {
		t.Errorf("items[1] = %+v, want Tokens→Coins@5", body.Items[1])
	}

	t.Run("records persisted", func(t *testing.T) {
		stored, err := srv.DB.ListConversions(site.URL + "/shop")
		if err != nil {
			t.Fatal(err)
		}
		if len(stored) != 2 {
			t.Errorf("stored %d records, want 2", len(stored))
		}
	})

	t.Run("snapshot persisted", func(t *testing.T) {
		if _, err := srv.DB.GetPageByURL(site.URL + "/shop"); err != nil {
			t.Errorf("snapshot lookup failed: %v", err)
		}
	})

	t.Run("extract by stored id", func(t *testing.T) {
		page, err := srv.DB.GetPageByURL(site.URL + "/shop")
		if err != nil {
			t.Fatal(err)
		}
		resp := postJSON(t, api.URL+"/api/extract", models.ExtractRequest{ID: page.ID})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("conversions listing", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/api/conversions?page_url=" + site.URL + "/shop")
		if err != nil {
			t.Fatal(err)
		}
		var body struct {
			Items []models.ConversionRecord `json:"items"`
		}
		decodeBody(t, resp, &body)
		if len(body.Items) != 2 {
			t.Errorf("items = %+v, want 2 records", body.Items)
		}
	})

	t.Run("missing url and id", func(t *testing.T) {
		resp := postJSON(t, api.URL+"/api/extract", models.ExtractRequest{})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := postJSON(t, api.URL+"/api/extract", models.ExtractRequest{ID: 99999})
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestConversionsUpsertEndpoint(t *testing.T) {
	srv, api := newTestServer(t)

	req := models.ConversionsUpsert{
		PageURL:   "https://example.com/shop#rates",
		PageTitle: "Shop",
		Items: []models.ConversionRecord{
			{Source: "gem", Target: "coins", Rate: 100, Text: "1 gem = 100 coins"},
		},
	}
	resp := postJSON(t, api.URL+"/api/conversions/upsert", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Upserted int `json:"upserted"`
	}
	decodeBody(t, resp, &body)
	if body.Upserted != 1 {
		t.Errorf("upserted = %d, want 1", body.Upserted)
	}

	// Names are canonicalized and the page URL fragment is stripped before
	// the write.
	stored, err := srv.DB.ListConversions("https://example.com/shop")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d records, want 1", len(stored))
	}
	if stored[0].Source != "Gem" || stored[0].Target != "Coins" {
		t.Errorf("stored pair = (%q, %q), want (Gem, Coins)", stored[0].Source, stored[0].Target)
	}

	t.Run("rejects non-positive rate", func(t *testing.T) {
		bad := models.ConversionsUpsert{
			PageURL: "https://example.com/shop",
			Items:   []models.ConversionRecord{{Source: "a", Target: "b", Rate: 0}},
		}
		resp := postJSON(t, api.URL+"/api/conversions/upsert", bad)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("rejects missing page_url", func(t *testing.T) {
		resp := postJSON(t, api.URL+"/api/conversions/upsert", models.ConversionsUpsert{})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestHealthAndCORS(t *testing.T) {
	_, api := newTestServer(t)

	resp, err := http.Get(api.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header on API response")
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["database"] != "connected" {
		t.Errorf("database = %v, want connected", body["database"])
	}

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, api.URL+"/api/scrape", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", resp.StatusCode)
		}
	})
}
