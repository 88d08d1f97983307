// Package serve exposes the scraper over HTTP: thin JSON handlers around
// the crawler, the extraction pipeline, and the store.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/crawler"
	"github.com/balltd/convscrape/pkg/db"
	"github.com/balltd/convscrape/pkg/extract"
	"github.com/balltd/convscrape/pkg/fetcher"
	"github.com/balltd/convscrape/pkg/urlutil"
)

type Server struct {
	DB      *db.DB
	Fetcher *fetcher.Fetcher
	Logger  *slog.Logger
	Config  *models.Config
}

// Routes builds the HTTP mux. All /api responses carry permissive CORS
// headers, matching the service's original deployment behind a browser
// frontend.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/hello", s.handleHello)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scrape", s.handleScrape)
	mux.HandleFunc("/api/pages", s.handlePages)
	mux.HandleFunc("/api/page", s.handlePage)
	mux.HandleFunc("/api/extract", s.handleExtract)
	mux.HandleFunc("/api/conversions", s.handleConversions)
	mux.HandleFunc("/api/conversions/upsert", s.handleConversionsUpsert)

	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mirrors the API's historical error shape: {"detail": "..."}.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "conversions API is running"})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the backend API!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"backend":  "running",
		"database": "unavailable",
	}
	if s.DB != nil {
		if err := s.DB.Ping(); err == nil {
			status["database"] = "connected"
			status["database_path"] = s.DB.Path()
		} else {
			status["database"] = fmt.Sprintf("error: %s", err)
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = urlutil.Sanitize(req.URL)
	if !urlutil.Validate(req.URL) {
		writeError(w, http.StatusBadRequest, "Provide a valid http(s) url")
		return
	}
	if req.MaxPages == 0 {
		req.MaxPages = 10
	}

	c := &crawler.Crawler{
		Fetcher:        s.Fetcher,
		Store:          s.DB,
		Logger:         s.Logger,
		DetectLanguage: s.Config.DetectLanguage,
	}
	saved, err := c.Run(r.Context(), req.URL, crawler.Options{
		Crawl:    req.Crawl,
		MaxPages: req.MaxPages,
	})
	if err != nil {
		s.Logger.Error("scrape failed", "url", req.URL, "error", err)
		var storeErr *crawler.StoreError
		if errors.As(err, &storeErr) {
			writeError(w, http.StatusServiceUnavailable, "Database not available")
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to scrape: %s", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "pages_saved": saved})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	items, err := s.DB.ListPages(limit)
	if err != nil {
		s.Logger.Error("failed to list pages", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}
	if items == nil {
		items = []models.PageSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, status, detail := s.lookupPage(r.URL.Query().Get("url"), r.URL.Query().Get("id"))
	if page == nil {
		writeError(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// lookupPage resolves a page by url or id query value, in that order.
func (s *Server) lookupPage(rawURL, rawID string) (*models.ScrapePage, int, string) {
	var (
		page *models.ScrapePage
		err  error
	)
	switch {
	case rawURL != "":
		page, err = s.DB.GetPageByURL(urlutil.Clean(rawURL))
	case rawID != "":
		id, parseErr := strconv.ParseInt(rawID, 10, 64)
		if parseErr != nil {
			return nil, http.StatusBadRequest, "Invalid id"
		}
		page, err = s.DB.GetPageByID(id)
	default:
		return nil, http.StatusBadRequest, "Provide url or id"
	}

	if errors.Is(err, db.ErrNotFound) {
		return nil, http.StatusNotFound, "Page not found"
	}
	if err != nil {
		return nil, http.StatusServiceUnavailable, "Database not available"
	}
	return page, http.StatusOK, ""
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pageURL, status, detail := s.resolveExtractURL(&req)
	if pageURL == "" {
		writeError(w, status, detail)
		return
	}

	records, snapshot, err := s.extractPage(r.Context(), pageURL, req.OCR)
	if err != nil {
		s.Logger.Error("extract fetch failed", "url", pageURL, "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to fetch: %s", err))
		return
	}

	// Snapshot and conversions are persisted after extraction so a store
	// outage still leaves the computed records available to return on retry.
	if err := s.DB.UpsertPage(snapshot); err != nil {
		s.Logger.Error("failed to store snapshot", "url", pageURL, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}
	if _, err := s.DB.UpsertConversions(records); err != nil {
		s.Logger.Error("failed to store conversions", "url", pageURL, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	if records == nil {
		records = []models.ConversionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page_url":   snapshot.URL,
		"page_title": snapshot.Title,
		"count":      len(records),
		"items":      records,
	})
}

func (s *Server) resolveExtractURL(req *models.ExtractRequest) (string, int, string) {
	switch {
	case req.URL != "":
		cleaned := urlutil.Sanitize(req.URL)
		if !urlutil.Validate(cleaned) {
			return "", http.StatusBadRequest, "Provide a valid http(s) url"
		}
		return urlutil.Clean(cleaned), http.StatusOK, ""
	case req.ID != 0:
		page, err := s.DB.GetPageByID(req.ID)
		if errors.Is(err, db.ErrNotFound) {
			return "", http.StatusNotFound, "Page not found"
		}
		if err != nil {
			return "", http.StatusServiceUnavailable, "Database not available"
		}
		return page.URL, http.StatusOK, ""
	default:
		return "", http.StatusBadRequest, "Provide url or id"
	}
}

// extractPage fetches a page and runs the extraction pipeline, returning
// the records together with the fresh snapshot.
func (s *Server) extractPage(ctx context.Context, pageURL string, ocr bool) ([]models.ConversionRecord, *models.ScrapePage, error) {
	page, err := s.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	snapshot := crawler.Snapshot(pageURL, page, s.Config.DetectLanguage)
	records := extract.FromDocument(page.Doc, pageURL, snapshot.Title, ocr)
	return records, snapshot, nil
}

func (s *Server) handleConversions(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("page_url")
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "Provide page_url")
		return
	}

	items, err := s.DB.ListConversions(urlutil.Clean(pageURL))
	if err != nil {
		s.Logger.Error("failed to list conversions", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}
	if items == nil {
		items = []models.ConversionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleConversionsUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ConversionsUpsert
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PageURL == "" {
		writeError(w, http.StatusBadRequest, "Provide page_url")
		return
	}

	pageURL := urlutil.Clean(req.PageURL)
	records := make([]models.ConversionRecord, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Source == "" || item.Target == "" || item.Rate <= 0 {
			writeError(w, http.StatusBadRequest, "items need source, target, and a positive rate")
			return
		}
		item.PageURL = pageURL
		item.PageTitle = req.PageTitle
		item.Source = extract.TitleCase(item.Source)
		item.Target = extract.TitleCase(item.Target)
		records = append(records, item)
	}

	n, err := s.DB.UpsertConversions(records)
	if err != nil {
		s.Logger.Error("failed to upsert conversions", "page_url", pageURL, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "upserted": n})
}
