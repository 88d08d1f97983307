package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/balltd/convscrape/models"
)

// UpsertPage stores a page snapshot, replacing any earlier snapshot of the
// same URL. scraped_at is refreshed on every write.
func (db *DB) UpsertPage(page *models.ScrapePage) error {
	tablesJSON, err := json.Marshal(page.Tables)
	if err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}

	path := page.Path
	if path == "" {
		if parsed, err := url.Parse(page.URL); err == nil {
			path = parsed.Path
		}
	}

	_, err = db.Exec(`
		INSERT INTO pages (url, path, title, lang, excerpt, tables_json, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(url) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			lang = excluded.lang,
			excerpt = excluded.excerpt,
			tables_json = excluded.tables_json,
			scraped_at = CURRENT_TIMESTAMP
	`, page.URL, path, page.Title, page.Lang, page.Excerpt, string(tablesJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// GetPageByURL looks up a snapshot by its cleaned URL. Returns ErrNotFound
// when no snapshot exists.
func (db *DB) GetPageByURL(pageURL string) (*models.ScrapePage, error) {
	return db.getPage("url = ?", pageURL)
}

// GetPageByID looks up a snapshot by row ID. Returns ErrNotFound when no
// snapshot exists.
func (db *DB) GetPageByID(id int64) (*models.ScrapePage, error) {
	return db.getPage("page_id = ?", id)
}

func (db *DB) getPage(where string, arg any) (*models.ScrapePage, error) {
	var (
		page       models.ScrapePage
		tablesJSON string
		scrapedAt  time.Time
	)
	err := db.QueryRow(`
		SELECT page_id, url, path, title, lang, excerpt, tables_json, scraped_at
		FROM pages WHERE `+where, arg,
	).Scan(&page.ID, &page.URL, &page.Path, &page.Title, &page.Lang,
		&page.Excerpt, &tablesJSON, &scrapedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}

	if err := json.Unmarshal([]byte(tablesJSON), &page.Tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	page.ScrapedAt = &scrapedAt
	return &page, nil
}

// ListPages returns page summaries, most recently scraped first, without
// table bodies.
func (db *DB) ListPages(limit int) ([]models.PageSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(`
		SELECT page_id, url, path, title, lang, tables_json
		FROM pages ORDER BY scraped_at DESC, page_id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var summaries []models.PageSummary
	for rows.Next() {
		var (
			s          models.PageSummary
			tablesJSON string
		)
		if err := rows.Scan(&s.ID, &s.URL, &s.Path, &s.Title, &s.Lang, &tablesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		var tables []models.Table
		if err := json.Unmarshal([]byte(tablesJSON), &tables); err == nil {
			s.TableCount = len(tables)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
