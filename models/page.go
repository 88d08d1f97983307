package models

import "time"

// Table is one HTML table lifted off a page: header cells plus body rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ScrapePage is the stored snapshot of one scraped page, keyed by its
// cleaned (fragment-free) URL.
type ScrapePage struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	Path      string     `json:"path"`
	Title     string     `json:"title,omitempty"`
	Lang      string     `json:"lang,omitempty"`
	Excerpt   string     `json:"excerpt,omitempty"`
	Tables    []Table    `json:"tables"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

// PageSummary is the listing view of a stored page, without table bodies.
type PageSummary struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	Path       string `json:"path"`
	Title      string `json:"title,omitempty"`
	Lang       string `json:"lang,omitempty"`
	TableCount int    `json:"table_count"`
}
