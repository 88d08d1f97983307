package db

import (
	"fmt"
	"time"

	"github.com/balltd/convscrape/models"
)

// UpsertConversions writes records for a page inside one transaction.
// created_at is set once per (page_url, source, target); rate, text, and
// page_title take the incoming value on every write. Returns the number of
// records written.
func (db *DB) UpsertConversions(records []models.ConversionRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO conversions (page_url, page_title, source, target, rate, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(page_url, source, target) DO UPDATE SET
			page_title = excluded.page_title,
			rate = excluded.rate,
			text = excluded.text,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.PageURL, r.PageTitle, r.Source, r.Target, r.Rate, r.Text); err != nil {
			return 0, fmt.Errorf("failed to upsert conversion (%s, %s, %s): %w",
				r.PageURL, r.Source, r.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit conversions: %w", err)
	}
	return len(records), nil
}

// ListConversions returns the records stored for a page URL, oldest pair
// first.
func (db *DB) ListConversions(pageURL string) ([]models.ConversionRecord, error) {
	rows, err := db.Query(`
		SELECT page_url, page_title, source, target, rate, text, created_at, updated_at
		FROM conversions WHERE page_url = ? ORDER BY conversion_id
	`, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var records []models.ConversionRecord
	for rows.Next() {
		var (
			r                    models.ConversionRecord
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&r.PageURL, &r.PageTitle, &r.Source, &r.Target,
			&r.Rate, &r.Text, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion row: %w", err)
		}
		r.CreatedAt = &createdAt
		r.UpdatedAt = &updatedAt
		records = append(records, r)
	}
	return records, rows.Err()
}
