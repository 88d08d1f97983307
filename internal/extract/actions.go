// Package extract implements the conversion-extraction CLI command.
package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/crawler"
	"github.com/balltd/convscrape/pkg/db"
	extractpkg "github.com/balltd/convscrape/pkg/extract"
	"github.com/balltd/convscrape/pkg/fetcher"
	"github.com/balltd/convscrape/pkg/urlutil"
	"github.com/urfave/cli/v2"
)

// ExtractAction fetches a page, runs the extraction pipeline, and prints
// the resulting conversion records. With --save the snapshot and records
// are also written to the store.
func ExtractAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("db") {
		config.DatabasePath = c.String("db")
	}

	rawURL := c.Args().First()
	if rawURL == "" {
		return fmt.Errorf("provide a url to extract from")
	}
	pageURL := urlutil.Sanitize(rawURL)
	if !urlutil.Validate(pageURL) {
		return fmt.Errorf("invalid url: %s", rawURL)
	}
	pageURL = urlutil.Clean(pageURL)

	f := fetcher.NewFetcherWith(config.FetchTimeout, config.UserAgent)
	page, err := f.Fetch(c.Context, pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	snapshot := crawler.Snapshot(pageURL, page, config.DetectLanguage)
	records := extractpkg.FromDocument(page.Doc, pageURL, snapshot.Title, c.Bool("ocr"))
	logger.Info("extraction finished", "url", pageURL, "records", len(records))

	if c.Bool("save") {
		database, err := db.Open(config.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		if err := database.UpsertPage(snapshot); err != nil {
			return fmt.Errorf("failed to store snapshot: %w", err)
		}
		if _, err := database.UpsertConversions(records); err != nil {
			return fmt.Errorf("failed to store conversions: %w", err)
		}
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No conversions found")
		return nil
	}
	printRecords(records)
	return nil
}

func printRecords(records []models.ConversionRecord) {
	fmt.Printf("%-20s %-20s %-12s %s\n", "Source", "Target", "Rate", "Text")
	for _, r := range records {
		fmt.Printf("%-20s %-20s %-12.4g %s\n", r.Source, r.Target, r.Rate, r.Text)
	}
	fmt.Printf("\nTotal: %d conversions\n", len(records))
}
