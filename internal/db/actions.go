// Package db implements the CLI commands that inspect the store.
package db

import (
	"fmt"
	"strings"

	"github.com/balltd/convscrape/models"
	dbpkg "github.com/balltd/convscrape/pkg/db"
	"github.com/balltd/convscrape/pkg/urlutil"
	"github.com/urfave/cli/v2"
)

func openStore(c *cli.Context) (*dbpkg.DB, error) {
	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	path := config.DatabasePath
	if c.IsSet("db") {
		path = c.String("db")
	}
	database, err := dbpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// PagesAction lists stored page snapshots.
func PagesAction(c *cli.Context) error {
	database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	pages, err := database.ListPages(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}

	if len(pages) == 0 {
		fmt.Println("No pages found")
		return nil
	}

	fmt.Printf("%-6s %-6s %-8s %-40s %s\n", "ID", "Lang", "Tables", "Title", "URL")
	fmt.Println(strings.Repeat("-", 110))
	for _, p := range pages {
		title := p.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Printf("%-6d %-6s %-8d %-40s %s\n", p.ID, p.Lang, p.TableCount, title, p.URL)
	}
	fmt.Printf("\nTotal: %d pages\n", len(pages))

	return nil
}

// ConversionsAction lists the conversion records stored for one page.
func ConversionsAction(c *cli.Context) error {
	pageURL := c.String("page-url")
	if pageURL == "" {
		return fmt.Errorf("provide --page-url")
	}

	database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := database.ListConversions(urlutil.Clean(pageURL))
	if err != nil {
		return fmt.Errorf("failed to list conversions: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No conversions found")
		return nil
	}

	fmt.Printf("%-20s %-20s %-12s %-20s %s\n", "Source", "Target", "Rate", "Updated", "Text")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range records {
		updated := ""
		if r.UpdatedAt != nil {
			updated = r.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-20s %-20s %-12.4g %-20s %s\n", r.Source, r.Target, r.Rate, updated, r.Text)
	}
	fmt.Printf("\nTotal: %d conversions\n", len(records))

	return nil
}
