package main

import (
	"log"
	"os"

	internaldb "github.com/balltd/convscrape/internal/db"
	"github.com/balltd/convscrape/internal/extract"
	"github.com/balltd/convscrape/internal/scrape"
	"github.com/balltd/convscrape/internal/serve"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "convscrape",
		Usage: "scrape web pages and extract resource conversion rates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "path to the SQLite database (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address (overrides config)",
					},
				},
			},
			{
				Name:      "scrape",
				Usage:     "scrape one or more pages into the store",
				ArgsUsage: "<url>...",
				Action:    scrape.ScrapeAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "crawl",
						Usage: "follow same-origin links breadth-first from a single seed",
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Value: 10,
						Usage: "page cap when crawling",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "worker count for multi-url scrapes (overrides config)",
					},
				},
			},
			{
				Name:      "extract",
				Usage:     "extract conversion rates from a page",
				ArgsUsage: "<url>",
				Action:    extract.ExtractAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "ocr",
						Usage: "also scan image alt/title/aria-label text and captions",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "persist the snapshot and records to the store",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "print records as JSON",
					},
				},
			},
			{
				Name:   "pages",
				Usage:  "list stored page snapshots",
				Action: internaldb.PagesAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 100,
						Usage: "maximum pages to list",
					},
				},
			},
			{
				Name:   "conversions",
				Usage:  "list stored conversion records for a page",
				Action: internaldb.ConversionsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "page-url",
						Usage: "page URL to list conversions for",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
