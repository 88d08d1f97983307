// Package scrape implements the one-shot scraping CLI commands.
package scrape

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/crawler"
	"github.com/balltd/convscrape/pkg/db"
	"github.com/balltd/convscrape/pkg/fetcher"
	"github.com/balltd/convscrape/pkg/urlutil"
	"github.com/urfave/cli/v2"
)

// Job defines a task for a worker to perform.
type Job struct {
	URL string
}

// Result holds the outcome of a processed job.
type Result struct {
	URL        string
	PagesSaved int
	Error      error
}

// ScrapeAction scrapes the URLs given as arguments. With --crawl a single
// seed is walked breadth-first; without it, multiple URLs fan out over a
// worker pool and each is scraped on its own.
func ScrapeAction(c *cli.Context) error {
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
	if c.IsSet("workers") {
		config.WorkerCount = c.Int("workers")
	}

	urls := make([]string, 0, c.Args().Len())
	for _, raw := range c.Args().Slice() {
		cleaned := urlutil.Sanitize(raw)
		if !urlutil.Validate(cleaned) {
			return fmt.Errorf("invalid url: %s", raw)
		}
		urls = append(urls, cleaned)
	}
	if len(urls) == 0 {
		return fmt.Errorf("provide at least one url")
	}
	if c.Bool("crawl") && len(urls) > 1 {
		return fmt.Errorf("crawl mode takes a single seed url")
	}

	database, err := db.Open(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	cr := &crawler.Crawler{
		Fetcher:        fetcher.NewFetcherWith(config.FetchTimeout, config.UserAgent),
		Store:          database,
		Logger:         logger,
		DetectLanguage: config.DetectLanguage,
	}

	if c.Bool("crawl") {
		saved, err := cr.Run(c.Context, urls[0], crawler.Options{
			Crawl:    true,
			MaxPages: c.Int("max-pages"),
		})
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}
		fmt.Printf("Saved %d pages from %s\n", saved, urls[0])
		return nil
	}

	results := runWorkers(c, cr, logger, config.WorkerCount, urls)

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "failed  %s: %s\n", r.URL, r.Error)
			continue
		}
		fmt.Printf("saved   %s\n", r.URL)
	}
	fmt.Printf("\n%d saved, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(results))
	}
	return nil
}

// runWorkers fans single-page scrapes out over a fixed worker pool and
// collects all results.
func runWorkers(c *cli.Context, cr *crawler.Crawler, logger *slog.Logger, workerCount int, urls []string) []Result {
	if workerCount < 1 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan Job, len(urls))
	results := make(chan Result, len(urls))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(c, w, cr, logger, &wg, jobs, results)
	}

	for _, u := range urls {
		jobs <- Job{URL: u}
	}
	close(jobs)

	wg.Wait()
	close(results)

	collected := make([]Result, 0, len(urls))
	for r := range results {
		collected = append(collected, r)
	}
	return collected
}

// worker processes jobs from the jobs channel and sends results to the
// results channel. Each job is an independent single-page scrape, so no
// frontier state is shared between workers.
func worker(c *cli.Context, id int, cr *crawler.Crawler, logger *slog.Logger, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Info("worker started job", "worker_id", id, "url", job.URL)
		saved, err := cr.Run(c.Context, job.URL, crawler.Options{})
		results <- Result{URL: job.URL, PagesSaved: saved, Error: err}
		logger.Info("worker finished job", "worker_id", id, "url", job.URL)
	}
}
