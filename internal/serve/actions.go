package serve

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/balltd/convscrape/models"
	"github.com/balltd/convscrape/pkg/db"
	"github.com/balltd/convscrape/pkg/fetcher"
	"github.com/urfave/cli/v2"
)

// ServeAction runs the HTTP API until the process is stopped.
func ServeAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("addr") {
		config.Addr = c.String("addr")
	}
	if c.IsSet("db") {
		config.DatabasePath = c.String("db")
	}

	database, err := db.Open(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	server := &Server{
		DB:      database,
		Fetcher: fetcher.NewFetcherWith(config.FetchTimeout, config.UserAgent),
		Logger:  logger,
		Config:  config,
	}

	logger.Info("serving API", "addr", config.Addr, "database", database.Path())
	if err := http.ListenAndServe(config.Addr, server.Routes()); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
