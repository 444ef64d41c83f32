package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-hclog"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/hashicorp-forge/dbadapter/internal/config"
	"github.com/hashicorp-forge/dbadapter/internal/connector"
	"github.com/hashicorp-forge/dbadapter/pkg/search"
	meilisearchadapter "github.com/hashicorp-forge/dbadapter/pkg/search/adapters/meilisearch"
)

func main() {
	configPath := flag.String("config", "config.hcl", "Path to configuration file")
	crawlOnce := flag.Bool("once", false, "Crawl once and exit, ignoring crawl_interval")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "dbadapter",
		Level: hclog.Info,
	})

	logger.Info("starting dbadapter", "config", *configPath)

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *crawlOnce, logger); err != nil {
		logger.Error("dbadapter failed", "error", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("dbadapter stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, crawlOnce bool, logger hclog.Logger) error {
	provider, err := initializeSearchProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize search provider: %w", err)
	}
	logger.Info("search provider ready", "provider", provider.Name())

	db, err := connector.Connect(ctx, cfg.Database, logger.Named("db"))
	if err != nil {
		return err
	}

	conn, err := connector.New(ctx, cfg, db, provider, logger.Named("connector"))
	if err != nil {
		db.Close()
		return err
	}
	defer conn.Close()

	logger.Info("unique key ready", "columns", conn.Key().Columns())

	interval := cfg.CrawlIntervalDuration()
	if crawlOnce || interval == 0 {
		_, err := conn.Crawl(ctx)
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := conn.Crawl(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("crawl failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func initializeSearchProvider(cfg *config.Config) (search.Provider, error) {
	switch cfg.Search.Provider {
	case "meilisearch":
		return meilisearchadapter.NewAdapter(&meilisearchadapter.Config{
			Host:      cfg.Search.Host,
			APIKey:    cfg.Search.APIKey,
			IndexName: cfg.Search.IndexName,
		})
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Search.Provider)
	}
}
