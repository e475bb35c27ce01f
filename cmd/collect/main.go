package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"eetcorpus/checkpoint"
	"eetcorpus/config"
	"eetcorpus/discovery"
	"eetcorpus/scraper"
	"eetcorpus/urlstore"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	godotenv.Load()

	configPath := flag.String("config", getEnv("EETCORPUS_CONFIG", "eetcorpus.yaml"), "path to YAML config file")
	pages := flag.String("pages", "", "page range override, e.g. 1-1824")
	feed := flag.String("feed", "", "collect from this RSS/Atom feed URL instead of paginated listings")
	resume := flag.Bool("resume", false, "skip URLs already present in the store from previous runs")
	outDir := flag.String("out", "", "output directory override")
	logJSON := flag.Bool("log-json", false, "emit JSON logs")
	flag.Parse()

	logger := newLogger(*logJSON)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *pages != "" {
		rng, err := parsePageRange(*pages)
		if err != nil {
			logger.Error("invalid -pages value", "value", *pages, "error", err)
			os.Exit(1)
		}
		cfg.Collector.PageRange = rng
	}
	if *outDir != "" {
		cfg.Collector.OutputDir = *outDir
	}
	if *feed != "" {
		cfg.Collector.FeedURL = *feed
	}

	listing := scraper.NewListingConfig()
	listing.MinLinkTextLen = cfg.Collector.MinLinkTextLength

	var store *urlstore.Store
	if cfg.Collector.StorePath != "" {
		store, err = urlstore.Open(cfg.Collector.StorePath)
		if err != nil {
			logger.Error("failed to open URL store", "path", cfg.Collector.StorePath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Collector.FeedURL != "" {
		if err := collectFeed(ctx, cfg.Collector, listing, store, logger); err != nil {
			logger.Error("feed collection failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sessions := func(ctx context.Context, scriptsEnabled bool) (discovery.ListingFetcher, error) {
		s, err := discovery.NewSession(ctx, discovery.SessionOptions{
			Headless:        cfg.Collector.Headless,
			ScriptsEnabled:  scriptsEnabled,
			UserAgent:       cfg.Collector.UserAgent,
			PageLoadTimeout: cfg.Collector.PageLoadTimeout(),
			ContainerWait:   cfg.Collector.ContainerWait(),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	collector := discovery.NewCollector(cfg.Collector, listing, sessions, store, *resume, logger)
	if err := collector.Run(ctx); err != nil {
		logger.Error("collection failed", "error", err)
		os.Exit(1)
	}
}

// collectFeed pulls links from the configured feed and writes them through
// the same checkpoint path as a listing run.
func collectFeed(ctx context.Context, cfg config.CollectorConfig, listing *scraper.ListingConfig, store *urlstore.Store, logger *slog.Logger) error {
	urls, err := discovery.FetchFeedLinks(ctx, cfg.FeedURL, listing)
	if err != nil {
		return err
	}

	if store != nil {
		runID := uuid.New()
		for _, url := range urls {
			if _, err := store.MarkIfNew(url, 0, runID); err != nil {
				logger.Error("failed to index URL", "url", url, "error", err)
			}
		}
	}

	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_feed.csv", cfg.OutputPrefix))
	if err := checkpoint.WriteURLs(path, urls); err != nil {
		return err
	}
	logger.Info("feed collection complete", "urls", len(urls), "file", path)
	return nil
}

// parsePageRange parses a "start-end" range argument.
func parsePageRange(s string) (config.PageRange, error) {
	var rng config.PageRange
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return rng, fmt.Errorf("expected start-end, got %q", s)
	}
	if _, err := fmt.Sscanf(s, "%d-%d", &rng.Start, &rng.End); err != nil {
		return rng, fmt.Errorf("expected start-end, got %q", s)
	}
	if rng.Start < 1 || rng.Start > rng.End {
		return rng, fmt.Errorf("invalid range %d-%d", rng.Start, rng.End)
	}
	return rng, nil
}

func newLogger(json bool) *slog.Logger {
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
