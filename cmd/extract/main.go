package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"eetcorpus/checkpoint"
	"eetcorpus/config"
	"eetcorpus/extract"
	"eetcorpus/scraper"
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
	input := flag.String("input", "", "CSV file of URLs to extract")
	column := flag.String("column", "", "URL column name override")
	single := flag.String("url", "", "extract a single URL instead of a CSV file")
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
	if *column != "" {
		cfg.Extractor.URLColumn = *column
	}
	if *outDir != "" {
		cfg.Extractor.OutputDir = *outDir
	}

	if *input == "" && *single == "" {
		logger.Error("either -input or -url is required")
		flag.Usage()
		os.Exit(1)
	}

	var urls []string
	outName := extract.OutputFilename(time.Now())
	if *single != "" {
		urls = []string{*single}
		outName = extract.SingleOutputFilename(time.Now())
	} else {
		urls, err = checkpoint.ReadURLColumn(*input, cfg.Extractor.URLColumn)
		if err != nil {
			logger.Error("failed to read URL list", "file", *input, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded URL list", "file", *input, "urls", len(urls))
	}

	extractor := extract.NewExtractor(
		scraper.NewArticleConfig(),
		cfg.Extractor.Timeout(),
		cfg.Extractor.UserAgent,
		cfg.Extractor.MaxAttempts,
		logger,
	)
	runner := extract.NewRunner(
		extractor,
		cfg.Extractor.BatchSize,
		cfg.Extractor.RequestDelay(),
		filepath.Join(cfg.Extractor.OutputDir, outName),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx, urls); err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(json bool) *slog.Logger {
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
