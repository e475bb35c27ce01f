package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"eetcorpus/checkpoint"
)

// Runner processes a URL list sequentially, accumulating records and
// overwriting the output checkpoint as it goes.
type Runner struct {
	extractor *Extractor
	interval  int
	outPath   string
	limiter   *rate.Limiter
	log       *slog.Logger
}

// NewRunner creates a runner that checkpoints every interval URLs to
// outPath and waits delay between requests.
func NewRunner(extractor *Extractor, interval int, delay time.Duration, outPath string, logger *slog.Logger) *Runner {
	if interval < 1 {
		interval = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Runner{
		extractor: extractor,
		interval:  interval,
		outPath:   outPath,
		limiter:   limiter,
		log:       logger,
	}
}

// Run extracts every URL in order, producing exactly one record per URL.
// The output file is written header-only before processing starts, so a
// zero-progress interruption still leaves a valid file. Cancelling ctx
// flushes and returns the partial result set without error.
func (r *Runner) Run(ctx context.Context, urls []string) ([]Record, error) {
	if err := r.flush(nil); err != nil {
		return nil, err
	}
	r.log.Info("starting extraction", "urls", len(urls), "file", r.outPath)

	records := make([]Record, 0, len(urls))
	for i, url := range urls {
		if ctx.Err() != nil {
			return r.interrupted(records, len(urls))
		}

		r.log.Info("processing", "n", i+1, "total", len(urls), "url", url)
		records = append(records, r.extractor.ExtractOne(ctx, url))

		if (i+1)%r.interval == 0 || i == len(urls)-1 {
			if err := r.flush(records); err != nil {
				return records, err
			}
			r.log.Info("progress saved", "done", i+1, "total", len(urls))
		}

		if r.limiter != nil && i < len(urls)-1 {
			if err := r.limiter.Wait(ctx); err != nil {
				return r.interrupted(records, len(urls))
			}
		}
	}

	success := 0
	for _, rec := range records {
		if rec.Status == StatusSuccess {
			success++
		}
	}
	r.log.Info("extraction complete",
		"total", len(records),
		"success", success,
		"failed", len(records)-success,
		"file", r.outPath)

	return records, nil
}

// interrupted flushes the partial result set after a manual interrupt and
// returns it without re-raising.
func (r *Runner) interrupted(records []Record, total int) ([]Record, error) {
	if err := r.flush(records); err != nil {
		r.log.Error("failed to save partial results", "error", err)
		return records, err
	}
	r.log.Info("interrupted, partial results saved", "done", len(records), "total", total, "file", r.outPath)
	return records, nil
}

// flush overwrites the output file with all records accumulated so far.
func (r *Runner) flush(records []Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.Row())
	}
	if err := checkpoint.WriteCSV(r.outPath, Header(), rows); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// OutputFilename returns the timestamped batch output filename.
func OutputFilename(now time.Time) string {
	return fmt.Sprintf("article_extracts_%s.csv", now.Format("20060102_150405"))
}

// SingleOutputFilename returns the timestamped single-URL output filename.
func SingleOutputFilename(now time.Time) string {
	return fmt.Sprintf("single_article_extract_%s.csv", now.Format("20060102_150405"))
}
