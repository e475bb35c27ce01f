package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"eetcorpus/checkpoint"
	"eetcorpus/config"
	"eetcorpus/scraper"
	"eetcorpus/urlstore"
)

// sessionPause is the settling pause between closing one browser session
// and starting the next.
const sessionPause = 2 * time.Second

// ListingFetcher loads a listing page and returns its rendered HTML. It is
// satisfied by *Session; tests substitute a stub.
type ListingFetcher interface {
	FetchListing(ctx context.Context, url string, containers []string) (string, error)
	Close()
}

// SessionFactory leases a new browser session. scriptsEnabled carries the
// rendering-mode escalation decided by the first-session probe.
type SessionFactory func(ctx context.Context, scriptsEnabled bool) (ListingFetcher, error)

// Collector drives the paginated link-collection loop. All accumulation
// state lives on the collector so the interrupt path can flush it without
// process-wide variables.
type Collector struct {
	cfg      config.CollectorConfig
	listing  *scraper.ListingConfig
	sessions SessionFactory
	store    *urlstore.Store
	resume   bool
	log      *slog.Logger
	limiter  *rate.Limiter

	runID          uuid.UUID
	scriptsEnabled bool
	seen           map[string]bool
	all            []string
	batch          []string
	batchNum       int
	batchStartPage int
}

// NewCollector creates a collector. store may be nil to run without the
// persistent URL index; resume only has effect with a store.
func NewCollector(cfg config.CollectorConfig, listing *scraper.ListingConfig, sessions SessionFactory, store *urlstore.Store, resume bool, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if delay := cfg.RequestDelay(); delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &Collector{
		cfg:      cfg,
		listing:  listing,
		sessions: sessions,
		store:    store,
		resume:   resume,
		log:      logger,
		limiter:  limiter,
		seen:     make(map[string]bool),
	}
}

// Run walks the configured page range, accumulating article URLs and
// flushing batch checkpoints. Cancelling ctx (the interrupt path) flushes
// everything collected so far to an emergency file and returns nil. Any
// error that escapes the per-page guard aborts the run after one last
// best-effort flush.
func (c *Collector) Run(ctx context.Context) error {
	c.runID = uuid.New()
	c.batchNum = 1
	c.batchStartPage = c.cfg.PageRange.Start

	if c.store != nil {
		if err := c.store.BeginRun(c.runID, c.cfg.PageRange.Start, c.cfg.PageRange.End); err != nil {
			return err
		}
	}

	c.log.Info("starting link collection",
		"run_id", c.runID.String(),
		"pages", c.cfg.PageRange.Pages(),
		"batch_size", c.cfg.BatchSize)

	var sess ListingFetcher
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	pagesOnLease := 0
	probed := false

	for page := c.cfg.PageRange.Start; page <= c.cfg.PageRange.End; page++ {
		if ctx.Err() != nil {
			return c.flushInterrupted(page)
		}

		// Lease lifecycle: acquire a session, use it for a bounded number
		// of pages, release and reacquire.
		if sess == nil || pagesOnLease >= c.cfg.SessionRestartInterval {
			if sess != nil {
				c.log.Info("restarting browser session", "page", page)
				sess.Close()
				sess = nil
				select {
				case <-time.After(sessionPause):
				case <-ctx.Done():
					return c.flushInterrupted(page)
				}
			}

			next, err := c.sessions(ctx, c.scriptsEnabled)
			if err != nil {
				c.flushFinal(page)
				return fmt.Errorf("failed to start browser session: %w", err)
			}
			sess = next
			pagesOnLease = 0
		}

		// Probe the first session once: a zero-link result means the site
		// needs script execution, so escalate for the rest of the run.
		if !probed {
			probed = true
			if len(c.collectPage(ctx, sess, page)) == 0 && !c.scriptsEnabled {
				c.log.Info("probe page yielded no links, enabling script execution")
				sess.Close()
				sess = nil
				c.scriptsEnabled = true

				next, err := c.sessions(ctx, c.scriptsEnabled)
				if err != nil {
					c.flushFinal(page)
					return fmt.Errorf("failed to restart browser session: %w", err)
				}
				sess = next
			}
		}

		urls := c.collectPage(ctx, sess, page)
		pagesOnLease++
		c.accumulate(urls, page)

		pagesDone := page - c.cfg.PageRange.Start + 1
		if pagesDone%c.cfg.BatchSize == 0 {
			if err := c.flushBatch(page); err != nil {
				c.flushFinal(page)
				return err
			}
			c.log.Info("batch complete",
				"batch", c.batchNum-1,
				"pages_done", pagesDone,
				"urls_total", len(c.all))
		}

		if c.limiter != nil && page < c.cfg.PageRange.End {
			if err := c.limiter.Wait(ctx); err != nil {
				return c.flushInterrupted(page)
			}
		}
	}

	// Remaining partial batch, then the deduplicated union of everything.
	if err := c.flushBatch(c.cfg.PageRange.End); err != nil {
		c.flushFinal(c.cfg.PageRange.End)
		return err
	}
	finalPath := c.outPath(fmt.Sprintf("%s_COMPLETE_all_pages.csv", c.cfg.OutputPrefix))
	if err := checkpoint.WriteURLs(finalPath, c.all); err != nil {
		c.flushFinal(c.cfg.PageRange.End)
		return err
	}

	if c.store != nil {
		if err := c.store.FinishRun(c.runID, len(c.all)); err != nil {
			c.log.Error("failed to record run finish", "error", err)
		}
	}

	c.log.Info("collection complete", "urls", len(c.all), "file", finalPath)
	return nil
}

// collectPage loads and parses one listing page. Page-level failures are
// logged and yield no links; they never abort the run.
func (c *Collector) collectPage(ctx context.Context, sess ListingFetcher, page int) []string {
	url := fmt.Sprintf(c.listing.PageURLTemplate, page)
	c.log.Info("scraping page", "page", page, "url", url)

	html, err := sess.FetchListing(ctx, url, c.listing.ContainerSelectors)
	if err != nil {
		c.log.Error("page failed to load", "page", page, "error", truncate(err.Error(), 100))
		return nil
	}

	links, err := ParseListing(html, c.listing)
	if err != nil {
		c.log.Error("page loaded without listing containers", "page", page, "error", truncate(err.Error(), 100))
		return nil
	}
	if len(links) == 0 {
		c.log.Warn("no article links found on page", "page", page)
		return nil
	}

	urls := FilterLinks(links, c.listing)
	c.log.Info("found links", "page", page, "links", len(urls))
	return urls
}

// accumulate merges page results into the run and batch accumulators,
// deduplicating across the whole run.
func (c *Collector) accumulate(urls []string, page int) {
	for _, url := range urls {
		if c.seen[url] {
			continue
		}
		c.seen[url] = true

		if c.store != nil {
			fresh, err := c.store.MarkIfNew(url, page, c.runID)
			if err != nil {
				c.log.Error("failed to index URL", "url", url, "error", err)
			} else if c.resume && !fresh {
				// Already collected by a previous run.
				continue
			}
		}

		c.all = append(c.all, url)
		c.batch = append(c.batch, url)
	}
}

// flushBatch writes the current batch checkpoint and advances the batch
// window. A batch that collected nothing advances without writing a file.
func (c *Collector) flushBatch(page int) error {
	if len(c.batch) > 0 {
		name := fmt.Sprintf("%s_batch_%d_pages_%d-%d.csv", c.cfg.OutputPrefix, c.batchNum, c.batchStartPage, page)
		if err := checkpoint.WriteURLs(c.outPath(name), c.batch); err != nil {
			return fmt.Errorf("failed to flush batch %d: %w", c.batchNum, err)
		}
		c.log.Info("saved batch checkpoint", "file", name, "urls", len(c.batch))
	}

	c.batch = nil
	c.batchNum++
	c.batchStartPage = page + 1
	return nil
}

// flushInterrupted dumps everything collected so far after a manual
// interrupt and ends the run cleanly.
func (c *Collector) flushInterrupted(page int) error {
	name := fmt.Sprintf("%s_interrupted_page_%d.csv", c.cfg.OutputPrefix, page)
	if err := checkpoint.WriteURLs(c.outPath(name), c.all); err != nil {
		c.log.Error("failed to save interrupted progress", "error", err)
		return err
	}
	c.log.Info("interrupted, progress saved", "file", name, "urls", len(c.all))
	return nil
}

// flushFinal is the best-effort last flush on a run-fatal error.
func (c *Collector) flushFinal(page int) {
	if len(c.all) == 0 {
		return
	}
	name := fmt.Sprintf("%s_final_page_%d.csv", c.cfg.OutputPrefix, page)
	if err := checkpoint.WriteURLs(c.outPath(name), c.all); err != nil {
		c.log.Error("failed to save final progress", "error", err)
		return
	}
	c.log.Info("saved progress before aborting", "file", name, "urls", len(c.all))
}

func (c *Collector) outPath(name string) string {
	return filepath.Join(c.cfg.OutputDir, name)
}

// Collected returns the deduplicated URLs accumulated so far.
func (c *Collector) Collected() []string {
	return c.all
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
