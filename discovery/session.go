package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// SessionOptions configures one browser session lease.
type SessionOptions struct {
	Headless        bool
	ScriptsEnabled  bool
	UserAgent       string
	PageLoadTimeout time.Duration
	ContainerWait   time.Duration
}

// Session is a headless Chrome session used to load listing pages. Sessions
// are leased for a bounded number of pages and then closed and reacquired
// to bound resource growth; Close must be called on every exit path.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        SessionOptions
}

// NewSession starts a browser session. Images stay disabled for speed;
// script execution follows opts.ScriptsEnabled.
func NewSession(parent context.Context, opts SessionOptions) (*Session, error) {
	blink := "imagesEnabled=false"
	if !opts.ScriptsEnabled {
		blink += ",scriptEnabled=false"
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", blink),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so that session-fatal startup errors surface
	// here instead of on the first page.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		opts:        opts,
	}, nil
}

// FetchListing navigates to a listing URL, waits (bounded) for one of the
// known containers to appear, and returns the rendered page HTML. The page
// loads on the session context so the tab survives between calls, but
// cancelling the caller's ctx aborts an in-flight fetch.
func (s *Session) FetchListing(ctx context.Context, url string, containers []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	navCtx, cancelNav := context.WithTimeout(callCtx, s.opts.PageLoadTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}

	if err := s.waitAnyVisible(callCtx, containers); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(callCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page: %w", err)
	}
	return html, nil
}

// waitAnyVisible polls until any of the selectors is present in the DOM,
// bounded by the configured container wait.
func (s *Session) waitAnyVisible(ctx context.Context, selectors []string) error {
	quoted := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		quoted = append(quoted, strconv.Quote(sel))
	}
	js := fmt.Sprintf(`[%s].some(s => document.querySelector(s) !== null)`, strings.Join(quoted, ","))

	var present bool
	err := chromedp.Run(ctx,
		chromedp.Poll(js, &present, chromedp.WithPollingTimeout(s.opts.ContainerWait)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoContainer, err)
	}
	return nil
}

// Close tears down the browser session.
func (s *Session) Close() {
	s.cancel()
	s.cancelAlloc()
}
