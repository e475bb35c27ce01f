// Package extract fetches article pages over plain HTTP and pulls
// structured metadata out of fixed DOM locations, degrading field by field
// when the page doesn't match.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"eetcorpus/scraper"
)

// ErrUnexpectedStatus indicates an HTTP response outside the 2xx range.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Record status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Sentinel values substituted when a field cannot be determined.
const (
	UnknownAuthor     = "Unknown Author"
	UnknownDate       = "Unknown Date"
	NoContentSentinel = "No content found in articleBody"
	errorField        = "ERROR"
)

// Record is the extraction result for one URL. Every requested URL yields
// exactly one record, success or failure.
type Record struct {
	Title           string
	FullContent     string
	PublicationDate string
	Author          string
	URL             string
	Status          string
}

// Header returns the output CSV column names, in order.
func Header() []string {
	return []string{"title", "full_content", "publication_date", "author", "url", "status"}
}

// Row returns the record's CSV cells in Header order.
func (r Record) Row() []string {
	return []string{r.Title, r.FullContent, r.PublicationDate, r.Author, r.URL, r.Status}
}

// Extractor fetches and parses individual article pages.
type Extractor struct {
	client      *http.Client
	cfg         *scraper.ArticleConfig
	userAgent   string
	maxAttempts int
	log         *slog.Logger
}

// NewExtractor creates an extractor with the given article selectors, HTTP
// timeout, and retry budget. maxAttempts below 1 is treated as 1.
func NewExtractor(cfg *scraper.ArticleConfig, timeout time.Duration, userAgent string, maxAttempts int, logger *slog.Logger) *Extractor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:      &http.Client{Timeout: timeout},
		cfg:         cfg,
		userAgent:   userAgent,
		maxAttempts: maxAttempts,
		log:         logger,
	}
}

// ExtractOne produces the record for a single URL. Fetch and parse failures
// become an error record; they are never returned as errors, so one bad URL
// can't abort a batch.
func (e *Extractor) ExtractOne(ctx context.Context, url string) Record {
	doc, err := e.fetch(ctx, url)
	if err != nil {
		e.log.Error("failed to extract article", "url", url, "error", truncate(err.Error(), 100))
		return errorRecord(url, err)
	}

	rec := e.extractFields(doc, url)
	e.log.Info("extracted article",
		"url", url,
		"title", rec.Title,
		"author", rec.Author,
		"content_len", len(rec.FullContent))
	return rec
}

// fetch performs the bounded-timeout GET, retrying transiently retryable
// statuses up to the attempt budget.
func (e *Extractor) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", e.userAgent)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to fetch URL: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		return doc, nil
	}

	return nil, lastErr
}

// fieldStrategy is one step in a fallback chain: it either produces the
// field value or passes to the next step.
type fieldStrategy func(doc *goquery.Document) (string, bool)

// firstOf tries strategies in order and falls back to the sentinel when
// none succeeds.
func firstOf(doc *goquery.Document, sentinel string, strategies ...fieldStrategy) string {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v
		}
	}
	return sentinel
}

// extractFields locates the four metadata regions. Each field degrades
// independently: a missing selector never blocks the other fields.
func (e *Extractor) extractFields(doc *goquery.Document, url string) Record {
	title := firstOf(doc, "",
		selectorText(e.cfg.TitleSelector),
		selectorText("title"),
	)

	author := firstOf(doc, UnknownAuthor,
		func(doc *goquery.Document) (string, bool) {
			container := doc.Find(e.cfg.AuthorContainerSelector).First()
			if container.Length() == 0 {
				return "", false
			}
			if link := container.Find(e.cfg.AuthorLinkSelector).First(); link.Length() > 0 {
				return strings.TrimSpace(link.Text()), true
			}
			// Container exists but the author link pattern doesn't match;
			// its raw text is the byline.
			return strings.TrimSpace(container.Text()), true
		},
	)

	date := firstOf(doc, UnknownDate,
		selectorText(e.cfg.DateSelector),
	)

	body := firstOf(doc, NoContentSentinel,
		func(doc *goquery.Document) (string, bool) {
			container := doc.Find(e.cfg.BodySelector).First()
			if container.Length() == 0 {
				return "", false
			}
			var parts []string
			container.Find(e.cfg.BodyParagraphSelector).Each(func(_ int, p *goquery.Selection) {
				if text := normalizeWhitespace(p.Text()); text != "" {
					parts = append(parts, text)
				}
			})
			if len(parts) == 0 {
				return "", false
			}
			return strings.Join(parts, " "), true
		},
	)

	return Record{
		Title:           title,
		FullContent:     body,
		PublicationDate: date,
		Author:          author,
		URL:             url,
		Status:          StatusSuccess,
	}
}

// selectorText is a strategy that yields the trimmed text of the first
// element matching the selector.
func selectorText(selector string) fieldStrategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		return normalizeWhitespace(sel.Text()), true
	}
}

// errorRecord replaces every text field with the error sentinel so failed
// URLs still occupy exactly one row.
func errorRecord(url string, err error) Record {
	return Record{
		Title:           errorField,
		FullContent:     "Error extracting content: " + err.Error(),
		PublicationDate: errorField,
		Author:          errorField,
		URL:             url,
		Status:          StatusError,
	}
}

// normalizeWhitespace collapses all runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isRetryableStatus reports whether a status code is worth another attempt.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
