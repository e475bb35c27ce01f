package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eetcorpus/checkpoint"
	"eetcorpus/scraper"
)

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body>
			<h1>Article %s</h1>
			<div class="articleBody"><p>Body of %s.</p></div>
		</body></html>`, r.URL.Path, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRunner(t *testing.T, interval int, outPath string) *Runner {
	t.Helper()
	e := NewExtractor(scraper.NewArticleConfig(), 5*time.Second, "test-agent", 1, nil)
	return NewRunner(e, interval, 0, outPath, nil)
}

// TestRun_OneRecordPerURL verifies cardinality and ordering: every input
// URL yields exactly one record, failures included, in input order.
func TestRun_OneRecordPerURL(t *testing.T) {
	srv := articleServer(t)
	urls := []string{
		srv.URL + "/a",
		srv.URL + "/missing/one",
		srv.URL + "/b",
		srv.URL + "/missing/two",
		srv.URL + "/c",
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	records, err := testRunner(t, 50, out).Run(context.Background(), urls)

	require.NoError(t, err)
	require.Len(t, records, len(urls))
	for i, rec := range records {
		assert.Equal(t, urls[i], rec.URL)
	}
	assert.Equal(t, StatusSuccess, records[0].Status)
	assert.Equal(t, StatusError, records[1].Status)
	assert.Equal(t, StatusError, records[3].Status)

	// The output file mirrors the full record set.
	saved, err := checkpoint.ReadURLColumn(out, "url")
	require.NoError(t, err)
	assert.Equal(t, urls, saved)
}

// TestRun_HeaderOnlyFile verifies the output file is a valid, openable CSV
// before any URL has been processed.
func TestRun_HeaderOnlyFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")

	records, err := testRunner(t, 50, out).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, records)

	saved, err := checkpoint.ReadURLColumn(out, "url")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// TestRun_FinalFlushBelowInterval verifies the unconditional flush after
// the last URL: 37 URLs with a 50-URL checkpoint interval still leave all
// 37 well-formed rows in the file.
func TestRun_FinalFlushBelowInterval(t *testing.T) {
	srv := articleServer(t)
	urls := make([]string, 37)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/article-%d", srv.URL, i)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	records, err := testRunner(t, 50, out).Run(context.Background(), urls)

	require.NoError(t, err)
	require.Len(t, records, 37)

	saved, err := checkpoint.ReadURLColumn(out, "url")
	require.NoError(t, err)
	assert.Equal(t, urls, saved)

	titles, err := checkpoint.ReadURLColumn(out, "title")
	require.NoError(t, err)
	assert.Len(t, titles, 37, "every row is column-complete")
}

// TestRun_InterruptReturnsPartial verifies cancellation flushes the partial
// result set and returns it without error.
func TestRun_InterruptReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		if served == 3 {
			// Interrupt arrives while the third article is in flight; the
			// loop notices before starting the fourth.
			cancel()
		}
		fmt.Fprintf(w, `<html><body><h1>A</h1><div class="articleBody"><p>b</p></div></body></html>`)
	}))
	t.Cleanup(srv.Close)

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/a-%d", srv.URL, i)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	records, err := testRunner(t, 50, out).Run(ctx, urls)

	require.NoError(t, err, "interruption is not an error")
	require.Len(t, records, 3)

	saved, err := checkpoint.ReadURLColumn(out, "url")
	require.NoError(t, err)
	assert.Equal(t, urls[:3], saved)
}

// TestOutputFilenames verifies the timestamped filename formats.
func TestOutputFilenames(t *testing.T) {
	at := time.Date(2025, 6, 12, 9, 30, 5, 0, time.UTC)

	assert.Equal(t, "article_extracts_20250612_093005.csv", OutputFilename(at))
	assert.Equal(t, "single_article_extract_20250612_093005.csv", SingleOutputFilename(at))
}
