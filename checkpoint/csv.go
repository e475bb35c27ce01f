// Package checkpoint persists crawl progress as CSV files so an
// interrupted run loses at most one batch of work.
package checkpoint

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrColumnMissing indicates the input CSV has no column with the
// configured name.
var ErrColumnMissing = errors.New("column not found in CSV")

// WriteURLs writes a one-column CSV of URLs with a "URL" header,
// overwriting any existing file at path.
func WriteURLs(path string, urls []string) error {
	rows := make([][]string, 0, len(urls))
	for _, u := range urls {
		rows = append(rows, []string{u})
	}
	return WriteCSV(path, []string{"URL"}, rows)
}

// WriteCSV writes a header row followed by the given rows, overwriting any
// existing file at path. Writing the header with no rows produces a valid,
// openable file, which is what a zero-progress checkpoint looks like.
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	return nil
}

// ReadURLColumn reads the named column from a CSV file. The header match is
// case-insensitive. Rows that are short or empty are skipped rather than
// failing the whole read.
func ReadURLColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrColumnMissing, column, strings.Join(header, ", "))
	}

	var urls []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if col >= len(record) {
			continue
		}
		url := strings.TrimSpace(record[col])
		if url == "" {
			continue
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// stripBOM removes a leading UTF-8 byte order mark, which spreadsheet
// exports commonly prepend.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rn, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rn != '\ufeff' {
		br.UnreadRune()
	}
	return br
}
