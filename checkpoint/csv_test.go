package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteURLs_ReadBack verifies the one-column URL checkpoint roundtrip.
func TestWriteURLs_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.csv")
	urls := []string{
		"https://www.eetimes.com/news/foo",
		"https://www.eetimes.com/news/bar, with a comma",
	}

	require.NoError(t, WriteURLs(path, urls))

	got, err := ReadURLColumn(path, "URL")
	require.NoError(t, err)
	assert.Equal(t, urls, got)
}

// TestWriteCSV_HeaderOnly verifies that a header with no rows still
// produces a valid, openable file.
func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, WriteCSV(path, []string{"URL"}, nil))

	got, err := ReadURLColumn(path, "URL")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestReadURLColumn_BOMAndCase verifies the header match survives a UTF-8
// BOM and is case-insensitive.
func TestReadURLColumn_BOMAndCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	content := "\ufeffUrl,score\nhttps://example.com/a,1\nhttps://example.com/b,2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadURLColumn(path, "url")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, got)
}

// TestReadURLColumn_MissingColumn verifies the error names the missing and
// available columns.
func TestReadURLColumn_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cols.csv")
	require.NoError(t, os.WriteFile(path, []byte("link,title\nx,y\n"), 0644))

	_, err := ReadURLColumn(path, "url")

	require.ErrorIs(t, err, ErrColumnMissing)
	assert.Contains(t, err.Error(), "link, title")
}

// TestReadURLColumn_FailSoftRows verifies short and empty rows are skipped
// rather than failing the read.
func TestReadURLColumn_FailSoftRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.csv")
	content := "name,url\nok,https://example.com/a\nshortrow\n,\nok2,https://example.com/b\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := ReadURLColumn(path, "url")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, got)
}
