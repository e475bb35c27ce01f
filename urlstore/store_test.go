package urlstore

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestMarkIfNew verifies first-insert detection across runs.
func TestMarkIfNew(t *testing.T) {
	store := testStore(t)
	run1 := uuid.New()
	run2 := uuid.New()

	fresh, err := store.MarkIfNew("https://www.eetimes.com/news/foo", 3, run1)
	require.NoError(t, err)
	assert.True(t, fresh, "first sighting is new")

	fresh, err = store.MarkIfNew("https://www.eetimes.com/news/foo", 9, run1)
	require.NoError(t, err)
	assert.False(t, fresh, "repeat within the same run is not new")

	fresh, err = store.MarkIfNew("https://www.eetimes.com/news/foo", 1, run2)
	require.NoError(t, err)
	assert.False(t, fresh, "repeat in a later run is not new")
}

// TestKnownAndCount verifies index lookups.
func TestKnownAndCount(t *testing.T) {
	store := testStore(t)
	run := uuid.New()

	known, err := store.Known("https://www.eetimes.com/news/foo")
	require.NoError(t, err)
	assert.False(t, known)

	_, err = store.MarkIfNew("https://www.eetimes.com/news/foo", 1, run)
	require.NoError(t, err)
	_, err = store.MarkIfNew("https://www.eetimes.com/news/bar", 2, run)
	require.NoError(t, err)

	known, err = store.Known("https://www.eetimes.com/news/foo")
	require.NoError(t, err)
	assert.True(t, known)

	count, err := store.CountURLs()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestRunLifecycle verifies run records can be opened and closed.
func TestRunLifecycle(t *testing.T) {
	store := testStore(t)
	run := uuid.New()

	require.NoError(t, store.BeginRun(run, 1, 1824))

	rec, err := store.GetRun(run)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PageStart)
	assert.Equal(t, 1824, rec.PageEnd)
	assert.Nil(t, rec.FinishedAt)

	require.NoError(t, store.FinishRun(run, 42))

	rec, err = store.GetRun(run)
	require.NoError(t, err)
	assert.Equal(t, 42, rec.URLCount)
	assert.NotNil(t, rec.FinishedAt)
}
