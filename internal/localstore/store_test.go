package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/model"
)

func newStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "library.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

func entry(id string) Entry {
	now := time.Now().UTC()
	return Entry{
		ID:        id,
		Title:     model.RecordingPlaceholderTitle,
		AudioPath: "/tmp/" + id + ".m4a",
		Status:    model.RecordingStatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFileStore_EmptyLibrary(t *testing.T) {
	store, _ := newStore(t)

	entries, err := store.All()

	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_PutKeepsNewestFirst(t *testing.T) {
	store, path := newStore(t)

	// given
	require.NoError(t, store.Put(entry("a")))
	require.NoError(t, store.Put(entry("b")))
	replaced := entry("a")
	replaced.Title = "Renamed"
	require.NoError(t, store.Put(replaced))

	// when
	entries, err := store.All()

	// then
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
	assert.Equal(t, "Renamed", entries[1].Title)

	// survives reopening
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestFileStore_UpdateAndDelete(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Put(entry("a")))

	updated, err := store.Update("a", func(e *Entry) error {
		e.Status = model.RecordingStatusProcessing
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.RecordingStatusProcessing, updated.Status)

	// a failing update leaves the stored entry alone
	_, err = store.Update("a", func(e *Entry) error {
		e.Title = "should not persist"
		return errors.New("nope")
	})
	require.Error(t, err)
	got, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, model.RecordingPlaceholderTitle, got.Title)

	require.NoError(t, store.Delete("a"))
	assert.ErrorIs(t, store.Delete("a"), ErrNotFound)
	_, err = store.Update("a", func(e *Entry) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RejectsInvalidEntries(t *testing.T) {
	store, _ := newStore(t)

	bad := entry("a")
	bad.Status = "ready"

	assert.Error(t, store.Put(bad))
	assert.Error(t, store.Put(Entry{Status: model.RecordingStatusUploaded}))
}

func TestFileStore_CorruptFile(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := store.All()

	assert.ErrorContains(t, err, "decode")
}
