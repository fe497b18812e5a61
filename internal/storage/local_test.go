package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	// given
	key := "audio/user-1/20261019T101500-abc.m4a"
	require.NoError(t, store.Save(ctx, key, strings.NewReader("audio-bytes"), "audio/mp4"))

	// when
	reader, err := store.Open(ctx, key)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())

	// then
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(content))

	signed, err := store.SignedURL(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "file://"))
	assert.True(t, strings.HasSuffix(signed, "abc.m4a"))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save(context.Background(), "../outside.m4a", strings.NewReader("x"), "audio/mp4")
	assert.Error(t, err)

	_, err = store.Open(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
