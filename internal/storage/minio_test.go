package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Request struct {
	method string
	path   string
	query  url.Values
}

// fakeS3 accepts every request and remembers what it saw
type fakeS3 struct {
	mu       sync.Mutex
	requests []s3Request
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, s3Request{method: r.Method, path: r.URL.Path, query: r.URL.Query()})
	f.mu.Unlock()

	w.Header().Set("ETag", `"0123456789abcdef0123456789abcdef"`)
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) seen() []s3Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]s3Request(nil), f.requests...)
}

func newTestMinio(t *testing.T, handler http.Handler) *MinioStorage {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	// Region set so the client never asks the fake for the bucket location
	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	return &MinioStorage{client: client, bucket: "recordings"}
}

func TestMinioStorage_SaveIssuesSinglePut(t *testing.T) {
	s3 := &fakeS3{}
	store := newTestMinio(t, s3)

	// given: an upload close to the 25 MiB cap
	content := bytes.NewReader(make([]byte, 10<<20))

	// when
	err := store.Save(context.Background(), "audio/u1/memo.m4a", content, "audio/mp4")

	// then: one plain PUT, no multipart session
	require.NoError(t, err)
	requests := s3.seen()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "/recordings/audio/u1/memo.m4a", requests[0].path)
	assert.False(t, requests[0].query.Has("uploads"))
	assert.False(t, requests[0].query.Has("uploadId"))
}

func TestObjectSize(t *testing.T) {
	t.Run("seekable reader keeps its position", func(t *testing.T) {
		content := bytes.NewReader([]byte("0123456789"))
		_, err := content.Seek(4, io.SeekStart)
		require.NoError(t, err)

		size, err := objectSize(content)

		require.NoError(t, err)
		assert.Equal(t, int64(6), size)
		rest, err := io.ReadAll(content)
		require.NoError(t, err)
		assert.Equal(t, "456789", string(rest))
	})

	t.Run("plain reader is unknown", func(t *testing.T) {
		size, err := objectSize(io.LimitReader(strings.NewReader("abc"), 3))

		require.NoError(t, err)
		assert.Equal(t, int64(-1), size)
	})
}
