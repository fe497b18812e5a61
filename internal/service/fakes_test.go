package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/ai"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/storage"
	"github.com/voicememo/server/internal/testhelpers"
	"github.com/voicememo/server/internal/worker"
)

// wavBytes is a minimal RIFF/WAVE payload that passes audio detection
func wavBytes() []byte {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x40\x1f\x00\x00\x80\x3e\x00\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return append(header, make([]byte, 64)...)
}

func wavUpload(filename string) UploadInput {
	content := wavBytes()
	return UploadInput{
		Filename: filename,
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
		Duration: 12,
	}
}

// memStorage is an in-memory blob store
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Save(ctx context.Context, key string, content io.Reader, contentType string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://blobs.example/" + key + "?expires=" + expiry.String(), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeTranscriber struct {
	text  string
	err   error
	block chan struct{} // when set, Transcribe waits for close or ctx
	calls int
	mu    sync.Mutex
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio ai.Audio) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if _, err := io.ReadAll(audio.Body); err != nil {
		return "", err
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

type fakeSummarizer struct {
	summary     string
	err         error
	instruction string
	text        string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, instruction, text string) (string, error) {
	f.instruction = instruction
	f.text = text
	return f.summary, f.err
}

// statusSpy records every status the repository accepts for a recording
type statusSpy struct {
	repository.RecordingRepository
	mu      sync.Mutex
	history map[string][]model.RecordingStatus
}

func newStatusSpy(inner repository.RecordingRepository) *statusSpy {
	return &statusSpy{RecordingRepository: inner, history: map[string][]model.RecordingStatus{}}
}

func (s *statusSpy) record(id string, status model.RecordingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = append(s.history[id], status)
}

func (s *statusSpy) Create(ctx context.Context, r *model.Recording) error {
	err := s.RecordingRepository.Create(ctx, r)
	if err == nil {
		s.record(r.ID, r.Status)
	}
	return err
}

func (s *statusSpy) Transition(ctx context.Context, id string, from, to model.RecordingStatus) error {
	err := s.RecordingRepository.Transition(ctx, id, from, to)
	if err == nil {
		s.record(id, to)
	}
	return err
}

func (s *statusSpy) Complete(ctx context.Context, id, title, summary, transcription string) error {
	err := s.RecordingRepository.Complete(ctx, id, title, summary, transcription)
	if err == nil {
		s.record(id, model.RecordingStatusProcessed)
	}
	return err
}

func (s *statusSpy) MarkFailed(ctx context.Context, id string) error {
	err := s.RecordingRepository.MarkFailed(ctx, id)
	if err == nil {
		s.record(id, model.RecordingStatusFailed)
	}
	return err
}

func (s *statusSpy) statuses(id string) []model.RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RecordingStatus(nil), s.history[id]...)
}

type fixture struct {
	container   *testhelpers.Container
	recordings  *statusSpy
	storage     *memStorage
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	pool        *worker.Pool
	processor   *Processor
	service     *RecordingService
	user        *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	container := testhelpers.GetClean(t)
	f := &fixture{
		container:   container,
		recordings:  newStatusSpy(container.Recordings),
		storage:     newMemStorage(),
		transcriber: &fakeTranscriber{text: "Hello there. This is a test."},
		summarizer:  &fakeSummarizer{summary: "A short greeting and a test."},
		pool:        worker.NewPool(2),
	}
	t.Cleanup(func() {
		require.NoError(t, f.pool.Shutdown(context.Background()))
	})

	f.processor = NewProcessor(f.recordings, f.storage, f.transcriber, f.summarizer, f.pool, time.Second)
	f.service = NewRecordingService(f.recordings, f.storage, f.processor, 25<<20, time.Hour)
	f.user = container.CreateUser(t, "owner@example.com")
	return f
}

var errProvider = errors.New("provider unavailable")
