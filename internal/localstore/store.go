// Package localstore keeps a device-local list of recordings that works without the backend.
package localstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
	"github.com/voicememo/server/internal/model"
)

var ErrNotFound = errors.New("local recording not found")

// Entry is one locally captured recording. Status follows the same rules as server recordings.
type Entry struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Summary       string                `json:"summary"`
	Transcription string                `json:"transcription"`
	AudioPath     string                `json:"audioPath"`
	Duration      int                   `json:"duration"`
	Status        model.RecordingStatus `json:"status"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// Store is an ordered list of entries, newest first.
type Store interface {
	All() ([]Entry, error)
	Get(id string) (Entry, error)
	// Put inserts a new entry at the front or replaces an existing one in place
	Put(entry Entry) error
	// Update applies fn to the stored entry and persists the result; fn errors abort the write
	Update(id string, fn func(*Entry) error) (Entry, error)
	Delete(id string) error
}

// FileStore persists the list as a JSON array in a single file.
// Writes replace the file atomically; a mutex serializes access within the process.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) All() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}

	i := indexOf(entries, id)
	if i < 0 {
		return Entry{}, ErrNotFound
	}
	return entries[i], nil
}

func (s *FileStore) Put(entry Entry) error {
	if entry.ID == "" {
		return errors.New("entry id is required")
	}
	if !entry.Status.Valid() {
		return fmt.Errorf("invalid status %q", entry.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	if i := indexOf(entries, entry.ID); i >= 0 {
		entries[i] = entry
	} else {
		entries = append([]Entry{entry}, entries...)
	}

	return s.save(entries)
}

func (s *FileStore) Update(id string, fn func(*Entry) error) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return Entry{}, err
	}

	i := indexOf(entries, id)
	if i < 0 {
		return Entry{}, ErrNotFound
	}

	updated := entries[i]
	if err := fn(&updated); err != nil {
		return Entry{}, err
	}
	updated.ID = id
	entries[i] = updated

	if err := s.save(entries); err != nil {
		return Entry{}, err
	}
	return updated, nil
}

func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	i := indexOf(entries, id)
	if i < 0 {
		return ErrNotFound
	}

	entries = append(entries[:i], entries[i+1:]...)
	return s.save(entries)
}

func (s *FileStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read library: %w", err)
	}

	entries := []Entry{}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode library: %w", err)
	}
	return entries, nil
}

func (s *FileStore) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write library: %w", err)
	}
	return nil
}

func indexOf(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
