package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/voicememo/server/internal/ai"
	"github.com/voicememo/server/internal/localstore"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/validation"
)

// LocalLibrary captures recordings on the device without the backend and processes them later.
// Entries move through the same statuses as server recordings.
type LocalLibrary struct {
	store       localstore.Store
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	callTimeout time.Duration
}

func NewLocalLibrary(store localstore.Store, transcriber ai.Transcriber, summarizer ai.Summarizer, callTimeout time.Duration) *LocalLibrary {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Minute
	}
	return &LocalLibrary{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		callTimeout: callTimeout,
	}
}

// Capture adds an audio file to the library with placeholder text and status uploaded.
func (l *LocalLibrary) Capture(audioPath string, duration int) (localstore.Entry, error) {
	abs, err := filepath.Abs(audioPath)
	if err != nil {
		return localstore.Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return localstore.Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return localstore.Entry{}, fmt.Errorf("%w: %s is not an audio file", ErrInvalidInput, audioPath)
	}

	now := time.Now().UTC()
	entry := localstore.Entry{
		ID:        uuid.New().String(),
		Title:     model.RecordingPlaceholderTitle,
		AudioPath: abs,
		Duration:  duration,
		Status:    model.RecordingStatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.store.Put(entry); err != nil {
		return localstore.Entry{}, err
	}
	return entry, nil
}

func (l *LocalLibrary) Entries() ([]localstore.Entry, error) {
	return l.store.All()
}

func (l *LocalLibrary) Delete(id string) error {
	return l.store.Delete(id)
}

// Process transcribes and summarizes an uploaded entry. On failure the entry ends in failed
// with its placeholder text, and the error wraps ErrProcessingFailed.
func (l *LocalLibrary) Process(ctx context.Context, id string) (localstore.Entry, error) {
	entry, err := l.transition(id, model.RecordingStatusProcessing, nil)
	if err != nil {
		return localstore.Entry{}, err
	}

	transcription, summary, err := l.run(ctx, entry)
	if err != nil {
		failed, failErr := l.transition(id, model.RecordingStatusFailed, nil)
		if failErr != nil {
			slog.Error("failed to mark local recording failed", "id", id, "error", failErr)
			return entry, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
		}
		return failed, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	return l.transition(id, model.RecordingStatusProcessed, func(e *localstore.Entry) {
		e.Title = DeriveTitle(transcription)
		e.Summary = summary
		e.Transcription = transcription
	})
}

func (l *LocalLibrary) run(ctx context.Context, entry localstore.Entry) (string, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.callTimeout)
	defer cancel()

	file, err := os.Open(entry.AudioPath)
	if err != nil {
		return "", "", fmt.Errorf("open audio: %w", err)
	}
	defer func() { _ = file.Close() }()

	transcription, err := l.transcriber.Transcribe(callCtx, ai.Audio{
		Name:        filepath.Base(entry.AudioPath),
		ContentType: validation.ContentTypeForPath(entry.AudioPath),
		Body:        file,
	})
	if err != nil {
		return "", "", err
	}

	if transcription == "" {
		return "", emptyTranscriptionSummary, nil
	}

	summaryCtx, cancelSummary := context.WithTimeout(ctx, l.callTimeout)
	defer cancelSummary()

	summary, err := l.summarizer.Summarize(summaryCtx, ai.SummaryInstruction, transcription)
	if err != nil {
		return "", "", err
	}
	return transcription, summary, nil
}

var errLocalTransition = errors.New("invalid local recording status transition")

// transition moves the entry to next if the status rules allow it and applies apply in the same write
func (l *LocalLibrary) transition(id string, next model.RecordingStatus, apply func(*localstore.Entry)) (localstore.Entry, error) {
	return l.store.Update(id, func(e *localstore.Entry) error {
		if !e.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", errLocalTransition, e.Status, next)
		}
		if apply != nil {
			apply(e)
		}
		e.Status = next
		e.UpdatedAt = time.Now().UTC()
		return nil
	})
}
