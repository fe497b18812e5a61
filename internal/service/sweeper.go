package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicememo/server/internal/metrics"
	"github.com/voicememo/server/internal/repository"
)

// Sweeper fails recordings whose job was lost, e.g. to a restart while processing.
type Sweeper struct {
	recordings repository.RecordingRepository
	staleAfter time.Duration
}

func NewSweeper(recordings repository.RecordingRepository, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		recordings: recordings,
		staleAfter: staleAfter,
	}
}

// Sweep marks every uploaded or processing recording untouched for longer than staleAfter as failed.
// It returns how many recordings were changed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.recordings.Stale(ctx, time.Now().Add(-s.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list stale recordings: %w", ErrStorageUnavailable, err)
	}

	swept := 0
	for _, recording := range stale {
		err := s.recordings.MarkFailed(ctx, recording.ID)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidTransition) {
				// Finished between the list and the update
				continue
			}
			slog.Error("failed to sweep recording", "recording_id", recording.ID, "error", err)
			continue
		}

		swept++
		slog.Warn("stale recording marked failed",
			"recording_id", recording.ID,
			"status", recording.Status,
			"last_update", recording.UpdatedAt,
		)
	}

	metrics.SweptRecordings.Add(float64(swept))
	return swept, nil
}
