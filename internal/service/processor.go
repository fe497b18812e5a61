package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/voicememo/server/internal/ai"
	"github.com/voicememo/server/internal/metrics"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/storage"
	"github.com/voicememo/server/internal/validation"
	"github.com/voicememo/server/internal/worker"
)

// emptyTranscriptionSummary is stored when the audio contained no recognizable speech.
const emptyTranscriptionSummary = "No speech was detected in this recording."

// failureWriteTimeout bounds the compensating write that marks a recording failed.
const failureWriteTimeout = 10 * time.Second

// Processor turns an uploaded recording into a processed one: transcription, summary and title.
type Processor struct {
	recordings  repository.RecordingRepository
	storage     storage.Storage
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	pool        *worker.Pool
	callTimeout time.Duration
}

func NewProcessor(
	recordings repository.RecordingRepository,
	storage storage.Storage,
	transcriber ai.Transcriber,
	summarizer ai.Summarizer,
	pool *worker.Pool,
	callTimeout time.Duration,
) *Processor {
	return &Processor{
		recordings:  recordings,
		storage:     storage,
		transcriber: transcriber,
		summarizer:  summarizer,
		pool:        pool,
		callTimeout: callTimeout,
	}
}

// Dispatch schedules Run on the background pool and returns immediately.
// The job does not inherit any request context.
func (p *Processor) Dispatch(recordingID, blobKey string) {
	err := p.pool.Go("process recording "+recordingID, func(ctx context.Context) error {
		return p.Run(ctx, recordingID, blobKey)
	})
	if err != nil {
		// Pool is shutting down; the sweeper fails the row once it goes stale
		slog.Warn("recording not dispatched", "recording_id", recordingID, "error", err)
	}
}

// Run processes one recording. Any failure after the processing transition leaves the row failed
// with its text fields untouched; the returned error wraps ErrProcessingFailed.
func (p *Processor) Run(ctx context.Context, recordingID, blobKey string) (err error) {
	log := slog.With("recording_id", recordingID)
	start := time.Now()

	err = p.recordings.Transition(ctx, recordingID, model.RecordingStatusUploaded, model.RecordingStatusProcessing)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			// Already picked up, finished or deleted; nothing of ours to fail
			log.Warn("recording not in uploaded state, skipping", "error", err)
			return fmt.Errorf("%w: %w", ErrProcessingFailed, err)
		}
		p.markFailed(ctx, recordingID, "start", err)
		return fmt.Errorf("%w: start: %w", ErrProcessingFailed, err)
	}
	log.Info("recording processing started")

	step := "read"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			p.markFailed(ctx, recordingID, step, err)
			metrics.ProcessingOutcomes.WithLabelValues(model.RecordingStatusFailed.String()).Inc()
			err = fmt.Errorf("%w: %s: %w", ErrProcessingFailed, step, err)
		} else {
			metrics.ProcessingOutcomes.WithLabelValues(model.RecordingStatusProcessed.String()).Inc()
			log.Info("recording processed", "duration_ms", time.Since(start).Milliseconds())
		}
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	// The blob streams into the transcriber, so reading and transcribing share one call timeout
	callCtx, cancel := p.withCallTimeout(ctx)
	body, err := p.storage.Open(callCtx, blobKey)
	if err != nil {
		cancel()
		return err
	}

	step = "transcribe"
	transcription, err := p.transcriber.Transcribe(callCtx, ai.Audio{
		Name:        path.Base(blobKey),
		ContentType: validation.ContentTypeForPath(blobKey),
		Body:        body,
	})
	_ = body.Close()
	cancel()
	if err != nil {
		return err
	}

	step = "summarize"
	summary := emptyTranscriptionSummary
	if transcription != "" {
		summary, err = p.summarize(ctx, transcription)
		if err != nil {
			return err
		}
	}

	step = "complete"
	title := DeriveTitle(transcription)
	return p.recordings.Complete(ctx, recordingID, title, summary, transcription)
}

func (p *Processor) summarize(ctx context.Context, transcription string) (string, error) {
	ctx, cancel := p.withCallTimeout(ctx)
	defer cancel()

	return p.summarizer.Summarize(ctx, ai.SummaryInstruction, transcription)
}

func (p *Processor) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

// markFailed is the compensating write. Errors are logged only: nobody awaits this job.
func (p *Processor) markFailed(ctx context.Context, recordingID, step string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	slog.Error("recording processing failed", "recording_id", recordingID, "step", step, "error", cause)

	err := p.recordings.MarkFailed(ctx, recordingID)
	if err != nil {
		slog.Error("failed to mark recording failed", "recording_id", recordingID, "step", step, "error", err)
	}
}
