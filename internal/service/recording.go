package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voicememo/server/internal/metrics"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/storage"
	"github.com/voicememo/server/internal/validation"
)

// UploadInput is one audio upload as received from the client.
type UploadInput struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker // nil when the request had no audio part
	Duration int           // Client-reported seconds; not verified against the audio
}

type RecordingService struct {
	recordings    repository.RecordingRepository
	storage       storage.Storage
	processor     *Processor
	constraints   validation.AudioConstraints
	presignExpiry time.Duration
}

func NewRecordingService(
	recordings repository.RecordingRepository,
	storage storage.Storage,
	processor *Processor,
	maxUploadBytes int64,
	presignExpiry time.Duration,
) *RecordingService {
	constraints := validation.RecordingConstraints
	if maxUploadBytes > 0 {
		constraints.MaxSize = maxUploadBytes
	}

	return &RecordingService{
		recordings:    recordings,
		storage:       storage,
		processor:     processor,
		constraints:   constraints,
		presignExpiry: presignExpiry,
	}
}

// Upload stores the audio and then creates the recording row in status uploaded.
// The blob is written first; if that fails no row is created.
func (s *RecordingService) Upload(ctx context.Context, userID string, in UploadInput) (*model.Recording, error) {
	if in.Content == nil {
		return nil, fmt.Errorf("%w: audio file is required", ErrInvalidInput)
	}

	info, err := validation.DetectAudio(in.Content, in.Filename, in.Size, s.constraints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	key := BlobKey(userID, now, info.Extension)

	err = s.storage.Save(ctx, key, in.Content, info.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	recording := &model.Recording{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       model.RecordingPlaceholderTitle,
		AudioURL:    key,
		ContentType: info.ContentType,
		Duration:    in.Duration,
		Status:      model.RecordingStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.recordings.Create(ctx, recording)
	if err != nil {
		// The blob stays behind as an orphan if this cleanup fails too
		delErr := s.storage.Delete(context.WithoutCancel(ctx), key)
		if delErr != nil {
			slog.Error("failed to delete blob during cleanup", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("%w: failed to create recording: %w", ErrStorageUnavailable, err)
	}

	metrics.Uploads.Inc()
	slog.Info("recording uploaded", "recording_id", recording.ID, "user_id", userID, "key", key, "content_type", info.ContentType)
	return recording, nil
}

// Dispatch hands the recording to the background processor.
func (s *RecordingService) Dispatch(recording *model.Recording) {
	s.processor.Dispatch(recording.ID, recording.AudioURL)
}

// UploadAndProcess is the synchronous variant: it returns once processing has finished.
// Processing is detached from ctx so a disconnecting client cannot leave the row in processing.
func (s *RecordingService) UploadAndProcess(ctx context.Context, userID string, in UploadInput) (*model.Recording, error) {
	recording, err := s.Upload(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	runErr := s.processor.Run(context.WithoutCancel(ctx), recording.ID, recording.AudioURL)
	if runErr != nil {
		slog.Warn("synchronous processing failed", "recording_id", recording.ID, "error", runErr)
	}

	return s.Recording(context.WithoutCancel(ctx), userID, recording.ID)
}

// Retry creates a new recording for the audio of a failed one and returns it in status uploaded.
// The failed recording keeps its terminal status.
func (s *RecordingService) Retry(ctx context.Context, userID, recordingID string) (*model.Recording, error) {
	failed, err := s.recordings.ByID(ctx, userID, recordingID)
	if err != nil {
		return nil, s.lookupError(err)
	}

	if failed.Status != model.RecordingStatusFailed {
		return nil, fmt.Errorf("%w: recording is %s", ErrNotRetryable, failed.Status)
	}

	now := time.Now().UTC()
	recording := &model.Recording{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       model.RecordingPlaceholderTitle,
		AudioURL:    failed.AudioURL,
		ContentType: failed.ContentType,
		Duration:    failed.Duration,
		Status:      model.RecordingStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.recordings.Create(ctx, recording)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create recording: %w", ErrStorageUnavailable, err)
	}

	slog.Info("recording retry created", "recording_id", recording.ID, "retry_of", failed.ID)
	return recording, nil
}

// Recordings lists the user's recordings, newest first.
func (s *RecordingService) Recordings(ctx context.Context, userID string, includeTranscription bool) ([]*model.Recording, error) {
	recordings, err := s.recordings.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if !includeTranscription {
		for _, r := range recordings {
			r.Transcription = ""
		}
	}

	return recordings, nil
}

// Recording returns one of the user's recordings with a signed playback URL when available.
func (s *RecordingService) Recording(ctx context.Context, userID, recordingID string) (*model.Recording, error) {
	recording, err := s.recordings.ByID(ctx, userID, recordingID)
	if err != nil {
		return nil, s.lookupError(err)
	}

	url, err := s.storage.SignedURL(ctx, recording.AudioURL, s.presignExpiry)
	if err != nil {
		slog.Warn("failed to sign playback url", "recording_id", recording.ID, "error", err)
	} else {
		recording.PlaybackURL = url
	}

	return recording, nil
}

// Delete removes the recording row. The audio blob is kept.
func (s *RecordingService) Delete(ctx context.Context, userID, recordingID string) error {
	err := s.recordings.Delete(ctx, userID, recordingID)
	if err != nil {
		return s.lookupError(err)
	}

	slog.Info("recording deleted", "recording_id", recordingID, "user_id", userID)
	return nil
}

// MarkFailed is the best-effort compensation for failures after the row was created
// but before the client got its response.
func (s *RecordingService) MarkFailed(ctx context.Context, recordingID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	err := s.recordings.MarkFailed(ctx, recordingID)
	if err != nil {
		slog.Error("failed to mark recording failed", "recording_id", recordingID, "error", err)
	}
}

func (s *RecordingService) lookupError(err error) error {
	if errors.Is(err, repository.ErrRecordingNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// BlobKey builds the storage key for a new upload: audio/{user}/{timestamp}-{random}{ext}.
func BlobKey(userID string, at time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return path.Join("audio", userID, fmt.Sprintf("%s-%s%s", at.UTC().Format("20060102T150405.000Z"), suffix, ext))
}
