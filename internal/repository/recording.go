package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/voicememo/server/internal/model"
)

var (
	ErrRecordingNotFound = errors.New("recording not found")
	// ErrInvalidTransition means the row was not in a status that allows the requested move.
	ErrInvalidTransition = errors.New("invalid recording status transition")
)

type RecordingRepository interface {
	Create(ctx context.Context, recording *model.Recording) error
	ByID(ctx context.Context, userID, recordingID string) (*model.Recording, error)
	ByUser(ctx context.Context, userID string) ([]*model.Recording, error)
	Delete(ctx context.Context, userID, recordingID string) error

	Transition(ctx context.Context, recordingID string, from, to model.RecordingStatus) error
	Complete(ctx context.Context, recordingID, title, summary, transcription string) error
	MarkFailed(ctx context.Context, recordingID string) error
	Stale(ctx context.Context, before time.Time) ([]*model.Recording, error)
}

type recordingRepository struct {
	db *sqlx.DB
}

func NewRecordingRepository(db *sqlx.DB) RecordingRepository {
	return &recordingRepository{db: db}
}

func (r *recordingRepository) Create(ctx context.Context, recording *model.Recording) error {
	if recording.Status != model.RecordingStatusUploaded {
		return fmt.Errorf("%w: new recordings start as %s, got %s", ErrInvalidTransition, model.RecordingStatusUploaded, recording.Status)
	}

	query := `INSERT INTO recordings (id, user_id, title, summary, transcription, audio_url, content_type, duration, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		recording.ID,
		recording.UserID,
		recording.Title,
		recording.Summary,
		recording.Transcription,
		recording.AudioURL,
		recording.ContentType,
		recording.Duration,
		recording.Status.String(),
		recording.CreatedAt,
		recording.UpdatedAt,
	)

	return err
}

func (r *recordingRepository) ByID(ctx context.Context, userID, recordingID string) (*model.Recording, error) {
	recording := &model.Recording{}
	query := `SELECT * FROM recordings WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, recording, query, recordingID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, err
	}

	return recording, nil
}

// ByUser returns the user's recordings, newest first.
func (r *recordingRepository) ByUser(ctx context.Context, userID string) ([]*model.Recording, error) {
	recordings := []*model.Recording{}
	query := `SELECT * FROM recordings WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &recordings, query, userID)
	if err != nil {
		return nil, err
	}

	return recordings, nil
}

func (r *recordingRepository) Delete(ctx context.Context, userID, recordingID string) error {
	query := `DELETE FROM recordings WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, recordingID, userID)
	if err != nil {
		return err
	}

	return expectRows(result, ErrRecordingNotFound)
}

// Transition moves a recording from one status to another.
// The UPDATE only matches while the row is still in from, so a concurrent or repeated move fails instead of regressing.
func (r *recordingRepository) Transition(ctx context.Context, recordingID string, from, to model.RecordingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	query := `UPDATE recordings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, to.String(), time.Now().UTC(), recordingID, from.String())
	if err != nil {
		return err
	}

	err = expectRows(result, ErrInvalidTransition)
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, from, to)
	}
	return nil
}

// Complete stores the generated text and marks the recording processed in one statement.
func (r *recordingRepository) Complete(ctx context.Context, recordingID, title, summary, transcription string) error {
	query := `UPDATE recordings
	          SET title = $1, summary = $2, transcription = $3, status = $4, updated_at = $5
	          WHERE id = $6 AND status = $7`

	result, err := r.db.ExecContext(ctx, query,
		title,
		summary,
		transcription,
		model.RecordingStatusProcessed.String(),
		time.Now().UTC(),
		recordingID,
		model.RecordingStatusProcessing.String(),
	)
	if err != nil {
		return err
	}

	err = expectRows(result, ErrInvalidTransition)
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, model.RecordingStatusProcessing, model.RecordingStatusProcessed)
	}
	return nil
}

// MarkFailed moves a non-terminal recording to failed. Text fields are left untouched.
func (r *recordingRepository) MarkFailed(ctx context.Context, recordingID string) error {
	query := `UPDATE recordings SET status = $1, updated_at = $2 WHERE id = $3 AND status IN ($4, $5)`

	result, err := r.db.ExecContext(ctx, query,
		model.RecordingStatusFailed.String(),
		time.Now().UTC(),
		recordingID,
		model.RecordingStatusUploaded.String(),
		model.RecordingStatusProcessing.String(),
	)
	if err != nil {
		return err
	}

	err = expectRows(result, ErrInvalidTransition)
	if err != nil {
		return fmt.Errorf("%w: -> %s", err, model.RecordingStatusFailed)
	}
	return nil
}

// Stale lists unfinished recordings (uploaded or processing) that have not changed since before.
func (r *recordingRepository) Stale(ctx context.Context, before time.Time) ([]*model.Recording, error) {
	recordings := []*model.Recording{}
	query := `SELECT * FROM recordings WHERE status IN ($1, $2) AND updated_at < $3 ORDER BY updated_at ASC`

	err := r.db.SelectContext(ctx, &recordings, query,
		model.RecordingStatusUploaded.String(),
		model.RecordingStatusProcessing.String(),
		before.UTC(),
	)
	if err != nil {
		return nil, err
	}

	return recordings, nil
}
