package model

import (
	"time"
)

// RecordingStatus is the processing state of a recording.
// Allowed moves: uploaded -> processing -> processed | failed.
type RecordingStatus string

const (
	RecordingStatusUploaded   RecordingStatus = "uploaded"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusProcessed  RecordingStatus = "processed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

const (
	RecordingPlaceholderTitle = "New recording"
	RecordingFallbackTitle    = "Untitled recording"
)

func (s RecordingStatus) String() string {
	return string(s)
}

func (s RecordingStatus) Valid() bool {
	switch s {
	case RecordingStatusUploaded, RecordingStatusProcessing, RecordingStatusProcessed, RecordingStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s RecordingStatus) Terminal() bool {
	switch s {
	case RecordingStatusProcessed, RecordingStatusFailed:
		return true
	case RecordingStatusUploaded, RecordingStatusProcessing:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next keeps the status moving forward.
func (s RecordingStatus) CanTransitionTo(next RecordingStatus) bool {
	switch s {
	case RecordingStatusUploaded:
		return next == RecordingStatusProcessing || next == RecordingStatusFailed
	case RecordingStatusProcessing:
		return next == RecordingStatusProcessed || next == RecordingStatusFailed
	case RecordingStatusProcessed, RecordingStatusFailed:
		return false
	default:
		return false
	}
}

type Recording struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Title         string          `db:"title"`
	Summary       string          `db:"summary"`
	Transcription string          `db:"transcription"`
	AudioURL      string          `db:"audio_url"` // Blob store key, not a public URL
	ContentType   string          `db:"content_type"`
	Duration      int             `db:"duration"` // Seconds, as reported by the client
	Status        RecordingStatus `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`

	// Computed fields (not in database)
	PlaybackURL string `db:"-"`
}
