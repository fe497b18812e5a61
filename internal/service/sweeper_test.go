package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/model"
)

func TestSweeper_FailsStaleRecordings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// given: one stuck in processing, one already processed
	stuck, err := f.service.Upload(ctx, f.user.ID, wavUpload("stuck.wav"))
	require.NoError(t, err)
	require.NoError(t, f.container.Recordings.Transition(ctx, stuck.ID, model.RecordingStatusUploaded, model.RecordingStatusProcessing))

	done, err := f.service.Upload(ctx, f.user.ID, wavUpload("done.wav"))
	require.NoError(t, err)
	require.NoError(t, f.processor.Run(ctx, done.ID, done.AudioURL))

	// when: everything older than "now + 1 minute" counts as stale
	swept, err := NewSweeper(f.container.Recordings, -time.Minute).Sweep(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := f.container.Recordings.ByID(ctx, f.user.ID, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingStatusFailed, got.Status)

	finished, err := f.container.Recordings.ByID(ctx, f.user.ID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingStatusProcessed, finished.Status)
}

func TestSweeper_LeavesFreshRecordings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recording, err := f.service.Upload(ctx, f.user.ID, wavUpload("fresh.wav"))
	require.NoError(t, err)

	swept, err := NewSweeper(f.container.Recordings, time.Hour).Sweep(ctx)

	require.NoError(t, err)
	assert.Zero(t, swept)
	got, err := f.container.Recordings.ByID(ctx, f.user.ID, recording.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecordingStatusUploaded, got.Status)
}
