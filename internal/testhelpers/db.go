// Package testhelpers builds throwaway databases and fixtures for package tests.
package testhelpers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/db"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/repository"
)

// Container holds a migrated SQLite database and the repositories on top of it.
type Container struct {
	DB         *sqlx.DB
	Users      repository.UserRepository
	Recordings repository.RecordingRepository
}

// GetClean returns a container backed by a fresh database file that is removed after the test.
func GetClean(t *testing.T) *Container {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	return &Container{
		DB:         database,
		Users:      repository.NewUserRepository(database),
		Recordings: repository.NewRecordingRepository(database),
	}
}

// CreateUser inserts a user with a throwaway password hash.
func (c *Container) CreateUser(t *testing.T, email string) *model.User {
	t.Helper()

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, c.Users.Create(context.Background(), user))
	return user
}

// CreateRecording inserts a freshly uploaded recording for the user.
func (c *Container) CreateRecording(t *testing.T, userID string, createdAt time.Time) *model.Recording {
	t.Helper()

	recording := &model.Recording{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     model.RecordingPlaceholderTitle,
		AudioURL:  "audio/" + userID + "/" + uuid.New().String() + ".m4a",
		Duration:  42,
		Status:    model.RecordingStatusUploaded,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	require.NoError(t, c.Recordings.Create(context.Background(), recording))
	return recording
}
