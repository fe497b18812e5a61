package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/testhelpers"
)

const testPassword = "correct horse battery"

func newAuthService(t *testing.T) (*AuthService, *testhelpers.Container) {
	t.Helper()
	container := testhelpers.GetClean(t)
	return NewAuthService(container.Users, "test-secret", time.Hour), container
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	user, err := auth.Signup(ctx, "  Alice@Example.com ", testPassword, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, testPassword, user.PasswordHash)

	loggedIn, err := auth.Login(ctx, "alice@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestAuthService_SignupRejections(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "bad email", email: "not-an-email", password: testPassword},
		{name: "short password", email: "bob@example.com", password: "short"},
		{name: "common password", email: "bob@example.com", password: "mypassword123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Signup(ctx, tt.email, tt.password, "")
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := auth.Signup(ctx, "carol@example.com", testPassword, "")
		require.NoError(t, err)

		_, err = auth.Signup(ctx, "CAROL@example.com", testPassword, "")
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "dave@example.com", testPassword, "")
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, "dave@example.com", "wrong horse battery")
	_, unknownEmail := auth.Login(ctx, "nobody@example.com", testPassword)

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_JWT(t *testing.T) {
	auth, _ := newAuthService(t)
	user := &model.User{ID: "user-1", Email: "erin@example.com"}

	t.Run("round trip", func(t *testing.T) {
		token, expiresAt, err := auth.GenerateJWT(user)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

		userID, err := auth.VerifyJWT(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(nil, "other-secret", time.Hour)
		token, _, err := other.GenerateJWT(user)
		require.NoError(t, err)

		_, err = auth.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewAuthService(nil, "test-secret", -time.Minute)
		token, _, err := expired.GenerateJWT(user)
		require.NoError(t, err)

		_, err = auth.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1"}).
			SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = auth.VerifyJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.VerifyJWT("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserService_CacheDropsPasswordHash(t *testing.T) {
	container := testhelpers.GetClean(t)
	users := NewUserService(container.Users, time.Minute)
	ctx := context.Background()
	created := container.CreateUser(t, "frank@example.com")

	first, err := users.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, first.PasswordHash)

	// a mutation of the returned copy must not leak into the cache
	first.Name = "changed"
	second, err := users.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", second.Name)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.ByID(ctx, created.ID)
	assert.Error(t, err)
}
