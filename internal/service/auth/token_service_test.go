package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskforge/taskforge-api/internal/store"
)

// tokenServiceFixture wires a real JWT signer and session store over the
// in-memory key-value fake, with only the user store mocked.
type tokenServiceFixture struct {
	svc      TokenService
	kv       *memoryKV
	sessions *SessionStore
	users    *MockUserStore
}

func newTokenServiceFixture(t *testing.T) *tokenServiceFixture {
	t.Helper()

	jwtSvc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	kv := newMemoryKV()
	sessions := NewSessionStore(kv, nil)
	users := new(MockUserStore)

	svc, err := NewTokenService(jwtSvc, sessions, users, nil)
	require.NoError(t, err)

	return &tokenServiceFixture{svc: svc, kv: kv, sessions: sessions, users: users}
}

func TestIssueTokenPair(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTokenServiceFixture(t)
	user := testUser(t)

	pair, err := f.svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 30*60, pair.ExpiresIn)

	// Both mirrors are live.
	record, err := f.sessions.GetAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, user.ID, record.UserID)

	record, err = f.sessions.GetRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestIssueTokenPairSingleSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTokenServiceFixture(t)
	user := testUser(t)

	first, err := f.svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	second, err := f.svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	// The first session is fully revoked; only the second pair is live.
	record, err := f.sessions.GetAccess(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, record, "previous access mirror must be purged")

	record, err = f.sessions.GetRefresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, record, "previous refresh mirror must be purged")

	record, err = f.sessions.GetAccess(ctx, second.AccessToken)
	require.NoError(t, err)
	assert.NotNil(t, record)

	assert.Equal(t, 2, f.kv.len(), "exactly one live session pair expected")
}

func TestValidateAccessToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid token resolves to user", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		got, err := f.svc.ValidateAccessToken(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		f.users.AssertExpectations(t)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		got, err := f.svc.ValidateAccessToken(ctx, "")
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.Nil(t, got)
	})

	t.Run("revoked token fails despite valid signature", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		_, err = f.sessions.RevokeUserSessions(ctx, user.ID)
		require.NoError(t, err)

		got, err := f.svc.ValidateAccessToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Nil(t, got)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		// No access mirror exists under the refresh token's raw string.
		got, err := f.svc.ValidateAccessToken(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Nil(t, got)
	})

	t.Run("deleted user invalidates the token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)
		f.users.On("GetByID", ctx, user.ID).Return(nil, store.ErrUserNotFound)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		got, err := f.svc.ValidateAccessToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, got)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("exchanges a live refresh token for a new pair", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)

		old, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		fresh, err := f.svc.Refresh(ctx, old.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, old.AccessToken, fresh.AccessToken)
		assert.NotEqual(t, old.RefreshToken, fresh.RefreshToken)

		// The old refresh token cannot be replayed.
		replayed, err := f.svc.Refresh(ctx, old.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Nil(t, replayed)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		got, err := f.svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.Nil(t, got)
	})

	t.Run("access token cannot be used as refresh token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		got, err := f.svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Nil(t, got)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("purges the whole session", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		assert.True(t, f.svc.Logout(ctx, pair.AccessToken))

		// Both the access and refresh mirrors are gone.
		record, err := f.sessions.GetAccess(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Nil(t, record)
		record, err = f.sessions.GetRefresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.Nil(t, record)

		// A second logout has nothing left to revoke.
		assert.False(t, f.svc.Logout(ctx, pair.AccessToken))
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		assert.False(t, f.svc.Logout(ctx, ""))
	})

	t.Run("undecodable token falls back to literal keys", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		// A mirror exists under a raw string that is not a decodable JWT.
		require.NoError(t, f.sessions.SaveAccess(ctx, "opaque-token", user, time.Minute))

		assert.True(t, f.svc.Logout(ctx, "opaque-token"))
		assert.False(t, f.svc.Logout(ctx, "opaque-token"))
	})
}

func TestResetTokenLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("issue and consume once", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		token, err := f.svc.IssueResetToken(ctx, user)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		got, err := f.svc.ConsumeResetToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got)

		// Single use: the second consumption fails.
		got, err = f.svc.ConsumeResetToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("validate does not consume", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		token, err := f.svc.IssueResetToken(ctx, user)
		require.NoError(t, err)

		// Validation leaves the mirror live no matter how often it runs.
		for i := 0; i < 2; i++ {
			got, err := f.svc.ValidateResetToken(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, user.ID, got)
		}

		got, err := f.svc.ConsumeResetToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got)

		// Once consumed, validation fails like consumption does.
		got, err = f.svc.ValidateResetToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("validate rejects non-reset tokens", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		got, err := f.svc.ValidateResetToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrWrongTokenType)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		got, err := f.svc.ConsumeResetToken(ctx, "")
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("access token is not a reset token", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		pair, err := f.svc.IssueTokenPair(ctx, user)
		require.NoError(t, err)

		got, err := f.svc.ConsumeResetToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrWrongTokenType)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("mirror and claims subject must agree", func(t *testing.T) {
		t.Parallel()
		f := newTokenServiceFixture(t)
		user := testUser(t)

		token, err := f.svc.IssueResetToken(ctx, user)
		require.NoError(t, err)

		// Overwrite the mirror to point at a different user.
		require.NoError(t, f.sessions.SaveReset(ctx, token, uuid.New(), time.Minute))

		got, err := f.svc.ConsumeResetToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Equal(t, uuid.Nil, got)
	})
}
