package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// Key namespaces for mirror records in the key-value store.
const (
	accessPrefix  = "token:"
	refreshPrefix = "refresh:"
	resetPrefix   = "reset:"
)

// MirrorRecord is the payload stored alongside each live token. Its
// presence is what makes a token usable; deleting it revokes the token
// ahead of its cryptographic expiry.
type MirrorRecord struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Type     string    `json:"type"`
}

// SessionStore tracks token liveness in the key-value store. Each issued
// token gets a mirror record keyed by the raw token string with a TTL equal
// to the token's remaining lifetime, so records expire in lockstep with
// their tokens.
type SessionStore struct {
	kv     store.KVStore
	logger *slog.Logger
}

// NewSessionStore creates a SessionStore over the given key-value store.
// If logger is nil, a default logger will be used.
func NewSessionStore(kv store.KVStore, logger *slog.Logger) *SessionStore {
	if kv == nil {
		panic("kv cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{
		kv:     kv,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// SaveAccess records a live access token mirror for the user.
func (s *SessionStore) SaveAccess(ctx context.Context, token string, user *domain.User, ttl time.Duration) error {
	return s.save(ctx, accessPrefix+token, user, TokenTypeAccess, ttl)
}

// SaveRefresh records a live refresh token mirror for the user.
func (s *SessionStore) SaveRefresh(ctx context.Context, token string, user *domain.User, ttl time.Duration) error {
	return s.save(ctx, refreshPrefix+token, user, TokenTypeRefresh, ttl)
}

func (s *SessionStore) save(ctx context.Context, key string, user *domain.User, tokenType string, ttl time.Duration) error {
	record := MirrorRecord{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Type:     tokenType,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.kv.SetWithTTL(ctx, key, payload, ttl)
}

// GetAccess returns the mirror record for a live access token, or nil when
// the token has been revoked or has expired.
func (s *SessionStore) GetAccess(ctx context.Context, token string) (*MirrorRecord, error) {
	return s.get(ctx, accessPrefix+token)
}

// GetRefresh returns the mirror record for a live refresh token, or nil
// when the token has been revoked or has expired.
func (s *SessionStore) GetRefresh(ctx context.Context, token string) (*MirrorRecord, error) {
	return s.get(ctx, refreshPrefix+token)
}

func (s *SessionStore) get(ctx context.Context, key string) (*MirrorRecord, error) {
	payload, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	var record MirrorRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		// A corrupt mirror is treated as revoked rather than surfaced; the
		// token holder can always re-authenticate.
		logger.FromContextOrDefault(ctx, s.logger).Warn("discarding corrupt mirror record",
			slog.String("error", redact.Error(err)))
		return nil, nil
	}

	return &record, nil
}

// RevokeToken deletes the mirror records for one specific raw token in both
// the access and refresh namespaces. Returns the number of records that
// existed.
func (s *SessionStore) RevokeToken(ctx context.Context, token string) (int, error) {
	return s.kv.Delete(ctx, accessPrefix+token, refreshPrefix+token)
}

// RevokeUserSessions deletes every access and refresh mirror belonging to
// the given user, enforcing the single-session policy. The scan is O(total
// live tokens); at larger scale this should be replaced by an index keyed
// on user ID, keeping the same contract: old sessions die on new login.
// Returns the number of records deleted.
func (s *SessionStore) RevokeUserSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var owned []string
	for _, prefix := range []string{accessPrefix, refreshPrefix} {
		keys, err := s.kv.ScanKeys(ctx, prefix)
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			record, err := s.get(ctx, key)
			if err != nil {
				return 0, err
			}
			// A record may expire between scan and read.
			if record != nil && record.UserID == userID {
				owned = append(owned, key)
			}
		}
	}

	if len(owned) == 0 {
		return 0, nil
	}

	deleted, err := s.kv.Delete(ctx, owned...)
	if err != nil {
		return 0, err
	}

	log.Debug("revoked user sessions",
		slog.String("user_id", userID.String()),
		slog.Int("deleted", deleted))
	return deleted, nil
}

// SaveReset records a live password-reset token for the user.
func (s *SessionStore) SaveReset(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.kv.SetWithTTL(ctx, resetPrefix+token, []byte(userID.String()), ttl)
}

// GetReset returns the user ID bound to a live reset token without
// consuming it. Returns (uuid.Nil, nil) when the token has no live mirror.
func (s *SessionStore) GetReset(ctx context.Context, token string) (uuid.UUID, error) {
	payload, err := s.kv.Get(ctx, resetPrefix+token)
	if err != nil {
		return uuid.Nil, err
	}
	if payload == nil {
		return uuid.Nil, nil
	}

	userID, err := uuid.Parse(string(payload))
	if err != nil {
		return uuid.Nil, nil
	}

	return userID, nil
}

// ConsumeReset atomically-enough claims a reset token: it reads the mirror
// and deletes it, so a second consumption of the same token finds nothing.
// Returns (uuid.Nil, nil) when the token has no live mirror.
func (s *SessionStore) ConsumeReset(ctx context.Context, token string) (uuid.UUID, error) {
	key := resetPrefix + token

	payload, err := s.kv.Get(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}
	if payload == nil {
		return uuid.Nil, nil
	}

	userID, err := uuid.Parse(string(payload))
	if err != nil {
		// Corrupt mirror; remove it and treat the token as dead.
		_, _ = s.kv.Delete(ctx, key)
		return uuid.Nil, nil
	}

	deleted, err := s.kv.Delete(ctx, key)
	if err != nil {
		return uuid.Nil, err
	}
	if deleted == 0 {
		// Lost the race with a concurrent consumption; single-use wins.
		return uuid.Nil, nil
	}

	return userID, nil
}
