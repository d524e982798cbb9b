package authkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	sessions  map[uuid.UUID]*Session
	revoked   map[uuid.UUID]bool
	createErr error
	liveErr   error
}

func newStubStore() *stubStore {
	return &stubStore{
		sessions: map[uuid.UUID]*Session{},
		revoked:  map[uuid.UUID]bool{},
	}
}

func (s *stubStore) CreateSession(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (*Session, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	record := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		DeviceInfo:   meta.DeviceInfo,
		IPAddress:    meta.IPAddress,
		LastActivity: time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	s.sessions[record.ID] = record
	return record, nil
}

func (s *stubStore) TouchActivity(ctx context.Context, sessionID uuid.UUID) error {
	if record, ok := s.sessions[sessionID]; ok && !s.revoked[sessionID] {
		record.LastActivity = time.Now()
	}
	return nil
}

func (s *stubStore) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	s.revoked[sessionID] = true
	return nil
}

func (s *stubStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, except ...uuid.UUID) (int64, error) {
	var count int64
	for id, record := range s.sessions {
		if record.UserID != userID || s.revoked[id] {
			continue
		}
		spared := false
		for _, keep := range except {
			if keep == id {
				spared = true
			}
		}
		if !spared {
			s.revoked[id] = true
			count++
		}
	}
	return count, nil
}

func (s *stubStore) IsLive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	if s.liveErr != nil {
		return false, s.liveErr
	}
	record, ok := s.sessions[sessionID]
	return ok && !s.revoked[sessionID] && record.ExpiresAt.After(time.Now()), nil
}

func (s *stubStore) ListLive(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	var records []*Session
	for id, record := range s.sessions {
		if record.UserID == userID && !s.revoked[id] {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *stubStore) PurgeExpiredOrRevoked(ctx context.Context) (int64, error) {
	var count int64
	for id := range s.revoked {
		if s.revoked[id] {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

type stubSigner struct {
	signErr error
	signed  []*TokenClaims
}

func (s *stubSigner) SignClaims(claims *TokenClaims) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signed = append(s.signed, claims)
	return "signed-" + claims.TokenKind, nil
}

type stubValidator struct {
	claims *TokenClaims
	err    error
}

func (s *stubValidator) Validate(tokenString string) (*TokenClaims, error) {
	return s.claims, s.err
}

func TestTokenService_IssuePair(t *testing.T) {
	ctx := context.Background()
	identity := IdentityClaims{Subject: uuid.NewString(), Email: "person@example.com"}

	t.Run("issues a pair bound to one session", func(t *testing.T) {
		store := newStubStore()
		signer := &stubSigner{}
		service := newTokenServiceWith(signer, &stubValidator{}, store)

		pair, err := service.IssuePair(ctx, identity, &SessionMetadata{DeviceInfo: "cli"})
		require.NoError(t, err)

		assert.Equal(t, "signed-access", pair.AccessToken)
		assert.Equal(t, "signed-refresh", pair.RefreshToken)
		require.NotEmpty(t, pair.SessionID)
		assert.Len(t, store.sessions, 1)

		require.Len(t, signer.signed, 2)
		for _, claims := range signer.signed {
			assert.Equal(t, pair.SessionID, claims.SessionID(), "both tokens carry the session id")
			assert.Equal(t, identity.Subject, claims.UserID())
			assert.Equal(t, "person@example.com", claims.Email())
		}
	})

	t.Run("rejects non uuid subjects", func(t *testing.T) {
		service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, newStubStore())

		_, err := service.IssuePair(ctx, IdentityClaims{Subject: "not-a-uuid"}, nil)
		require.Error(t, err)
	})

	t.Run("store failure surfaces before signing", func(t *testing.T) {
		store := newStubStore()
		store.createErr = assert.AnError
		signer := &stubSigner{}
		service := newTokenServiceWith(signer, &stubValidator{}, store)

		_, err := service.IssuePair(ctx, identity, nil)
		require.Error(t, err)
		assert.Empty(t, signer.signed)
	})

	t.Run("signing failure revokes the created session", func(t *testing.T) {
		store := newStubStore()
		signer := &stubSigner{signErr: assert.AnError}
		service := newTokenServiceWith(signer, &stubValidator{}, store)

		_, err := service.IssuePair(ctx, identity, nil)
		require.Error(t, err)

		require.Len(t, store.sessions, 1)
		for id := range store.sessions {
			assert.True(t, store.revoked[id], "orphaned session must be revoked")
		}
	})
}

func TestTokenService_IsSessionValid(t *testing.T) {
	ctx := context.Background()

	t.Run("unparseable ids are invalid, not errors", func(t *testing.T) {
		service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, newStubStore())

		live, err := service.IsSessionValid(ctx, "garbage")
		require.NoError(t, err)
		assert.False(t, live)
	})

	t.Run("store outage is an error, not a rejection", func(t *testing.T) {
		store := newStubStore()
		store.liveErr = assert.AnError
		service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, store)

		_, err := service.IsSessionValid(ctx, uuid.NewString())
		require.Error(t, err)
		assert.False(t, IsAuthRejection(err), "store failures must not look like auth failures")
	})

	t.Run("revoked session is invalid", func(t *testing.T) {
		store := newStubStore()
		service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, store)

		session, err := store.CreateSession(ctx, uuid.New(), SessionMetadata{})
		require.NoError(t, err)
		require.NoError(t, store.Revoke(ctx, session.ID))

		live, err := service.IsSessionValid(ctx, session.ID.String())
		require.NoError(t, err)
		assert.False(t, live)
	})
}

func TestTokenService_ListSessions(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, store)

	userID := uuid.New()
	first, err := store.CreateSession(ctx, userID, SessionMetadata{})
	require.NoError(t, err)
	second, err := store.CreateSession(ctx, userID, SessionMetadata{})
	require.NoError(t, err)

	infos, err := service.ListSessions(ctx, userID.String(), second.ID.String())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	for _, info := range infos {
		if info.ID == second.ID {
			assert.True(t, info.IsCurrent)
		} else {
			assert.Equal(t, first.ID, info.ID)
			assert.False(t, info.IsCurrent)
		}
	}
}

func TestTokenService_RevokeAll(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	service := newTokenServiceWith(&stubSigner{}, &stubValidator{}, store)

	userID := uuid.New()
	keep, err := store.CreateSession(ctx, userID, SessionMetadata{})
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, userID, SessionMetadata{})
	require.NoError(t, err)

	revoked, err := service.RevokeAll(ctx, userID.String(), keep.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, revoked)
	assert.False(t, store.revoked[keep.ID])

	t.Run("invalid user id errors", func(t *testing.T) {
		_, err := service.RevokeAll(ctx, "nope", "")
		require.Error(t, err)
	})
}
