package authkit

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Sessions interface {
	repository.Repository[*Session]

	CreateSession(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (*Session, error)
	CreateSessionTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, meta SessionMetadata) (*Session, error)
	TouchActivity(ctx context.Context, sessionID uuid.UUID) error
	Revoke(ctx context.Context, sessionID uuid.UUID) error
	RevokeTx(ctx context.Context, tx bun.IDB, sessionID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, except ...uuid.UUID) (int64, error)
	RevokeAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, except ...uuid.UUID) (int64, error)
	IsLive(ctx context.Context, sessionID uuid.UUID) (bool, error)
	ListLive(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	PurgeExpiredOrRevoked(ctx context.Context) (int64, error)
}

type sessions struct {
	repository.Repository[*Session]
	db  *bun.DB
	ttl time.Duration
}

var (
	_ Sessions                        = (*sessions)(nil)
	_ SessionStore                    = (*sessions)(nil)
	_ repository.Repository[*Session] = (*sessions)(nil)
)

type SessionsOption func(*sessions)

// WithSessionTTL overrides the fixed lifetime stamped on new sessions.
func WithSessionTTL(ttl time.Duration) SessionsOption {
	return func(s *sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewSessionsRepository(db *bun.DB, opts ...SessionsOption) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
	})

	repoSessions := &sessions{
		Repository: repo,
		db:         db,
		ttl:        DefaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoSessions)
		}
	}

	return repoSessions
}

func (a *sessions) CreateSession(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (*Session, error) {
	return a.CreateSessionTx(ctx, a.db, userID, meta)
}

func (a *sessions) CreateSessionTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, meta SessionMetadata) (*Session, error) {
	now := time.Now()
	record := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		DeviceInfo:   meta.DeviceInfo,
		IPAddress:    meta.IPAddress,
		LastActivity: now,
		ExpiresAt:    now.Add(a.ttl),
		IsRevoked:    false,
		CreatedAt:    now,
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

// TouchActivity bumps last_activity on a still-usable session. A missing
// or revoked session is a silent no-op. The last_activity guard keeps the
// column monotonically non-decreasing under concurrent touches.
func (a *sessions) TouchActivity(ctx context.Context, sessionID uuid.UUID) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*Session)(nil)).
		Set("last_activity = ?", now).
		Where("id = ?", sessionID).
		Where("is_revoked = ?", false).
		Where("last_activity <= ?", now).
		Exec(ctx)

	return err
}

func (a *sessions) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	return a.RevokeTx(ctx, a.db, sessionID)
}

// RevokeTx marks a session revoked. Idempotent: revoking an already
// revoked or absent session succeeds without effect.
func (a *sessions) RevokeTx(ctx context.Context, tx bun.IDB, sessionID uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("is_revoked = ?", true).
		Where("id = ?", sessionID).
		Exec(ctx)

	return err
}

func (a *sessions) RevokeAllForUser(ctx context.Context, userID uuid.UUID, except ...uuid.UUID) (int64, error) {
	return a.RevokeAllForUserTx(ctx, a.db, userID, except...)
}

// RevokeAllForUserTx revokes every non-revoked session for a user except
// the given ones, as a single bulk update so concurrent readers never
// observe a partial revoke. Returns the number of sessions affected.
func (a *sessions) RevokeAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, except ...uuid.UUID) (int64, error) {
	q := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("is_revoked = ?", true).
		Where("user_id = ?", userID).
		Where("is_revoked = ?", false)

	if len(except) > 0 {
		q = q.Where("id NOT IN (?)", bun.In(except))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (a *sessions) IsLive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return a.db.NewSelect().
		Model((*Session)(nil)).
		Where("id = ?", sessionID).
		Where("is_revoked = ?", false).
		Where("expires_at > ?", time.Now()).
		Exists(ctx)
}

func (a *sessions) ListLive(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	var records []*Session

	err := a.db.NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		Where("is_revoked = ?", false).
		Where("expires_at > ?", time.Now()).
		Order("last_activity DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// PurgeExpiredOrRevoked deletes every expired or revoked session in one
// bulk statement. Safe to run concurrently with live traffic: a session
// deleted mid-flight simply fails subsequent IsLive checks.
func (a *sessions) PurgeExpiredOrRevoked(ctx context.Context) (int64, error) {
	res, err := a.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at < ?", time.Now()).
		WhereOr("is_revoked = ?", true).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
