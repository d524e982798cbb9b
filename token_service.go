package authkit

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService orchestrates the signer and the session store: it issues
// token pairs bound to fresh sessions, validates presented tokens, and
// drives revocation. It owns no persistence of its own; tokens are
// self-contained and sessions live in the store.
type TokenService struct {
	signer     ClaimsSigner
	validator  TokenValidator
	store      SessionStore
	issuer     string
	audience   jwt.ClaimStrings
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
}

var _ TokenValidator = (*TokenService)(nil)

type TokenServiceOption func(*TokenService)

func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

func WithAccessTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

func WithRefreshTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.refreshTTL = ttl
		}
	}
}

func WithIssuer(issuer string, audience ...string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
		ts.audience = jwt.ClaimStrings(audience)
	}
}

// NewTokenService creates a TokenService around a signer and a session
// store. The signer must also validate tokens; pass a Signer built with
// NewSigner.
func NewTokenService(signer *Signer, store SessionStore, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		signer:     signer,
		validator:  signer,
		store:      store,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// newTokenServiceWith wires explicit collaborators, used by tests to
// substitute signing failures.
func newTokenServiceWith(signer ClaimsSigner, validator TokenValidator, store SessionStore, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		signer:     signer,
		validator:  validator,
		store:      store,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// IssuePair creates exactly one session and signs an access/refresh token
// pair bound to it. The session row exists before either token is signed,
// so every signed sessionId refers to a durable record. The two signing
// operations run concurrently; both must succeed. If either fails the
// session is revoked best-effort and the call errors, so no caller ever
// receives a session without usable tokens.
func (ts *TokenService) IssuePair(ctx context.Context, identity IdentityClaims, meta *SessionMetadata) (*TokenPair, error) {
	if identity.Subject == "" {
		return nil, errors.New("identity subject is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	userID, err := uuid.Parse(identity.Subject)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "identity subject must be a uuid").
			WithCode(errors.CodeBadRequest)
	}

	sessionMeta := SessionMetadata{}
	if meta != nil {
		sessionMeta = *meta
	}

	session, err := ts.store.CreateSession(ctx, userID, sessionMeta)
	if err != nil {
		ts.logger.Error("IssuePair session create failed", "error", err)
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	now := time.Now()
	sessionID := session.ID.String()

	var wg sync.WaitGroup
	var accessToken, refreshToken string
	var accessErr, refreshErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		claims := newTokenClaims(identity, TokenTypeAccess, sessionID, ts.issuer, ts.audience, now, ts.accessTTL)
		accessToken, accessErr = ts.signer.SignClaims(claims)
	}()
	go func() {
		defer wg.Done()
		claims := newTokenClaims(identity, TokenTypeRefresh, sessionID, ts.issuer, ts.audience, now, ts.refreshTTL)
		refreshToken, refreshErr = ts.signer.SignClaims(claims)
	}()
	wg.Wait()

	if accessErr != nil || refreshErr != nil {
		signErr := accessErr
		if signErr == nil {
			signErr = refreshErr
		}
		ts.logger.Error("IssuePair signing failed", "session_id", sessionID, "error", signErr)

		if err := ts.store.Revoke(ctx, session.ID); err != nil {
			ts.logger.Warn("IssuePair could not revoke session after signing failure", "session_id", sessionID, "error", err)
		}

		return nil, errors.Wrap(signErr, errors.CategoryInternal, "failed to sign token pair")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sessionID,
	}, nil
}

// Validate verifies a token string and returns its claims. Any failure
// collapses to an auth-category error; callers treat all of them as "not
// authenticated".
func (ts *TokenService) Validate(tokenString string) (*TokenClaims, error) {
	return ts.validator.Validate(tokenString)
}

// VerifyOrNil collapses verification failures to nil, for callers that
// only care about valid-or-not.
func (ts *TokenService) VerifyOrNil(tokenString string) *TokenClaims {
	claims, err := ts.validator.Validate(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

// IsSessionValid reports whether the session exists, is not revoked, and
// has not expired. Store failures are returned as errors, never folded
// into "invalid", so outages do not masquerade as revocations.
func (ts *TokenService) IsSessionValid(ctx context.Context, sessionID string) (bool, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return false, nil
	}

	live, err := ts.store.IsLive(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	return live, nil
}

// TouchActivity bumps the session's last activity timestamp. Absent
// sessions are a silent no-op.
func (ts *TokenService) TouchActivity(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}

	return ts.store.TouchActivity(ctx, id)
}

// Revoke marks one session revoked. Idempotent.
func (ts *TokenService) Revoke(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return errors.New("invalid session id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	return ts.store.Revoke(ctx, id)
}

// RevokeAll revokes every live session for a user, optionally sparing
// one. It is the mechanism behind "log out everywhere else". Returns the
// number of sessions revoked.
func (ts *TokenService) RevokeAll(ctx context.Context, userID string, exceptSessionID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, errors.New("invalid user id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	var except []uuid.UUID
	if exceptSessionID != "" {
		if sid, err := uuid.Parse(exceptSessionID); err == nil {
			except = append(except, sid)
		}
	}

	return ts.store.RevokeAllForUser(ctx, uid, except...)
}

// ListSessions returns the user's live sessions ordered by recency, each
// annotated with whether it is the caller's current session.
func (ts *TokenService) ListSessions(ctx context.Context, userID string, currentSessionID string) ([]SessionInfo, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.New("invalid user id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	records, err := ts.store.ListLive(ctx, uid)
	if err != nil {
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	infos := make([]SessionInfo, len(records))
	for i, record := range records {
		infos[i] = SessionInfo{
			Session:   record,
			IsCurrent: record.ID.String() == currentSessionID,
		}
	}

	return infos, nil
}
