package authkit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityClaims is the minimal identity payload embedded in issued tokens.
// Collaborators resolving a login (password or social) provide it to IssuePair.
type IdentityClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

// SessionMetadata carries optional request attributes recorded on a session.
type SessionMetadata struct {
	DeviceInfo string `json:"deviceInfo,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`
}

// TokenPair is the result of issuing credentials: one access and one
// refresh token bound to the same server-side session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	SessionID    string `json:"sessionId"`
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// ClaimsSigner signs structured claims into wire tokens.
type ClaimsSigner interface {
	SignClaims(claims *TokenClaims) (string, error)
}

// SessionStore is the durable record of active login sessions. All
// per-record operations are atomic with respect to concurrent callers.
type SessionStore interface {
	CreateSession(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (*Session, error)
	TouchActivity(ctx context.Context, sessionID uuid.UUID) error
	Revoke(ctx context.Context, sessionID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, except ...uuid.UUID) (int64, error)
	IsLive(ctx context.Context, sessionID uuid.UUID) (bool, error)
	ListLive(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	PurgeExpiredOrRevoked(ctx context.Context) (int64, error)
}

// Identity holds the attributes of an authenticated identity.
type Identity interface {
	ID() string
	Email() string
}

// Config holds authkit options.
type Config interface {
	GetPrivateKeyPath() string
	GetPublicKeyPath() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetSessionTTL() time.Duration
	GetSweepInterval() time.Duration
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
