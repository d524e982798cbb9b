package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim. Access tokens are the only
// kind accepted by the request guard; refresh tokens share the session
// binding but are never valid as a bearer credential.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the signed payload of every issued token: identity
// (sub, email), token type, and the id of the session the pair is bound to.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserEmail string `json:"email,omitempty"`
	TokenKind string `json:"type,omitempty"`
	SID       string `json:"sessionId,omitempty"`
}

// UserID returns the subject claim.
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Email returns the email claim.
func (c *TokenClaims) Email() string {
	return c.UserEmail
}

// Type returns the token type claim.
func (c *TokenClaims) Type() string {
	return c.TokenKind
}

// SessionID returns the bound session identifier.
func (c *TokenClaims) SessionID() string {
	return c.SID
}

// SessionUUID parses the bound session identifier.
func (c *TokenClaims) SessionUUID() (uuid.UUID, error) {
	return uuid.Parse(c.SID)
}

// IsAccess reports whether the token may be presented as a bearer credential.
func (c *TokenClaims) IsAccess() bool {
	return c.TokenKind == TokenTypeAccess
}

// Expires returns the expiration time, zero when absent.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issued-at time, zero when absent.
func (c *TokenClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func newTokenClaims(identity IdentityClaims, kind, sessionID, issuer string, audience jwt.ClaimStrings, now time.Time, ttl time.Duration) *TokenClaims {
	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.Subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserEmail: identity.Email,
		TokenKind: kind,
		SID:       sessionID,
	}
}
