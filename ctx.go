package authkit

import (
	"context"

	"github.com/goliatone/go-router"
)

var currentUserCtxKey = &contextKey{"current_user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// CurrentUser is the minimal identity the guard binds for each
// authenticated request.
type CurrentUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	SessionID string `json:"sessionId"`
}

// WithCurrentUser sets the CurrentUser in the given context.
func WithCurrentUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserCtxKey, user)
}

// CurrentUserFromContext finds the CurrentUser from the context.
func CurrentUserFromContext(ctx context.Context) (*CurrentUser, bool) {
	raw, ok := ctx.Value(currentUserCtxKey).(*CurrentUser)
	return raw, ok
}

// WithClaimsContext sets the TokenClaims in the given context.
func WithClaimsContext(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the TokenClaims from the standard context.
func GetClaims(ctx context.Context) (*TokenClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*TokenClaims)
	return raw, ok
}

// GetRouterUser extracts the CurrentUser bound by the guard from the
// router context. The guard stores claims; this flattens them.
func GetRouterUser(ctx router.Context, key string) (*CurrentUser, bool) {
	if key == "" {
		key = "user" // Default key used by the guard middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	if user, ok := raw.(*CurrentUser); ok {
		return user, true
	}
	claims, ok := raw.(sessionClaims)
	if !ok {
		return nil, false
	}
	return &CurrentUser{
		ID:        claims.UserID(),
		Email:     claims.Email(),
		SessionID: claims.SessionID(),
	}, true
}
