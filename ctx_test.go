package authkit_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authkit "github.com/amberlane/go-authkit"
)

func TestCurrentUserContext(t *testing.T) {
	user := &authkit.CurrentUser{
		ID:        "2bd0117a-3012-44cd-96f9-ea4b019dfef9",
		Email:     "person@example.com",
		SessionID: "e3f9c21e-8d1c-47f7-b0cd-5a55a1c437da",
	}

	ctx := authkit.WithCurrentUser(context.Background(), user)

	got, ok := authkit.CurrentUserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)

	t.Run("absent from bare context", func(t *testing.T) {
		_, ok := authkit.CurrentUserFromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestClaimsContext(t *testing.T) {
	claims := &authkit.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "2bd0117a-3012-44cd-96f9-ea4b019dfef9"},
		TokenKind:        authkit.TokenTypeAccess,
	}

	ctx := authkit.WithClaimsContext(context.Background(), claims)

	got, ok := authkit.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, claims, got)

	t.Run("absent from bare context", func(t *testing.T) {
		_, ok := authkit.GetClaims(context.Background())
		assert.False(t, ok)
	})
}

func TestGetRouterUser(t *testing.T) {
	t.Run("flattens guard claims", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = &authkit.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "2bd0117a-3012-44cd-96f9-ea4b019dfef9"},
			UserEmail:        "person@example.com",
			SID:              "e3f9c21e-8d1c-47f7-b0cd-5a55a1c437da",
		}

		user, ok := authkit.GetRouterUser(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "2bd0117a-3012-44cd-96f9-ea4b019dfef9", user.ID)
		assert.Equal(t, "person@example.com", user.Email)
		assert.Equal(t, "e3f9c21e-8d1c-47f7-b0cd-5a55a1c437da", user.SessionID)
	})

	t.Run("passes through a stored CurrentUser", func(t *testing.T) {
		expected := &authkit.CurrentUser{ID: "id-1"}
		ctx := router.NewMockContext()
		ctx.LocalsMock["account"] = expected

		user, ok := authkit.GetRouterUser(ctx, "account")
		require.True(t, ok)
		assert.Equal(t, expected, user)
	})

	t.Run("missing local", func(t *testing.T) {
		ctx := router.NewMockContext()
		_, ok := authkit.GetRouterUser(ctx, "")
		assert.False(t, ok)
	})

	t.Run("unexpected local shape", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = "just a string"
		_, ok := authkit.GetRouterUser(ctx, "")
		assert.False(t, ok)
	})
}
