package authkit_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authkit "github.com/amberlane/go-authkit"
)

func TestUsersRepository_RegisterAndGetByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := authkit.NewUsersRepository(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, &authkit.User{
		Name:         "Test Person",
		Email:        "  Person@Example.COM ",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "person@example.com", created.Email, "emails are normalized")
	assert.Equal(t, authkit.ProviderLocal, created.Provider)

	found, err := repo.GetByEmail(ctx, "person@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	t.Run("lookup is case insensitive", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "PERSON@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown email is record not found", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepository_SocialIdentity(t *testing.T) {
	db := newTestDB(t)
	repo := authkit.NewUsersRepository(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, &authkit.User{
		Name:     "Google Person",
		Email:    "google-person@example.com",
		Provider: authkit.ProviderGoogle,
		GoogleID: "google-sub-1",
	})
	require.NoError(t, err)

	t.Run("found by provider identifier", func(t *testing.T) {
		found, err := repo.GetBySocialIdentity(ctx, authkit.SocialProviderGoogle, "google-sub-1", "")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("found by email when identifier is unknown", func(t *testing.T) {
		found, err := repo.GetBySocialIdentity(ctx, authkit.SocialProviderGoogle, "other-sub", "google-person@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("missing identity is record not found", func(t *testing.T) {
		_, err := repo.GetBySocialIdentity(ctx, authkit.SocialProviderTelegram, "tg-1", "")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("link backfills provider column", func(t *testing.T) {
		linked, err := repo.LinkSocialIdentity(ctx, created, authkit.SocialProviderTelegram, "tg-42")
		require.NoError(t, err)
		assert.Equal(t, "tg-42", linked.TelegramID)

		found, err := repo.GetBySocialIdentity(ctx, authkit.SocialProviderTelegram, "tg-42", "")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "google-sub-1", found.GoogleID, "existing identities survive")
	})
}

func TestUsersRepository_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := authkit.NewUsersRepository(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, &authkit.User{
		Name:         "Pwd Person",
		Email:        "pwd@example.com",
		PasswordHash: "old-hash",
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "new-hash"))

	found, err := repo.GetByEmail(ctx, "pwd@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)

	t.Run("unknown user is record not found", func(t *testing.T) {
		err := repo.UpdatePassword(ctx, uuid.New(), "hash")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
