package authkit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authkit "github.com/amberlane/go-authkit"
)

func TestParseSocialProvider(t *testing.T) {
	tests := []struct {
		input string
		want  authkit.SocialProvider
		ok    bool
	}{
		{"google", authkit.SocialProviderGoogle, true},
		{"Google", authkit.SocialProviderGoogle, true},
		{"  telegram ", authkit.SocialProviderTelegram, true},
		{"whatsapp", authkit.SocialProviderWhatsApp, true},
		{"github", authkit.SocialProviderUnknown, false},
		{"", authkit.SocialProviderUnknown, false},
	}

	for _, tc := range tests {
		got, ok := authkit.ParseSocialProvider(tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	t.Run("already canonical", func(t *testing.T) {
		got, err := authkit.NormalizePhoneNumber("+14155552671")
		require.NoError(t, err)
		assert.Equal(t, "+14155552671", got)
	})

	t.Run("formatting is stripped", func(t *testing.T) {
		got, err := authkit.NormalizePhoneNumber("+1 (415) 555-2671")
		require.NoError(t, err)
		assert.Equal(t, "+14155552671", got)
	})

	t.Run("no country code", func(t *testing.T) {
		_, err := authkit.NormalizePhoneNumber("415-555-2671")
		require.Error(t, err)
	})

	t.Run("not a phone number", func(t *testing.T) {
		_, err := authkit.NormalizePhoneNumber("+1999")
		require.Error(t, err)
	})
}

func TestLoginPayloadValidation(t *testing.T) {
	t.Run("google requires a token", func(t *testing.T) {
		require.Error(t, authkit.GoogleLoginPayload{}.Validate())
		require.NoError(t, authkit.GoogleLoginPayload{AccessToken: "tok"}.Validate())
	})

	t.Run("telegram requires id and first name", func(t *testing.T) {
		require.Error(t, authkit.TelegramLoginPayload{FirstName: "Tele"}.Validate())
		require.Error(t, authkit.TelegramLoginPayload{ID: 42}.Validate())
		require.NoError(t, authkit.TelegramLoginPayload{ID: 42, FirstName: "Tele"}.Validate())
	})

	t.Run("telegram identity helpers", func(t *testing.T) {
		payload := authkit.TelegramLoginPayload{ID: 42, FirstName: "Tele", LastName: "Gram"}
		assert.Equal(t, "42", payload.Identifier())
		assert.Equal(t, "Tele Gram", payload.DisplayName())

		solo := authkit.TelegramLoginPayload{ID: 42, FirstName: "Tele"}
		assert.Equal(t, "Tele", solo.DisplayName())
	})

	t.Run("whatsapp requires e164 and name", func(t *testing.T) {
		require.Error(t, authkit.WhatsAppLoginPayload{Name: "Wa"}.Validate())
		require.Error(t, authkit.WhatsAppLoginPayload{PhoneNumber: "555-2671", Name: "Wa"}.Validate())
		require.NoError(t, authkit.WhatsAppLoginPayload{PhoneNumber: "+14155552671", Name: "Wa"}.Validate())
	})
}

func TestGoogleProfileFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the profile", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"sub":"google-sub-1","email":"gp@example.com","name":"G Person"}`))
		}))
		defer srv.Close()

		fetcher := &authkit.GoogleProfileFetcher{URL: srv.URL}
		profile, err := fetcher.Fetch(ctx, "provider-token")
		require.NoError(t, err)

		assert.Equal(t, "Bearer provider-token", gotAuth)
		assert.Equal(t, "google-sub-1", profile.Identifier)
		assert.Equal(t, "gp@example.com", profile.Email)
		assert.Equal(t, "G Person", profile.Name)
	})

	t.Run("non 200 is invalid credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		fetcher := &authkit.GoogleProfileFetcher{URL: srv.URL}
		_, err := fetcher.Fetch(ctx, "expired-token")
		require.ErrorIs(t, err, authkit.ErrInvalidCredentials)
	})

	t.Run("missing subject is invalid", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"email":"gp@example.com"}`))
		}))
		defer srv.Close()

		fetcher := &authkit.GoogleProfileFetcher{URL: srv.URL}
		_, err := fetcher.Fetch(ctx, "provider-token")
		require.ErrorIs(t, err, authkit.ErrInvalidCredentials)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		fetcher := &authkit.GoogleProfileFetcher{URL: "http://127.0.0.1:1"}
		_, err := fetcher.Fetch(ctx, "provider-token")
		require.Error(t, err)
		assert.True(t, authkit.IsAuthRejection(err))
	})
}
