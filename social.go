package authkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// SocialProvider enumerates the supported external identity providers.
type SocialProvider int

const (
	SocialProviderUnknown SocialProvider = iota
	SocialProviderGoogle
	SocialProviderTelegram
	SocialProviderWhatsApp
)

func (p SocialProvider) String() string {
	switch p {
	case SocialProviderGoogle:
		return ProviderGoogle
	case SocialProviderTelegram:
		return ProviderTelegram
	case SocialProviderWhatsApp:
		return ProviderWhatsApp
	default:
		return "unknown"
	}
}

// ParseSocialProvider maps a provider tag to its enumerated variant.
func ParseSocialProvider(s string) (SocialProvider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ProviderGoogle:
		return SocialProviderGoogle, true
	case ProviderTelegram:
		return SocialProviderTelegram, true
	case ProviderWhatsApp:
		return SocialProviderWhatsApp, true
	default:
		return SocialProviderUnknown, false
	}
}

// providerBinding ties a provider to its identity column and accessors.
// Each binding is declared once here; nothing builds column names from
// provider strings at runtime.
type providerBinding struct {
	column string
	get    func(*User) string
	set    func(*User, string)
}

var providerBindings = map[SocialProvider]providerBinding{
	SocialProviderGoogle: {
		column: "google_id",
		get:    func(u *User) string { return u.GoogleID },
		set:    func(u *User, id string) { u.GoogleID = id },
	},
	SocialProviderTelegram: {
		column: "telegram_id",
		get:    func(u *User) string { return u.TelegramID },
		set:    func(u *User, id string) { u.TelegramID = id },
	},
	SocialProviderWhatsApp: {
		column: "whatsapp_id",
		get:    func(u *User) string { return u.WhatsAppID },
		set:    func(u *User, id string) { u.WhatsAppID = id },
	},
}

func (p SocialProvider) binding() (providerBinding, error) {
	binding, ok := providerBindings[p]
	if !ok {
		return providerBinding{}, errors.New(
			fmt.Sprintf("unsupported social provider: %d", p),
			errors.CategoryBadInput,
		).WithCode(errors.CodeBadRequest)
	}
	return binding, nil
}

// SocialProfile is the externally verified identity a provider reports.
type SocialProfile struct {
	Identifier string
	Email      string
	Name       string
}

// ProfileFetcher exchanges a provider access token for the profile it
// represents. The Google flow uses it; Telegram and WhatsApp logins carry
// their identity in the payload directly.
type ProfileFetcher interface {
	Fetch(ctx context.Context, accessToken string) (*SocialProfile, error)
}

// ProfileFetcherFunc adapts a function into a ProfileFetcher.
type ProfileFetcherFunc func(ctx context.Context, accessToken string) (*SocialProfile, error)

func (f ProfileFetcherFunc) Fetch(ctx context.Context, accessToken string) (*SocialProfile, error) {
	if f == nil {
		return nil, ErrInvalidCredentials
	}
	return f(ctx, accessToken)
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfileFetcher resolves Google profiles against the userinfo
// endpoint using the client supplied token.
type GoogleProfileFetcher struct {
	HTTPClient *http.Client
	URL        string
}

var _ ProfileFetcher = (*GoogleProfileFetcher)(nil)

func (g *GoogleProfileFetcher) Fetch(ctx context.Context, accessToken string) (*SocialProfile, error) {
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	url := g.URL
	if url == "" {
		url = googleUserInfoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, ErrInvalidCredentials.Category, ErrInvalidCredentials.Message).
			WithTextCode(ErrInvalidCredentials.TextCode).
			WithCode(errors.CodeUnauthorized)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, ErrInvalidCredentials
	}

	var body struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, ErrInvalidCredentials.Category, ErrInvalidCredentials.Message).
			WithTextCode(ErrInvalidCredentials.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if body.Sub == "" {
		return nil, ErrInvalidCredentials
	}

	return &SocialProfile{
		Identifier: body.Sub,
		Email:      body.Email,
		Name:       body.Name,
	}, nil
}

// GoogleLoginPayload carries the provider issued access token.
type GoogleLoginPayload struct {
	AccessToken string `json:"accessToken"`
}

func (p GoogleLoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.AccessToken, validation.Required),
	)
}

// TelegramLoginPayload carries the already verified Telegram identity.
type TelegramLoginPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (p TelegramLoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.LastName, validation.Length(0, 200)),
	)
}

// Identifier is the stable Telegram identity string.
func (p TelegramLoginPayload) Identifier() string {
	return strconv.FormatInt(p.ID, 10)
}

// DisplayName joins the Telegram name parts.
func (p TelegramLoginPayload) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// WhatsAppLoginPayload carries the phone-verified WhatsApp identity.
type WhatsAppLoginPayload struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

func (p WhatsAppLoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PhoneNumber, validation.Required, is.E164),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
	)
}

// NormalizePhoneNumber canonicalizes a phone number to E.164 so the same
// device always maps to the same whatsapp identity column value.
func NormalizePhoneNumber(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid phone number").
			WithCode(errors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", errors.New("invalid phone number", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
