package authkit

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AuthResponse is returned by every flow that establishes a login: the
// resolved account plus a fresh token pair bound to a new session.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	SessionID    string `json:"sessionId"`
}

// Auther resolves identities (password or social) and exchanges them for
// token pairs through the TokenService.
type Auther struct {
	repo           RepositoryManager
	tokens         *TokenService
	logger         Logger
	profileFetcher ProfileFetcher
}

func NewAuthenticator(repo RepositoryManager, tokens *TokenService) *Auther {
	return &Auther{
		repo:           repo,
		tokens:         tokens,
		logger:         defLogger{},
		profileFetcher: &GoogleProfileFetcher{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithProfileFetcher overrides how Google access tokens are resolved to
// profiles, mainly for tests.
func (s *Auther) WithProfileFetcher(fetcher ProfileFetcher) *Auther {
	if fetcher != nil {
		s.profileFetcher = fetcher
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther.
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// SignUp creates a local-password account and logs it in.
func (s *Auther) SignUp(ctx context.Context, msg RegisterUserMessage, meta *SessionMetadata) (*AuthResponse, error) {
	handler := NewRegisterUserHandler(s.repo)
	if err := handler.Execute(ctx, msg); err != nil {
		s.logger.Error("SignUp registration failed", "error", err)
		return nil, err
	}

	return s.issueFor(ctx, handler.User(), meta)
}

// SignIn verifies a password credential. Unknown accounts, passwordless
// social accounts, and wrong passwords all produce the same error.
func (s *Auther) SignIn(ctx context.Context, email, password string, meta *SessionMetadata) (*AuthResponse, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("SignIn lookup failed", "error", err)
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueFor(ctx, user, meta)
}

// GoogleLogin resolves the provider access token to a profile and logs
// the matching account in, creating it on first contact.
func (s *Auther) GoogleLogin(ctx context.Context, payload GoogleLoginPayload, meta *SessionMetadata) (*AuthResponse, error) {
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid google payload").
			WithCode(errors.CodeBadRequest)
	}

	profile, err := s.profileFetcher.Fetch(ctx, payload.AccessToken)
	if err != nil {
		s.logger.Warn("GoogleLogin profile fetch rejected", "error", err)
		return nil, ErrInvalidCredentials
	}

	return s.socialLogin(ctx, SocialProviderGoogle, profile, meta)
}

// TelegramLogin logs in an identity already verified by the Telegram
// widget flow.
func (s *Auther) TelegramLogin(ctx context.Context, payload TelegramLoginPayload, meta *SessionMetadata) (*AuthResponse, error) {
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid telegram payload").
			WithCode(errors.CodeBadRequest)
	}

	return s.socialLogin(ctx, SocialProviderTelegram, &SocialProfile{
		Identifier: payload.Identifier(),
		Name:       payload.DisplayName(),
	}, meta)
}

// WhatsAppLogin logs in a phone-verified identity. The phone number is
// normalized to E.164 before it is used as the provider identifier.
func (s *Auther) WhatsAppLogin(ctx context.Context, payload WhatsAppLoginPayload, meta *SessionMetadata) (*AuthResponse, error) {
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid whatsapp payload").
			WithCode(errors.CodeBadRequest)
	}

	phone, err := NormalizePhoneNumber(payload.PhoneNumber)
	if err != nil {
		return nil, err
	}

	return s.socialLogin(ctx, SocialProviderWhatsApp, &SocialProfile{
		Identifier: phone,
		Name:       payload.Name,
	}, meta)
}

func (s *Auther) socialLogin(ctx context.Context, provider SocialProvider, profile *SocialProfile, meta *SessionMetadata) (*AuthResponse, error) {
	if profile == nil || profile.Identifier == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.findOrCreateSocialUser(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	return s.issueFor(ctx, user, meta)
}

func (s *Auther) findOrCreateSocialUser(ctx context.Context, provider SocialProvider, profile *SocialProfile) (*User, error) {
	binding, err := provider.binding()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetBySocialIdentity(ctx, provider, profile.Identifier, profile.Email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			s.logger.Error("social identity lookup failed", "provider", provider.String(), "error", err)
			return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
				WithTextCode(ErrStoreUnavailable.TextCode)
		}

		record := &User{
			Name:     profile.Name,
			Email:    profile.Email,
			Provider: provider.String(),
		}
		binding.set(record, profile.Identifier)

		created, err := s.repo.Users().Register(ctx, record)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryConflict, "could not create social user")
		}

		return created, nil
	}

	// Matched by email but never linked to this provider before.
	if binding.get(user) == "" {
		if user, err = s.repo.Users().LinkSocialIdentity(ctx, user, provider, profile.Identifier); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Logout revokes the caller's own session after checking it actually
// belongs to the caller and is still live.
func (s *Auther) Logout(ctx context.Context, userID, sessionID string) error {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrSessionNotLive
	}

	session, err := s.repo.Sessions().GetByID(ctx, sid.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrSessionNotLive
		}
		return errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	if session.UserID.String() != userID || session.IsRevoked {
		return ErrSessionNotLive
	}

	return s.repo.Sessions().Revoke(ctx, sid)
}

// LogoutAll revokes every session for the user except the current one.
func (s *Auther) LogoutAll(ctx context.Context, userID, currentSessionID string) (int64, error) {
	return s.tokens.RevokeAll(ctx, userID, currentSessionID)
}

// ChangePassword verifies the current password, stores the new hash,
// issues a fresh pair, and revokes every other session so stolen
// credentials stop working everywhere at once.
func (s *Auther) ChangePassword(ctx context.Context, userID, sessionID, currentPassword, newPassword string, meta *SessionMetadata) (*AuthResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.Users().GetByID(ctx, uid.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(currentPassword, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid new password").
			WithCode(errors.CodeBadRequest)
	}

	if err := s.repo.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode)
	}

	if meta == nil {
		meta = &SessionMetadata{DeviceInfo: "Password Change"}
	}

	response, err := s.issueFor(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokens.RevokeAll(ctx, userID, response.SessionID); err != nil {
		s.logger.Warn("ChangePassword could not revoke other sessions", "user_id", userID, "error", err)
	}

	return response, nil
}

// ListSessions returns the user's live sessions, flagging the current one.
func (s *Auther) ListSessions(ctx context.Context, userID, currentSessionID string) ([]SessionInfo, error) {
	return s.tokens.ListSessions(ctx, userID, currentSessionID)
}

func (s *Auther) issueFor(ctx context.Context, user *User, meta *SessionMetadata) (*AuthResponse, error) {
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, user.Claims(), meta)
	if err != nil {
		s.logger.Error("token pair issuance failed", "user_id", user.ID, "error", err)
		return nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &AuthResponse{
		User:         &sanitized,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SessionID:    pair.SessionID,
	}, nil
}
