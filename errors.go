package authkit

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeMissingCredential  = "auth_missing_credential"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeWrongTokenType     = "auth_wrong_token_type"
	TextCodeSessionNotLive     = "auth_session_revoked_or_expired"
	TextCodeEmailExists        = "auth_email_exists"
	TextCodeSigningKeyMissing  = "auth_signing_key_missing"
	TextCodeStoreUnavailable   = "auth_store_unavailable"
)

// ErrInvalidCredentials covers bad passwords and bad social tokens. The
// message is deliberately uniform so callers cannot distinguish a wrong
// password from an unknown account.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMissingCredential is returned when a request carries no bearer token.
var ErrMissingCredential = errors.New("missing credential", errors.CategoryAuth).
	WithTextCode(TextCodeMissingCredential).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's signed expiry has elapsed.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tampered, truncated, or foreign-key tokens.
// It shares the unauthorized surface with ErrTokenExpired so verification
// failures cannot be used as an oracle.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenType is returned when a refresh token is presented where
// an access token is required.
var ErrWrongTokenType = errors.New("wrong token type", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenType).
	WithCode(errors.CodeUnauthorized)

// ErrSessionNotLive is returned when the session a token is bound to has
// been revoked, has expired, or no longer exists.
var ErrSessionNotLive = errors.New("session revoked or expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotLive).
	WithCode(errors.CodeUnauthorized)

// ErrEmailAlreadyExists is returned on duplicate signup.
var ErrEmailAlreadyExists = errors.New("email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrSigningKeyMissing is returned at startup when no usable RSA key pair
// can be resolved. The process must not serve traffic in that state.
var ErrSigningKeyMissing = errors.New("signing key material missing", errors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyMissing)

// ErrStoreUnavailable wraps durable-store failures during guard
// evaluation. It must surface as a server error, never as unauthorized.
var ErrStoreUnavailable = errors.New("session store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable)

// ErrNoEmptyString rejects empty password input.
var ErrNoEmptyString = stderrors.New("empty string not allowed")

// ErrMismatchedHashAndPassword is the uniform bcrypt mismatch error.
var ErrMismatchedHashAndPassword = stderrors.New("password does not match")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed")
}

// IsAuthRejection reports whether err should collapse to a 401 response.
// Store failures and other internal errors are not rejections.
func IsAuthRejection(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryAuth
	}

	return IsTokenExpiredError(err) || IsMalformedError(err)
}
