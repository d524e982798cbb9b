package authkit

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is one authenticated login, independently revocable. Identity
// fields (id, user_id, created_at, expires_at) never change after
// creation; only last_activity and is_revoked are mutable, and a revoked
// session never reverts.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"-"`
	DeviceInfo    string    `bun:"device_info" json:"deviceInfo,omitempty"`
	IPAddress     string    `bun:"ip_address" json:"ipAddress,omitempty"`
	LastActivity  time.Time `bun:"last_activity,notnull" json:"lastActivity"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expiresAt"`
	IsRevoked     bool      `bun:"is_revoked,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
}

// Live reports whether the session is usable at the given instant.
func (s *Session) Live(now time.Time) bool {
	return s != nil && !s.IsRevoked && s.ExpiresAt.After(now)
}

// SessionInfo is one entry of a user's session listing, annotated with
// whether it is the session the caller is currently using.
type SessionInfo struct {
	*Session
	IsCurrent bool `json:"isCurrentSession"`
}

// AuthProvider records how an account was first established.
type AuthProvider = string

const (
	ProviderLocal    AuthProvider = "local"
	ProviderGoogle   AuthProvider = "google"
	ProviderTelegram AuthProvider = "telegram"
	ProviderWhatsApp AuthProvider = "whatsapp"
)

// User is the identity model. Each social provider gets its own typed
// identity column; the mapping from provider to column lives in
// providerBindings, resolved at compile time.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string       `bun:"name" json:"name,omitempty"`
	Email         string       `bun:"email,unique,nullzero" json:"email,omitempty"`
	PasswordHash  string       `bun:"password_hash" json:"-"`
	Provider      AuthProvider `bun:"provider,notnull" json:"provider,omitempty"`
	GoogleID      string       `bun:"google_id,nullzero" json:"-"`
	TelegramID    string       `bun:"telegram_id,nullzero" json:"-"`
	WhatsAppID    string       `bun:"whatsapp_id,nullzero" json:"-"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

var _ Identity = (*userIdentity)(nil)

type userIdentity struct {
	user *User
}

func (u userIdentity) ID() string    { return u.user.ID.String() }
func (u userIdentity) Email() string { return u.user.Email }

// AsIdentity adapts a User record to the Identity interface.
func (u *User) AsIdentity() Identity {
	return userIdentity{user: u}
}

// Claims builds the identity payload embedded in tokens issued for this user.
func (u *User) Claims() IdentityClaims {
	return IdentityClaims{
		Subject: u.ID.String(),
		Email:   u.Email,
	}
}
