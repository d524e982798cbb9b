package authkit

import "time"

// Defaults mirror the credential lifecycle: short-lived access tokens,
// week-long refresh tokens and sessions, daily purge.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultSweepInterval   = 24 * time.Hour
)

// SimpleConfig is a plain value implementation of Config. Zero duration
// fields resolve to package defaults so construction stays explicit
// without requiring every knob to be set.
type SimpleConfig struct {
	PrivateKeyPath  string
	PublicKeyPath   string
	Issuer          string
	Audience        []string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionTTL      time.Duration
	SweepInterval   time.Duration
	ContextKey      string
	AuthScheme      string
	TokenLookup     string
}

var _ Config = (*SimpleConfig)(nil)

func (c SimpleConfig) GetPrivateKeyPath() string { return c.PrivateKeyPath }
func (c SimpleConfig) GetPublicKeyPath() string  { return c.PublicKeyPath }
func (c SimpleConfig) GetIssuer() string         { return c.Issuer }
func (c SimpleConfig) GetAudience() []string     { return c.Audience }

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL > 0 {
		return c.AccessTokenTTL
	}
	return DefaultAccessTokenTTL
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL > 0 {
		return c.RefreshTokenTTL
	}
	return DefaultRefreshTokenTTL
}

func (c SimpleConfig) GetSessionTTL() time.Duration {
	if c.SessionTTL > 0 {
		return c.SessionTTL
	}
	return DefaultSessionTTL
}

func (c SimpleConfig) GetSweepInterval() time.Duration {
	if c.SweepInterval > 0 {
		return c.SweepInterval
	}
	return DefaultSweepInterval
}

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey != "" {
		return c.ContextKey
	}
	return "user"
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme != "" {
		return c.AuthScheme
	}
	return "Bearer"
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup != "" {
		return c.TokenLookup
	}
	return "header:Authorization"
}
