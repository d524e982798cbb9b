package authkit

import (
	"crypto/rsa"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Environment fallbacks for key material when no key files are configured
// or the configured files cannot be read.
const (
	EnvPrivateKey = "AUTHKIT_PRIVATE_KEY"
	EnvPublicKey  = "AUTHKIT_PUBLIC_KEY"
)

// Signer produces and verifies RS256 signed tokens. The algorithm is
// fixed for the process lifetime; there is no symmetric or unsigned
// fallback. Construction fails when no usable key pair can be resolved.
type Signer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	logger     Logger
}

var _ TokenValidator = (*Signer)(nil)
var _ ClaimsSigner = (*Signer)(nil)

// NewSigner resolves key material and returns a ready Signer. Resolution
// order: PEM files at the configured paths first, then the
// AUTHKIT_PRIVATE_KEY / AUTHKIT_PUBLIC_KEY environment variables.
func NewSigner(cfg Config, logger Logger) (*Signer, error) {
	if logger == nil {
		logger = defLogger{}
	}

	privPEM, pubPEM, err := resolveKeyMaterial(cfg.GetPrivateKeyPath(), cfg.GetPublicKeyPath())
	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, errors.Wrap(err, ErrSigningKeyMissing.Category, "invalid RSA private key").
			WithTextCode(ErrSigningKeyMissing.TextCode)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, errors.Wrap(err, ErrSigningKeyMissing.Category, "invalid RSA public key").
			WithTextCode(ErrSigningKeyMissing.TextCode)
	}

	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		logger:     logger,
	}, nil
}

func resolveKeyMaterial(privPath, pubPath string) ([]byte, []byte, error) {
	if privPath != "" && pubPath != "" {
		priv, privErr := os.ReadFile(privPath)
		pub, pubErr := os.ReadFile(pubPath)
		if privErr == nil && pubErr == nil {
			return priv, pub, nil
		}
	}

	priv := os.Getenv(EnvPrivateKey)
	pub := os.Getenv(EnvPublicKey)
	if priv != "" && pub != "" {
		return []byte(priv), []byte(pub), nil
	}

	return nil, nil, ErrSigningKeyMissing
}

// PublicKey exposes the verification key, e.g. to publish a JWK set.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return s.publicKey
}

// SignClaims signs structured claims using the configured private key.
func (s *Signer) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signedString, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Validate parses and verifies a token string, returning structured
// claims. It fails closed: signature mismatch, malformed structure, and
// elapsed expiry all collapse to auth-category errors so callers cannot
// distinguish a forged token from a stale one.
func (s *Signer) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			s.logger.Error("Signer validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, ErrTokenMalformed
		}
		return s.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	s.logger.Error("Signer validate could not decode claims")
	return nil, ErrTokenMalformed
}
