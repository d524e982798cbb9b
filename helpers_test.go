package authkit_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	authkit "github.com/amberlane/go-authkit"
)

// newTestDB opens an in-memory sqlite database with the auth schema
// applied. A single connection keeps the memory database alive for the
// whole test.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	_, err = db.NewCreateTable().Model((*authkit.User)(nil)).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().Model((*authkit.Session)(nil)).Exec(ctx)
	require.NoError(t, err)

	return db
}

// writeTestKeyPair generates an RSA key pair and writes it as PEM files,
// returning the two paths.
func writeTestKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()

	privPath := filepath.Join(dir, "private.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pubPath := filepath.Join(dir, "public.pem")
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o600))

	return privPath, pubPath
}

func newTestSigner(t *testing.T) *authkit.Signer {
	t.Helper()

	privPath, pubPath := writeTestKeyPair(t)
	signer, err := authkit.NewSigner(authkit.SimpleConfig{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
	}, nil)
	require.NoError(t, err)

	return signer
}
