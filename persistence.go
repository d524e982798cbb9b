package authkit

import (
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
)

func init() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*Session)(nil))
}

// RegisterMigrations attaches this package's schema migrations to a
// persistence client.
func RegisterMigrations(client *persistence.Client) error {
	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	return nil
}
