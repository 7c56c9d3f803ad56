// Package postgres stores the reference data in PostgreSQL.
package postgres

import (
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/pressly/goose/v3"

	"github.com/umafamily/affinity/assets"
	"github.com/umafamily/affinity/pkg/storage/sqlcommon"
)

const engine = "postgres"

// PrepareURI checks that uri is a postgres connection URL.
func PrepareURI(uri string) (string, error) {
	dbURI, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid postgres database uri: %w", err)
	}
	if dbURI.Scheme != "postgres" && dbURI.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid postgres database uri: unexpected scheme %q", dbURI.Scheme)
	}
	return dbURI.String(), nil
}

// New opens the PostgreSQL database at uri.
func New(uri string, cfg *sqlcommon.Config) (*sqlcommon.Datastore, error) {
	uri, err := PrepareURI(uri)
	if err != nil {
		return nil, err
	}

	return sqlcommon.Open(uri, sqlcommon.Dialect{
		Name:        engine,
		Driver:      "pgx",
		Placeholder: sq.Dollar,
	}, cfg)
}

// NewMigrationProvider returns the goose provider for the PostgreSQL schema.
func NewMigrationProvider() *sqlcommon.MigrationProvider {
	return sqlcommon.NewMigrationProvider(engine, "pgx", goose.DialectPostgres, assets.PostgresMigrationDir, PrepareURI)
}
