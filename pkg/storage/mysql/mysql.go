// Package mysql stores the reference data in MySQL.
package mysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/umafamily/affinity/assets"
	"github.com/umafamily/affinity/pkg/storage/sqlcommon"
)

const engine = "mysql"

// PrepareDSN parses a go-sql-driver DSN and turns on the options the
// datastore relies on.
func PrepareDSN(uri string) (string, error) {
	dsnCfg, err := mysql.ParseDSN(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql connection dsn: %w", err)
	}
	dsnCfg.ParseTime = true
	return dsnCfg.FormatDSN(), nil
}

// New opens the MySQL database at uri.
func New(uri string, cfg *sqlcommon.Config) (*sqlcommon.Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	return sqlcommon.Open(uri, sqlcommon.Dialect{
		Name:        engine,
		Driver:      "mysql",
		Placeholder: sq.Question,
	}, cfg)
}

// NewMigrationProvider returns the goose provider for the MySQL schema.
func NewMigrationProvider() *sqlcommon.MigrationProvider {
	return sqlcommon.NewMigrationProvider(engine, "mysql", goose.DialectMySQL, assets.MySQLMigrationDir, PrepareDSN)
}
