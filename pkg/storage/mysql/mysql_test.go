package mysql

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestPrepareDSN(t *testing.T) {
	got, err := PrepareDSN("root:secret@tcp(localhost:3306)/affinity")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(got)
	require.NoError(t, err)
	require.True(t, cfg.ParseTime)
	require.Equal(t, "root", cfg.User)
	require.Equal(t, "secret", cfg.Passwd)
	require.Equal(t, "affinity", cfg.DBName)
	require.Equal(t, "localhost:3306", cfg.Addr)

	_, err = PrepareDSN("not a dsn")
	require.Error(t, err)
}

func TestMigrationProvider(t *testing.T) {
	require.Equal(t, "mysql", NewMigrationProvider().GetSupportedEngine())
}
