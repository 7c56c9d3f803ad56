package util

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/cmd"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage/migrate"
)

func TestReadConfig(t *testing.T) {
	t.Run("defaults_without_file", func(t *testing.T) {
		PrepareTempConfigDir(t)
		cfg, err := ReadConfig()
		require.NoError(t, err)
		require.Equal(t, config.DefaultConfig(), cfg)
	})

	t.Run("invalid_file", func(t *testing.T) {
		PrepareTempConfigFile(t, "datastore: [")
		cmd.NewRootCommand()
		_, err := ReadConfig()
		require.ErrorContains(t, err, "failed to load config")
	})
}

func TestOpenDatastore(t *testing.T) {
	log := logger.NewNoopLogger()

	t.Run("json", func(t *testing.T) {
		ds, err := OpenDatastore(config.DatastoreConfig{Engine: "json", URI: t.TempDir()}, log)
		require.NoError(t, err)
		ds.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		uri := "file:" + filepath.Join(t.TempDir(), "affinity.db")
		require.NoError(t, migrate.RunMigrations(context.Background(), migrate.MigrationConfig{Engine: "sqlite", URI: uri}))

		ds, err := OpenDatastore(config.DatastoreConfig{Engine: "sqlite", URI: uri}, log)
		require.NoError(t, err)
		defer ds.Close()

		entities, err := ds.ReadEntities(context.Background())
		require.NoError(t, err)
		require.Empty(t, entities)
	})

	t.Run("unknown_engine", func(t *testing.T) {
		_, err := OpenDatastore(config.DatastoreConfig{Engine: "oracle", URI: "x"}, log)
		require.ErrorContains(t, err, "unknown datastore engine type: oracle")
	})

	t.Run("missing_directory", func(t *testing.T) {
		_, err := OpenDatastore(config.DatastoreConfig{Engine: "json", URI: filepath.Join(t.TempDir(), "missing")}, log)
		require.Error(t, err)
	})
}
