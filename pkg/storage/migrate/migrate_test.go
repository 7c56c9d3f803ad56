package migrate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/sqlite"
)

func TestDefaultRegistry(t *testing.T) {
	require.Equal(t, []string{"mysql", "postgres", "sqlite"}, GetDefaultRegistry().GetSupportedEngines())
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("schemaless_engines", func(t *testing.T) {
		for _, engine := range []string{"memory", "json"} {
			require.NoError(t, RunMigrations(ctx, MigrationConfig{Engine: engine, Logger: logger.NewNoopLogger()}))
		}
	})

	t.Run("unknown_engine", func(t *testing.T) {
		err := RunMigrations(ctx, MigrationConfig{Engine: "oracle"})
		require.ErrorContains(t, err, "no migration provider registered for engine: oracle")
	})

	t.Run("sqlite", func(t *testing.T) {
		uri := "file:" + filepath.Join(t.TempDir(), "affinity.db")
		cfg := MigrationConfig{Engine: "sqlite", URI: uri, Timeout: 5 * time.Second}
		require.NoError(t, RunMigrations(ctx, cfg))

		version, err := sqlite.NewMigrationProvider().GetCurrentVersion(ctx, cfg)
		require.NoError(t, err)
		require.Equal(t, int64(1), version)

		// Migrating to the current version is a no-op.
		cfg.TargetVersion = 1
		require.NoError(t, RunMigrations(ctx, cfg))
	})

	t.Run("custom_registry", func(t *testing.T) {
		registry := storage.NewMigratorRegistry()
		err := RunMigrationsWithRegistry(ctx, registry, MigrationConfig{Engine: "sqlite"})
		require.Error(t, err)
	})
}
