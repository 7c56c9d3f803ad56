// Package migrate runs the schema migrations of the SQL engines.
package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/mysql"
	"github.com/umafamily/affinity/pkg/storage/postgres"
	"github.com/umafamily/affinity/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations
type MigrationConfig = storage.MigrationConfig

var (
	defaultRegistry *storage.MigratorRegistry
	registryOnce    sync.Once
)

func initDefaultRegistry() {
	registryOnce.Do(func() {
		defaultRegistry = storage.NewMigratorRegistry()
		defaultRegistry.RegisterProvider("postgres", postgres.NewMigrationProvider())
		defaultRegistry.RegisterProvider("mysql", mysql.NewMigrationProvider())
		defaultRegistry.RegisterProvider("sqlite", sqlite.NewMigrationProvider())
	})
}

// GetDefaultRegistry returns the registry of the built-in engines.
func GetDefaultRegistry() *storage.MigratorRegistry {
	initDefaultRegistry()
	return defaultRegistry
}

// RunMigrationsWithRegistry runs migrations using a specific migration registry.
// Engines without a schema, such as json and memory, have nothing to migrate.
func RunMigrationsWithRegistry(ctx context.Context, registry *storage.MigratorRegistry, cfg MigrationConfig) error {
	if cfg.Engine == "memory" || cfg.Engine == "json" {
		if cfg.Logger != nil {
			cfg.Logger.Info("no migrations to run for `" + cfg.Engine + "` datastore")
		}
		return nil
	}

	provider, exists := registry.GetProvider(cfg.Engine)
	if !exists {
		return fmt.Errorf("no migration provider registered for engine: %s", cfg.Engine)
	}

	return provider.RunMigrations(ctx, cfg)
}

// RunMigrations runs the migrations for cfg with the built-in engines.
func RunMigrations(ctx context.Context, cfg MigrationConfig) error {
	return RunMigrationsWithRegistry(ctx, GetDefaultRegistry(), cfg)
}
