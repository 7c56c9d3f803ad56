package storage

import (
	"context"
	"sort"
	"time"

	"github.com/umafamily/affinity/pkg/logger"
)

// MigrationProvider runs the schema migrations of one database engine.
type MigrationProvider interface {
	// RunMigrations migrates up to the latest version, or to
	// config.TargetVersion when it is set.
	RunMigrations(ctx context.Context, config MigrationConfig) error

	GetCurrentVersion(ctx context.Context, config MigrationConfig) (int64, error)

	GetSupportedEngine() string
}

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig struct {
	Engine        string
	URI           string
	TargetVersion uint
	Timeout       time.Duration
	Logger        logger.Logger
}

// MigratorRegistry maps engine names to their migration providers.
type MigratorRegistry struct {
	providers map[string]MigrationProvider
}

func NewMigratorRegistry() *MigratorRegistry {
	return &MigratorRegistry{
		providers: make(map[string]MigrationProvider),
	}
}

// RegisterProvider registers a migration provider for a specific database engine.
func (r *MigratorRegistry) RegisterProvider(engine string, provider MigrationProvider) {
	r.providers[engine] = provider
}

// GetProvider returns the migration provider for the specified engine.
func (r *MigratorRegistry) GetProvider(engine string) (MigrationProvider, bool) {
	provider, exists := r.providers[engine]
	return provider, exists
}

// GetSupportedEngines returns the registered engine names in ascending order.
func (r *MigratorRegistry) GetSupportedEngines() []string {
	engines := make([]string, 0, len(r.providers))
	for engine := range r.providers {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	return engines
}
