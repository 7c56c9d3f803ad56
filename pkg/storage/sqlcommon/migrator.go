package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/assets"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
)

// MigrationProvider implements [storage.MigrationProvider] with goose over
// the embedded SQL migrations of one engine.
type MigrationProvider struct {
	engine     string
	driver     string
	dialect    goose.Dialect
	dir        string
	prepareURI func(string) (string, error)
}

var _ storage.MigrationProvider = (*MigrationProvider)(nil)

// NewMigrationProvider returns a provider for the migrations under dir of
// [assets.EmbedMigrations]. prepareURI may be nil.
func NewMigrationProvider(engine, driver string, dialect goose.Dialect, dir string, prepareURI func(string) (string, error)) *MigrationProvider {
	if prepareURI == nil {
		prepareURI = func(uri string) (string, error) { return uri, nil }
	}
	return &MigrationProvider{
		engine:     engine,
		driver:     driver,
		dialect:    dialect,
		dir:        dir,
		prepareURI: prepareURI,
	}
}

// GetSupportedEngine returns the database engine this provider supports.
func (p *MigrationProvider) GetSupportedEngine() string {
	return p.engine
}

// RunMigrations see [storage.MigrationProvider].RunMigrations.
func (p *MigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	log := config.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	db, provider, err := p.open(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	currentVersion, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get %s db version: %w", p.engine, err)
	}

	log.Info("current schema version", zap.String("engine", p.engine), zap.Int64("version", currentVersion))

	if config.TargetVersion == 0 {
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", p.engine, err)
		}
		log.Info("migration done", zap.String("engine", p.engine), zap.Int("applied", len(results)))
		return nil
	}

	target := int64(config.TargetVersion)
	switch {
	case target < currentVersion:
		if _, err := provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("failed to run %s migrations down to %v: %w", p.engine, target, err)
		}
	case target > currentVersion:
		if _, err := provider.UpTo(ctx, target); err != nil {
			return fmt.Errorf("failed to run %s migrations up to %v: %w", p.engine, target, err)
		}
	default:
		log.Info("nothing to migrate", zap.String("engine", p.engine))
		return nil
	}

	log.Info("migration done", zap.String("engine", p.engine), zap.Int64("version", target))
	return nil
}

// GetCurrentVersion see [storage.MigrationProvider].GetCurrentVersion.
func (p *MigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	db, provider, err := p.open(ctx, config)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return provider.GetDBVersion(ctx)
}

func (p *MigrationProvider) open(ctx context.Context, config storage.MigrationConfig) (*sql.DB, *goose.Provider, error) {
	uri, err := p.prepareURI(config.URI)
	if err != nil {
		return nil, nil, err
	}

	db, err := goose.OpenDBWithDriver(p.driver, uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s connection: %w", p.engine, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = config.Timeout
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize %s connection: %w", p.engine, err)
	}

	migrations, err := fs.Sub(assets.EmbedMigrations, p.dir)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to read %s migrations: %w", p.engine, err)
	}

	provider, err := goose.NewProvider(p.dialect, db, migrations)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return db, provider, nil
}
