package util

import (
	"fmt"

	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/jsonfile"
	"github.com/umafamily/affinity/pkg/storage/mysql"
	"github.com/umafamily/affinity/pkg/storage/postgres"
	"github.com/umafamily/affinity/pkg/storage/sqlcommon"
	"github.com/umafamily/affinity/pkg/storage/sqlite"
)

// Datastore is implemented by every engine the commands can open.
type Datastore interface {
	storage.RecordReader
	storage.RosterWriter
	storage.DatasetWriter
}

// OpenDatastore opens the engine named by cfg.Engine.
func OpenDatastore(cfg config.DatastoreConfig, log logger.Logger) (Datastore, error) {
	if cfg.Engine == "json" {
		ds, err := jsonfile.New(cfg.URI, jsonfile.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return ds, nil
	}

	opts := []sqlcommon.DatastoreOption{
		sqlcommon.WithLogger(log),
		sqlcommon.WithMaxOpenConns(cfg.MaxOpenConns),
		sqlcommon.WithMaxIdleConns(cfg.MaxIdleConns),
		sqlcommon.WithConnMaxIdleTime(cfg.ConnMaxIdleTime),
		sqlcommon.WithConnMaxLifetime(cfg.ConnMaxLifetime),
		sqlcommon.WithConnTimeout(cfg.ConnTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, sqlcommon.WithMetrics())
	}
	dsCfg := sqlcommon.NewConfig(opts...)

	var (
		ds  *sqlcommon.Datastore
		err error
	)
	switch cfg.Engine {
	case "sqlite":
		ds, err = sqlite.New(cfg.URI, dsCfg)
	case "postgres":
		ds, err = postgres.New(cfg.URI, dsCfg)
	case "mysql":
		ds, err = mysql.New(cfg.URI, dsCfg)
	default:
		return nil, fmt.Errorf("unknown datastore engine type: %s", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}
