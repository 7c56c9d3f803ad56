package sqlcommon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/types"
)

var tracer = otel.Tracer("affinity/pkg/storage/sqlcommon")

const (
	entityTable        = "entity"
	relationRuleTable  = "relation_rule"
	relationGroupTable = "relation_group"

	// insertBatchSize bounds the rows of one INSERT statement.
	insertBatchSize = 500

	DefaultConnTimeout = time.Minute
)

// Config defines the configuration parameters
// for setting up and managing a sql connection.
type Config struct {
	Logger logger.Logger

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// ConnTimeout bounds how long opening waits for the database to answer a ping.
	ConnTimeout time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type
// used for configuring a Config object.
type DatastoreOption func(*Config)

// WithLogger returns a DatastoreOption that sets the Logger in the Config.
func WithLogger(l logger.Logger) DatastoreOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// WithMaxOpenConns returns a DatastoreOption that sets the
// maximum number of open connections in the Config.
func WithMaxOpenConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxOpenConns = c
	}
}

// WithMaxIdleConns returns a DatastoreOption that sets the
// maximum number of idle connections in the Config.
func WithMaxIdleConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxIdleConns = c
	}
}

// WithConnMaxIdleTime returns a DatastoreOption that sets
// the maximum idle time for a connection in the Config.
func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxIdleTime = d
	}
}

// WithConnMaxLifetime returns a DatastoreOption that sets
// the maximum lifetime for a connection in the Config.
func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxLifetime = d
	}
}

func WithConnTimeout(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnTimeout = d
	}
}

// WithMetrics returns a DatastoreOption that
// enables the export of metrics in the Config.
func WithMetrics() DatastoreOption {
	return func(cfg *Config) {
		cfg.ExportMetrics = true
	}
}

// NewConfig creates a new Config instance with default values
// and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = DefaultConnTimeout
	}

	return cfg
}

// Dialect holds what differs between the SQL engines.
type Dialect struct {
	// Name is used in span names, log lines and metrics.
	Name string

	// Driver is the database/sql driver name.
	Driver string

	Placeholder sq.PlaceholderFormat

	// HandleError converts driver errors. Defaults to HandleSQLError.
	HandleError func(error) error

	// Retry wraps each write transaction. Defaults to a single attempt.
	Retry func(func() error) error
}

// Datastore is the SQL implementation of the record interfaces of package
// storage, shared by every engine.
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	dialect          Dialect
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
}

var (
	_ storage.RecordReader  = (*Datastore)(nil)
	_ storage.RosterWriter  = (*Datastore)(nil)
	_ storage.DatasetWriter = (*Datastore)(nil)
)

// Open connects to uri, applies the pool limits of cfg and waits with
// exponential backoff until the database answers.
func Open(uri string, dialect Dialect, cfg *Config) (*Datastore, error) {
	db, err := sql.Open(dialect.Driver, uri)
	if err != nil {
		return nil, fmt.Errorf("initialize %s connection: %w", dialect.Name, err)
	}

	if cfg.MaxOpenConns != 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxIdleTime != 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if cfg.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.ConnTimeout
	attempt := 1
	err = backoff.Retry(func() error {
		err := db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for database", zap.String("engine", dialect.Name), zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize %s connection: %w", dialect.Name, err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, "affinity")
		if err := prometheus.Register(collector); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	if dialect.HandleError == nil {
		dialect.HandleError = HandleSQLError
	}
	if dialect.Retry == nil {
		dialect.Retry = func(fn func() error) error { return fn() }
	}
	if dialect.Placeholder == nil {
		dialect.Placeholder = sq.Question
	}

	return &Datastore{
		stbl:             sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder).RunWith(db),
		db:               db,
		dialect:          dialect,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
	}, nil
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("sql error: %w", err)
}

func (s *Datastore) startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, s.dialect.Name+"."+name)
}

// DB exposes the underlying pool.
func (s *Datastore) DB() *sql.DB {
	return s.db
}

// Close see [storage.RecordReader].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// ReadEntities see [storage.RecordReader].ReadEntities. Characters are
// returned in the order they were written; only owned ones when any is flagged.
func (s *Datastore) ReadEntities(ctx context.Context) ([]types.Entity, error) {
	ctx, span := s.startTrace(ctx, "ReadEntities")
	defer span.End()

	var owned int
	err := s.stbl.
		Select("COUNT(*)").
		From(entityTable).
		Where(sq.Eq{"owned": true}).
		QueryRowContext(ctx).
		Scan(&owned)
	if err != nil {
		return nil, s.dialect.HandleError(err)
	}

	sb := s.stbl.
		Select("id", "name").
		From(entityTable).
		OrderBy("seq", "id")
	if owned > 0 {
		sb = sb.Where(sq.Eq{"owned": true})
	}

	rows, err := sb.QueryContext(ctx)
	if err != nil {
		return nil, s.dialect.HandleError(err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		var e types.Entity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, s.dialect.HandleError(err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.HandleError(err)
	}
	return entities, nil
}

// ReadRelationRules see [storage.RecordReader].ReadRelationRules.
func (s *Datastore) ReadRelationRules(ctx context.Context) ([]types.RelationRule, error) {
	ctx, span := s.startTrace(ctx, "ReadRelationRules")
	defer span.End()

	rows, err := s.stbl.
		Select("relation_type", "points").
		From(relationRuleTable).
		OrderBy("seq").
		QueryContext(ctx)
	if err != nil {
		return nil, s.dialect.HandleError(err)
	}
	defer rows.Close()

	var rules []types.RelationRule
	for rows.Next() {
		var r types.RelationRule
		if err := rows.Scan(&r.RelationType, &r.Points); err != nil {
			return nil, s.dialect.HandleError(err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.HandleError(err)
	}
	return rules, nil
}

// ReadRelationGroups see [storage.RecordReader].ReadRelationGroups.
func (s *Datastore) ReadRelationGroups(ctx context.Context) ([]types.RelationGroup, error) {
	ctx, span := s.startTrace(ctx, "ReadRelationGroups")
	defer span.End()

	rows, err := s.stbl.
		Select("relation_type", "entity_id").
		From(relationGroupTable).
		OrderBy("relation_type", "entity_id").
		QueryContext(ctx)
	if err != nil {
		return nil, s.dialect.HandleError(err)
	}
	defer rows.Close()

	var groups []types.RelationGroup
	for rows.Next() {
		var g types.RelationGroup
		if err := rows.Scan(&g.RelationType, &g.EntityID); err != nil {
			return nil, s.dialect.HandleError(err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.HandleError(err)
	}
	return groups, nil
}

// SetOwned see [storage.RosterWriter].SetOwned. Ids without a stored
// character are logged and ignored.
func (s *Datastore) SetOwned(ctx context.Context, ids []types.EntityID) error {
	ctx, span := s.startTrace(ctx, "SetOwned")
	defer span.End()

	return s.dialect.Retry(func() error {
		return s.inTx(ctx, func(stbl sq.StatementBuilderType) error {
			_, err := stbl.Update(entityTable).Set("owned", false).ExecContext(ctx)
			if err != nil {
				return s.dialect.HandleError(err)
			}
			if len(ids) == 0 {
				return nil
			}

			res, err := stbl.Update(entityTable).
				Set("owned", true).
				Where(sq.Eq{"id": entityIDArgs(ids)}).
				ExecContext(ctx)
			if err != nil {
				return s.dialect.HandleError(err)
			}
			if n, err := res.RowsAffected(); err == nil && int(n) < len(ids) {
				s.logger.WarnWithContext(ctx, "roster names characters that are not stored",
					zap.Int("requested", len(ids)),
					zap.Int64("matched", n))
			}
			return nil
		})
	})
}

// WriteDataset see [storage.DatasetWriter].WriteDataset. Every record is
// replaced in one transaction; owned flags survive for ids still present.
func (s *Datastore) WriteDataset(ctx context.Context, d *storage.Dataset) error {
	ctx, span := s.startTrace(ctx, "WriteDataset")
	defer span.End()

	return s.dialect.Retry(func() error {
		return s.inTx(ctx, func(stbl sq.StatementBuilderType) error {
			owned, err := readOwned(ctx, stbl)
			if err != nil {
				return s.dialect.HandleError(err)
			}

			for _, table := range []string{relationGroupTable, relationRuleTable, entityTable} {
				if _, err := stbl.Delete(table).ExecContext(ctx); err != nil {
					return s.dialect.HandleError(err)
				}
			}

			err = insertBatches(ctx, len(d.Entities), func(lo, hi int) sq.InsertBuilder {
				ib := stbl.Insert(entityTable).Columns("seq", "id", "name", "owned")
				for i, e := range d.Entities[lo:hi] {
					_, isOwned := owned[e.ID]
					ib = ib.Values(lo+i, int64(e.ID), e.Name, isOwned)
				}
				return ib
			})
			if err != nil {
				return s.dialect.HandleError(err)
			}

			err = insertBatches(ctx, len(d.Rules), func(lo, hi int) sq.InsertBuilder {
				ib := stbl.Insert(relationRuleTable).Columns("seq", "relation_type", "points")
				for i, r := range d.Rules[lo:hi] {
					ib = ib.Values(lo+i, string(r.RelationType), r.Points)
				}
				return ib
			})
			if err != nil {
				return s.dialect.HandleError(err)
			}

			groups := storage.DedupeGroups(d.Groups)
			err = insertBatches(ctx, len(groups), func(lo, hi int) sq.InsertBuilder {
				ib := stbl.Insert(relationGroupTable).Columns("relation_type", "entity_id")
				for _, g := range groups[lo:hi] {
					ib = ib.Values(string(g.RelationType), int64(g.EntityID))
				}
				return ib
			})
			if err != nil {
				return s.dialect.HandleError(err)
			}

			s.logger.InfoWithContext(ctx, "dataset written",
				zap.String("engine", s.dialect.Name),
				zap.Int("characters", len(d.Entities)),
				zap.Int("rules", len(d.Rules)),
				zap.Int("groups", len(groups)))
			return nil
		})
	})
}

func (s *Datastore) inTx(ctx context.Context, fn func(sq.StatementBuilderType) error) error {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.dialect.HandleError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	if err := fn(s.stbl.RunWith(txn)); err != nil {
		return err
	}

	if err := txn.Commit(); err != nil {
		return s.dialect.HandleError(err)
	}
	return nil
}

func readOwned(ctx context.Context, stbl sq.StatementBuilderType) (map[types.EntityID]struct{}, error) {
	rows, err := stbl.
		Select("id").
		From(entityTable).
		Where(sq.Eq{"owned": true}).
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[types.EntityID]struct{})
	for rows.Next() {
		var id types.EntityID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = struct{}{}
	}
	return owned, rows.Err()
}

func insertBatches(ctx context.Context, n int, build func(lo, hi int) sq.InsertBuilder) error {
	for lo := 0; lo < n; lo += insertBatchSize {
		hi := min(lo+insertBatchSize, n)
		if _, err := build(lo, hi).ExecContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func entityIDArgs(ids []types.EntityID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
