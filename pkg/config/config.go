// Package config contains all knobs and defaults used to configure a search
// run of affinity.
package config

import (
	"time"

	affinityerrors "github.com/umafamily/affinity/pkg/errors"
	"github.com/umafamily/affinity/pkg/render"
	"github.com/umafamily/affinity/pkg/search"
)

const (
	DefaultDatastoreEngine = "json"
	DefaultDatastoreURI    = "data"
	DefaultConnTimeout     = time.Minute
)

// Engines lists the supported datastore engines.
var Engines = []string{"json", "sqlite", "postgres", "mysql"}

// DatastoreConfig defines where the reference data is read from.
type DatastoreConfig struct {
	// Engine is the datastore engine to use (e.g. 'json', 'sqlite', 'postgres', 'mysql')
	Engine string

	// URI is a directory or http(s) base URL for 'json', a DSN otherwise.
	URI string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// ConnTimeout bounds how long to wait for a SQL database to come up.
	ConnTimeout time.Duration

	Metrics DatastoreMetricsConfig
}

type DatastoreMetricsConfig struct {
	// Enabled enables export of the database pool metrics.
	Enabled bool
}

// SearchConfig controls the family search.
type SearchConfig struct {
	// Focal is the id of the main character.
	Focal int64

	// Workers bounds the units processed concurrently. One runs sequentially.
	Workers int

	// TopK is the number of families kept in the final result.
	TopK int

	// RetainedPairs is the number of best parent pairs searched exhaustively.
	RetainedPairs int
}

type OutputConfig struct {
	Format string
}

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

// MetricConfig defines configurations for serving the prometheus metrics of a run.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
}

type Config struct {
	Datastore DatastoreConfig
	Search    SearchConfig
	Output    OutputConfig
	Log       LogConfig
	Metrics   MetricConfig
	Trace     TraceConfig
}

// Verify checks the settings shared by every command. A zero focal id is
// accepted here; VerifySearch rejects it.
func (cfg *Config) Verify() error {
	if !validEngine(cfg.Datastore.Engine) {
		return affinityerrors.Configurationf("config 'datastore.engine' must be one of %v", Engines)
	}

	if cfg.Datastore.URI == "" {
		return affinityerrors.Configurationf("config 'datastore.uri' must be set")
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return affinityerrors.Configurationf("config 'log.format' must be one of ['text', 'json']")
	}

	switch cfg.Log.Level {
	case "none", "debug", "info", "warn", "error":
	default:
		return affinityerrors.Configurationf("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error']")
	}

	if _, err := render.ParseFormat(cfg.Output.Format); err != nil {
		return affinityerrors.Configurationf("config 'output.format' must be one of ['table', 'json', 'yaml']")
	}

	if cfg.Search.Workers < 1 {
		return affinityerrors.Configurationf("config 'search.workers' must be at least 1")
	}

	if cfg.Search.TopK < 1 {
		return affinityerrors.Configurationf("config 'search.topK' must be at least 1")
	}

	if cfg.Search.RetainedPairs < 1 {
		return affinityerrors.Configurationf("config 'search.retainedPairs' must be at least 1")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return affinityerrors.Configurationf("config 'metrics.addr' must be set when metrics are enabled")
	}

	if cfg.Trace.Enabled {
		if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
			return affinityerrors.Configurationf("config 'trace.sampleRatio' must be between 0 and 1, got %v", cfg.Trace.SampleRatio)
		}
		if cfg.Trace.OTLP.Endpoint == "" {
			return affinityerrors.Configurationf("config 'trace.otlp.endpoint' must be set when tracing is enabled")
		}
	}

	return nil
}

// VerifySearch runs Verify and additionally requires a focal character.
func (cfg *Config) VerifySearch() error {
	if err := cfg.Verify(); err != nil {
		return err
	}
	if cfg.Search.Focal == 0 {
		return affinityerrors.Configurationf("config 'search.focal' must be set")
	}
	return nil
}

func validEngine(engine string) bool {
	for _, e := range Engines {
		if e == engine {
			return true
		}
	}
	return false
}

// DefaultConfig is the affinity default configuration.
func DefaultConfig() *Config {
	return &Config{
		Datastore: DatastoreConfig{
			Engine:       DefaultDatastoreEngine,
			URI:          DefaultDatastoreURI,
			MaxIdleConns: 10,
			MaxOpenConns: 30,
			ConnTimeout:  DefaultConnTimeout,
		},
		Search: SearchConfig{
			Workers:       search.DefaultWorkers(),
			TopK:          search.DefaultTopK,
			RetainedPairs: search.DefaultRetainedPairs,
		},
		Output: OutputConfig{
			Format: string(render.FormatTable),
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricConfig{
			Enabled: false,
			Addr:    "0.0.0.0:2112",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
			},
			SampleRatio: 0.2,
			ServiceName: "affinity",
		},
	}
}
