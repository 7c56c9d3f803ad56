// Package search contains the command that finds the best families for a
// main character.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/render"
	"github.com/umafamily/affinity/pkg/search"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/telemetry"
	"github.com/umafamily/affinity/pkg/types"
)

func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the highest scoring families for a main character",
		Long: `Find the highest scoring families for a main character.

The parent pairs are ranked against the main character first. For the best
pairs every choice of grandparents is scored and the top families are printed.`,
		RunE: runSearch,
		Args: cobra.NoArgs,
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.Int64("focal", 0, "the id of the main character")
	flags.Int("workers", defaultConfig.Search.Workers, "the number of search units processed concurrently")
	flags.Int("top-k", defaultConfig.Search.TopK, "the number of families to print")
	flags.Int("retained-pairs", defaultConfig.Search.RetainedPairs, "the number of best parent pairs searched exhaustively")
	flags.String("output", defaultConfig.Output.Format, "the output format, one of 'table', 'json' or 'yaml'")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable serving prometheus metrics while the search runs")
	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")
	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")
	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none")
	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces")

	util.AddDatastoreFlags(flags)
	util.AddLogFlags(flags)

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindRunFlagsFunc(flags)

	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}
	if err := cfg.VerifySearch(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	return Run(cmd.Context(), cmd, cfg, log)
}

// Run executes one search with cfg and writes the result to the command output.
func Run(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Trace.Enabled {
		log.Info(fmt.Sprintf("🕵 tracing enabled: sampling ratio is %v and sending traces to '%s'", cfg.Trace.SampleRatio, cfg.Trace.OTLP.Endpoint))
		shutdown, err := telemetry.NewTracerProvider(
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	} else {
		telemetry.UseNoopTracerProvider()
	}

	if cfg.Metrics.Enabled {
		metrics, err := telemetry.StartMetricsServer(cfg.Metrics.Addr, log)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	ds, err := util.OpenDatastore(cfg.Datastore, log)
	if err != nil {
		return err
	}
	defer ds.Close()

	log.Info("loading records", zap.String("engine", cfg.Datastore.Engine))
	dataset, err := storage.Load(ctx, ds)
	if err != nil {
		return err
	}
	log.Info("loaded records",
		zap.Uint64("fingerprint", dataset.Fingerprint()),
		zap.Int("characters", len(dataset.Entities)),
		zap.Int("relation_rules", len(dataset.Rules)),
		zap.Int("relation_groups", len(dataset.Groups)),
	)

	index, err := relation.Build(dataset.Groups, relation.WithKnownRelationTypes(relation.RelationTypesOf(dataset.Rules)...))
	if err != nil {
		return err
	}

	resolver := render.NewResolver(dataset.Entities, log)
	focal := types.EntityID(cfg.Search.Focal)
	log.Info("using main character", zap.String("name", resolver.Label(focal)))

	searcher := search.New(
		search.WithWorkers(cfg.Search.Workers),
		search.WithTopK(cfg.Search.TopK),
		search.WithRetainedPairs(cfg.Search.RetainedPairs),
		search.WithLogger(log),
	)
	results, err := searcher.Search(ctx, search.Input{
		Entities: dataset.Entities,
		Rules:    dataset.Rules,
		Index:    index,
		Focal:    focal,
	})
	if err != nil {
		return err
	}

	return render.Write(cmd.OutOrStdout(), format, resolver, results)
}
