package search

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/umafamily/affinity/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		util.MustBindPFlag("search.focal", flags.Lookup("focal"))
		util.MustBindEnv("search.focal", "AFFINITY_SEARCH_FOCAL")

		util.MustBindPFlag("search.workers", flags.Lookup("workers"))
		util.MustBindEnv("search.workers", "AFFINITY_SEARCH_WORKERS")

		util.MustBindPFlag("search.topK", flags.Lookup("top-k"))
		util.MustBindEnv("search.topK", "AFFINITY_SEARCH_TOP_K", "AFFINITY_SEARCH_TOPK")

		util.MustBindPFlag("search.retainedPairs", flags.Lookup("retained-pairs"))
		util.MustBindEnv("search.retainedPairs", "AFFINITY_SEARCH_RETAINED_PAIRS", "AFFINITY_SEARCH_RETAINEDPAIRS")

		util.MustBindPFlag("output.format", flags.Lookup("output"))
		util.MustBindEnv("output.format", "AFFINITY_OUTPUT_FORMAT")

		util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
		util.MustBindEnv("metrics.enabled", "AFFINITY_METRICS_ENABLED")

		util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
		util.MustBindEnv("metrics.addr", "AFFINITY_METRICS_ADDR")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "AFFINITY_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "AFFINITY_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "AFFINITY_TRACE_SAMPLE_RATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "AFFINITY_TRACE_SERVICE_NAME")

		util.BindDatastoreFlags(flags)
		util.BindLogFlags(flags)
	}
}
