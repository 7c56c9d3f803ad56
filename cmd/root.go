// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with AFFINITY, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("AFFINITY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/affinity", "$HOME/.affinity", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	return &cobra.Command{
		Use:   "affinity",
		Short: "Find the highest scoring family for a main character",
		Long: `Find the highest scoring family for a main character.

affinity scores every choice of two parents and four grandparents against the
relation rules of the loaded characters and prints the best families found.`,
		SilenceUsage: true,
	}
}
