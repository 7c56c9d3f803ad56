package migrate

import (
	"github.com/spf13/cobra"

	"github.com/umafamily/affinity/cmd/util"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.BindDatastoreFlags(flags)
	util.BindLogFlags(flags)
	util.MustBindPFlag(versionFlag, flags.Lookup(versionFlag))
}
