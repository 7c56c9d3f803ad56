// Package migrate contains the command to perform database migrations.
package migrate

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage/migrate"
)

const versionFlag = "version"

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations needed for the SQL datastores",
		Long:  `The migrate command is used to migrate the database schema of the sqlite, postgres and mysql datastores.`,
		RunE:  runMigration,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()

	util.AddDatastoreFlags(flags)
	util.AddLogFlags(flags)
	flags.Uint(versionFlag, 0, "the version to migrate to (if omitted the latest schema will be used)")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindRunFlags

	return cmd
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Verify(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	return migrate.RunMigrations(cmd.Context(), migrate.MigrationConfig{
		Engine:        cfg.Datastore.Engine,
		URI:           cfg.Datastore.URI,
		TargetVersion: viper.GetUint(versionFlag),
		Timeout:       cfg.Datastore.ConnTimeout,
		Logger:        log,
	})
}
