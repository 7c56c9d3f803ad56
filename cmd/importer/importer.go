// Package importer contains the command that copies the JSON records into a
// datastore.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/storage"
	"github.com/umafamily/affinity/pkg/storage/jsonfile"
)

const (
	fromFlag      = "from"
	skipOwnedFlag = "skip-owned"
)

func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the JSON records into a datastore",
		Long: `Import the characters, relation rules and relation groups of a JSON record
directory or http(s) base URL into the configured datastore. Existing records
are replaced. The owned roster of the source is applied too unless --skip-owned is set.`,
		RunE: runImport,
		Args: cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.String(fromFlag, "", "the JSON record directory or http(s) base URL to import")
	flags.Bool(skipOwnedFlag, false, "do not apply the owned roster of the source")

	util.AddDatastoreFlags(flags)
	util.AddLogFlags(flags)

	_ = cmd.MarkFlagRequired(fromFlag)

	cmd.PreRun = bindRunFlags

	return cmd
}

func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.MustBindPFlag("import.from", flags.Lookup(fromFlag))
	util.MustBindPFlag("import.skipOwned", flags.Lookup(skipOwnedFlag))
	util.BindDatastoreFlags(flags)
	util.BindLogFlags(flags)
}

func runImport(cmd *cobra.Command, _ []string) error {
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

	return Import(cmd.Context(), viper.GetString("import.from"), cfg.Datastore, !viper.GetBool("import.skipOwned"), log)
}

// Import loads every record found at from and writes it to the datastore
// described by target unless target already holds the same records. With withOwned the roster of from, if any, replaces
// the roster of target.
func Import(ctx context.Context, from string, target config.DatastoreConfig, withOwned bool, log logger.Logger) error {
	source, err := jsonfile.New(from, jsonfile.WithLogger(log), jsonfile.WithAvailableOnly())
	if err != nil {
		return err
	}
	defer source.Close()

	dataset, err := storage.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("load %s: %w", from, err)
	}

	ds, err := util.OpenDatastore(target, log)
	if err != nil {
		return err
	}
	defer ds.Close()

	fingerprint := dataset.Fingerprint()
	if current, err := storage.Load(ctx, ds); err == nil && current.Fingerprint() == fingerprint {
		log.Info("records unchanged, skipping write", zap.String("engine", target.Engine), zap.Uint64("fingerprint", fingerprint))
	} else {
		if err := ds.WriteDataset(ctx, dataset); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
		log.Info("imported records",
			zap.String("from", from),
			zap.String("engine", target.Engine),
			zap.Uint64("fingerprint", fingerprint),
			zap.Int("characters", len(dataset.Entities)),
			zap.Int("relation_rules", len(dataset.Rules)),
			zap.Int("relation_groups", len(dataset.Groups)),
		)
	}

	if !withOwned {
		return nil
	}

	owned, err := source.ReadOwned(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := ds.SetOwned(ctx, owned); err != nil {
		return fmt.Errorf("set owned roster: %w", err)
	}
	log.Info("imported owned roster", zap.Int("characters", len(owned)))
	return nil
}
