// Package roster contains the command that records which characters are owned.
package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/cmd/util"
	"github.com/umafamily/affinity/pkg/config"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/types"
)

const (
	idsFlag   = "ids"
	clearFlag = "clear"
)

func NewRosterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Set the owned characters",
		Long: `Set the owned characters of the configured datastore. When a roster is set the
search only considers owned characters; --clear removes the roster so every
available character is considered again.`,
		Example: "affinity roster --ids 1001,1002,1003",
		RunE:    runRoster,
		Args:    cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.Int64Slice(idsFlag, nil, "the ids of the owned characters")
	flags.Bool(clearFlag, false, "remove the owned roster")

	util.AddDatastoreFlags(flags)
	util.AddLogFlags(flags)

	cmd.MarkFlagsMutuallyExclusive(idsFlag, clearFlag)
	cmd.MarkFlagsOneRequired(idsFlag, clearFlag)

	cmd.PreRun = bindRunFlags

	return cmd
}

func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.BindDatastoreFlags(flags)
	util.BindLogFlags(flags)
}

func runRoster(cmd *cobra.Command, _ []string) error {
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

	raw, err := cmd.Flags().GetInt64Slice(idsFlag)
	if err != nil {
		return err
	}
	clearRoster, err := cmd.Flags().GetBool(clearFlag)
	if err != nil {
		return err
	}
	if len(raw) == 0 && !clearRoster {
		return errors.New("no owned characters given, use --clear to remove the roster")
	}

	ids := make([]types.EntityID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, types.EntityID(id))
	}

	if err := SetOwned(cmd.Context(), cfg.Datastore, ids, log); err != nil {
		return err
	}
	if clearRoster {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "owned roster cleared")
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "owned roster set to %d characters\n", len(ids))
	return err
}

// SetOwned replaces the owned roster of the datastore described by target.
// An empty ids clears it.
func SetOwned(ctx context.Context, target config.DatastoreConfig, ids []types.EntityID, log logger.Logger) error {
	ds, err := util.OpenDatastore(target, log)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.SetOwned(ctx, ids); err != nil {
		return fmt.Errorf("set owned roster: %w", err)
	}
	log.Info("owned roster updated", zap.String("engine", target.Engine), zap.Int("characters", len(ids)))
	return nil
}
