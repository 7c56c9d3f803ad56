package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/umafamily/affinity/cmd"
	"github.com/umafamily/affinity/cmd/importer"
	"github.com/umafamily/affinity/cmd/migrate"
	"github.com/umafamily/affinity/cmd/roster"
	"github.com/umafamily/affinity/cmd/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCommand()

	searchCmd := search.NewSearchCommand()
	rootCmd.AddCommand(searchCmd)

	migrateCmd := migrate.NewMigrateCommand()
	rootCmd.AddCommand(migrateCmd)

	importCmd := importer.NewImportCommand()
	rootCmd.AddCommand(importCmd)

	rosterCmd := roster.NewRosterCommand()
	rootCmd.AddCommand(rosterCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
