package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobrunner/granula/internal/app"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded downloads, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries (0 for all)")
	historyCmd.Flags().StringP("output", "o", "table", "output format (table, csv, json, yaml)")
	historyCmd.Flags().String("ledger-path", "./granula.db", "history database path")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Flags(), map[string]string{"ledger.path": "ledger-path"})
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	if !validFormat(format) {
		return fmt.Errorf("unknown output format %q", format)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	// Reading history does not depend on ledger.enabled.
	cfg.Ledger.Enabled = true

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer closeApp(a)

	entries, err := a.Ledger.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	return writeHistory(cmd.OutOrStdout(), format, entries)
}
