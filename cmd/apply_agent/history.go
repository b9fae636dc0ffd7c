package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/config"
	"github.com/jonathan/job-applier/internal/observability"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show recorded applications, newest first",
	RunE:  runHistoryCmd,
}

var (
	historyConfigPath  string
	historyDatabaseURL string
	historySQLitePath  string
	historyLimit       int
	historyJSON        bool
)

func init() {
	historyCommand.Flags().StringVar(&historyConfigPath, "config", "", "Path to config.json file")
	historyCommand.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	historyCommand.Flags().StringVar(&historySQLitePath, "sqlite", "", "SQLite database used when no PostgreSQL URL is set")
	historyCommand.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of records to show")
	historyCommand.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if historyConfigPath != "" {
		loaded, err := config.LoadConfig(historyConfigPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = historyDatabaseURL
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.SQLitePath = historySQLitePath
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	ctx := context.Background()
	rec, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	records, err := rec.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(records)
	return nil
}
