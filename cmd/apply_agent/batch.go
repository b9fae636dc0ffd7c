package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/observability"
	"github.com/jonathan/job-applier/internal/pipeline"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Apply to every job in a jobs file",
	Long: `Applies to every job listed in a JSON jobs file. Jobs are grouped by board and each board
gets one browser session; boards run concurrently up to --concurrency. Jobs already recorded
as applied are skipped.`,
	RunE: runBatchCmd,
}

var (
	batchFlags       runFlags
	batchJobs        string
	batchConcurrency int
	batchForce       bool
)

func init() {
	batchFlags.register(batchCommand)
	batchCommand.Flags().StringVarP(&batchJobs, "jobs", "j", "", "Path to jobs JSON file")
	batchCommand.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Boards processed at once")
	batchCommand.Flags().BoolVar(&batchForce, "force", false, "Re-run jobs already recorded as done")

	_ = batchCommand.MarkFlagRequired("jobs")
	rootCmd.AddCommand(batchCommand)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := batchFlags.load(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = batchConcurrency
	}

	jobs, err := pipeline.LoadJobs(batchJobs)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("jobs file %s lists no jobs", batchJobs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	eng, err := newEngine(ctx, cfg, batchFlags.operatorMode, logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	rec, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()
	sink, err := openEvidence(cfg)
	if err != nil {
		return err
	}

	out, err := pipeline.RunBatch(ctx, jobs, pipeline.BatchOptions{
		Registry:    eng.registry,
		NewSession:  eng.sessions,
		Store:       rec,
		Evidence:    sink,
		Concurrency: cfg.Concurrency,
		Force:       batchForce,
		OnProgress:  progressLogger(logger),
		Logger:      logger,
	})
	if out != nil {
		observability.NewPrinter(cmd.OutOrStdout()).PrintBatch(out)
	}
	return err
}
