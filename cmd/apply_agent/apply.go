package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/observability"
	"github.com/jonathan/job-applier/internal/pipeline"
	"github.com/jonathan/job-applier/internal/types"
)

var applyCommand = &cobra.Command{
	Use:   "apply [listing-url]",
	Short: "Apply to one job",
	Long: `Applies to a single listing, given either its URL or --board and --job-id.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApplyCmd,
}

var (
	applyFlags       runFlags
	applyBoard       string
	applyJobID       string
	applyTitle       string
	applyCompany     string
	applyTechStack   string
	applyScore       float64
	applyDescription string
	applyForce       bool
)

func init() {
	applyFlags.register(applyCommand)
	applyCommand.Flags().StringVar(&applyBoard, "board", "", "Board name (detected from the URL when omitted)")
	applyCommand.Flags().StringVar(&applyJobID, "job-id", "", "Board job id (taken from the URL when omitted)")
	applyCommand.Flags().StringVar(&applyTitle, "title", "", "Job title")
	applyCommand.Flags().StringVar(&applyCompany, "company", "", "Company name")
	applyCommand.Flags().StringVar(&applyTechStack, "tech-stack", "", "Tech stack, used to pick the resume variant")
	applyCommand.Flags().Float64Var(&applyScore, "score", 0, "Match score 0-100; above the threshold a cover letter is written")
	applyCommand.Flags().StringVar(&applyDescription, "description", "", "Path to a job description text file")
	applyCommand.Flags().BoolVar(&applyForce, "force", false, "Apply even if the job was already recorded as done")

	rootCmd.AddCommand(applyCommand)
}

// buildJob resolves the job from a listing URL and/or explicit flags.
func buildJob(registry *boards.Registry, listingURL, board, jobID string) (types.Job, error) {
	job := types.Job{ID: jobID, Board: board, URL: listingURL}
	if listingURL != "" && board == "" {
		b, ok := registry.Detect(listingURL)
		if !ok {
			return job, fmt.Errorf("no board serves %s; pass --board", listingURL)
		}
		job.Board = b.Name
	}
	if job.Board == "" {
		return job, fmt.Errorf("either a listing URL or --board must be provided")
	}
	b, err := registry.Get(job.Board)
	if err != nil {
		return job, err
	}
	if job.ID == "" && listingURL != "" {
		if id, ok := b.JobIDFromURL(listingURL); ok {
			job.ID = id
		}
	}
	if job.ID == "" {
		return job, fmt.Errorf("could not determine the job id; pass --job-id")
	}
	if _, err := b.JobURL(job); err != nil {
		return job, err
	}
	return job, nil
}

func runApplyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := applyFlags.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	listingURL := ""
	if len(args) == 1 {
		listingURL = args[0]
	}
	registry, err := boards.Load(cfg.BoardsFile)
	if err != nil {
		return err
	}
	job, err := buildJob(registry, listingURL, applyBoard, applyJobID)
	if err != nil {
		return err
	}
	job.Title = applyTitle
	job.Company = applyCompany
	job.TechStack = applyTechStack
	job.Score = applyScore
	if applyDescription != "" {
		data, err := os.ReadFile(applyDescription)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		job.Description = strings.TrimSpace(string(data))
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	eng, err := newEngine(ctx, cfg, applyFlags.operatorMode, logger)
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

	out, err := pipeline.RunBatch(ctx, []types.Job{job}, pipeline.BatchOptions{
		Registry:    eng.registry,
		NewSession:  eng.sessions,
		Store:       rec,
		Evidence:    sink,
		Concurrency: 1,
		Force:       applyForce,
		Logger:      logger,
	})
	if out != nil {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		switch {
		case len(out.Results) == 1:
			printer.PrintResult(out.Results[0].Result)
		case len(out.Skipped) == 1:
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Job %s on %s is already done; use --force to apply again\n", job.ID, job.Board)
		}
	}
	return err
}
