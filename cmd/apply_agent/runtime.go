package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-applier/internal/answer"
	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/config"
	"github.com/jonathan/job-applier/internal/coverletter"
	"github.com/jonathan/job-applier/internal/db"
	"github.com/jonathan/job-applier/internal/evidence"
	"github.com/jonathan/job-applier/internal/llm"
	"github.com/jonathan/job-applier/internal/operator"
	"github.com/jonathan/job-applier/internal/pipeline"
	"github.com/jonathan/job-applier/internal/store"
	"github.com/jonathan/job-applier/internal/types"
	"github.com/jonathan/job-applier/internal/wizard"
)

// runFlags are the flags shared by commands that drive a browser.
type runFlags struct {
	configPath   string
	provider     string
	model        string
	apiKey       string
	resumes      []string
	variant      string
	threshold    float64
	maxAttempts  int
	boardsFile   string
	databaseURL  string
	sqlitePath   string
	evidenceDir  string
	s3Bucket     string
	s3Region     string
	headless     bool
	remoteURL    string
	userDataDir  string
	operatorMode string
	operatorAddr string
	verbose      bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().StringVar(&f.provider, "provider", "", "Inference provider: gemini or openai")
	cmd.Flags().StringVar(&f.model, "model", "", "Model used for every request (optional, provider default otherwise)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (optional, defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	cmd.Flags().StringSliceVar(&f.resumes, "resume", nil, "Resume text file per variant, as variant=path (repeatable)")
	cmd.Flags().StringVar(&f.variant, "default-variant", "", "Resume variant used when a job's tech stack has none")
	cmd.Flags().Float64Var(&f.threshold, "cover-letter-threshold", 0, "Job score a cover letter requires (strictly above)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "Inference attempts per screening question")
	cmd.Flags().StringVar(&f.boardsFile, "boards-file", "", "YAML board tables layered over the built-in boards")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite", "", "SQLite database used when no PostgreSQL URL is set")
	cmd.Flags().StringVar(&f.evidenceDir, "evidence-dir", "", "Directory for failure screenshots")
	cmd.Flags().StringVar(&f.s3Bucket, "s3-bucket", "", "S3 bucket for failure screenshots")
	cmd.Flags().StringVar(&f.s3Region, "s3-region", "", "Region of --s3-bucket")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "Run Chrome headless (CAPTCHAs then need the HTTP operator)")
	cmd.Flags().StringVar(&f.remoteURL, "remote-url", "", "Attach to a running Chrome's DevTools websocket")
	cmd.Flags().StringVar(&f.userDataDir, "user-data-dir", "", "Chrome profile directory, keeps sign-in between runs")
	cmd.Flags().StringVar(&f.operatorMode, "operator", "terminal", "Operator channel: terminal or http")
	cmd.Flags().StringVar(&f.operatorAddr, "operator-addr", "", "Listen address of the HTTP operator channel")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

// load merges the config file, explicitly set flags and defaults.
func (f *runFlags) load(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if flags.Changed("resume") {
		resumes, err := parseResumeFlags(f.resumes)
		if err != nil {
			return cfg, err
		}
		cfg.Resumes = resumes
	}
	if flags.Changed("default-variant") {
		cfg.DefaultVariant = f.variant
	}
	if flags.Changed("cover-letter-threshold") {
		cfg.CoverLetterThreshold = f.threshold
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempts
	}
	if flags.Changed("boards-file") {
		cfg.BoardsFile = f.boardsFile
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("sqlite") {
		cfg.SQLitePath = f.sqlitePath
	}
	if flags.Changed("evidence-dir") {
		cfg.EvidenceDir = f.evidenceDir
	}
	if flags.Changed("s3-bucket") {
		cfg.S3Bucket = f.s3Bucket
	}
	if flags.Changed("s3-region") {
		cfg.S3Region = f.s3Region
	}
	if flags.Changed("headless") {
		cfg.Headless = f.headless
	}
	if flags.Changed("remote-url") {
		cfg.RemoteURL = f.remoteURL
	}
	if flags.Changed("user-data-dir") {
		cfg.UserDataDir = f.userDataDir
	}
	if flags.Changed("operator-addr") {
		cfg.OperatorAddr = f.operatorAddr
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseResumeFlags(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		variant, path, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(variant) == "" || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("--resume must be variant=path, got %q", v)
		}
		out[strings.ToLower(strings.TrimSpace(variant))] = strings.TrimSpace(path)
	}
	return out, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore prefers PostgreSQL when a URL is configured, else SQLite.
func openStore(ctx context.Context, cfg config.Config) (store.Recorder, error) {
	if url := cfg.ResolveDatabaseURL(); url != "" {
		database, err := db.Connect(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return database, nil
	}
	if cfg.SQLitePath == "" {
		return store.NopStore{}, nil
	}
	return store.NewSQLiteStore(cfg.SQLitePath)
}

// openEvidence returns nil when no screenshot destination is configured.
func openEvidence(cfg config.Config) (evidence.Sink, error) {
	switch {
	case cfg.S3Bucket != "":
		return evidence.NewS3Sink(cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	case cfg.EvidenceDir != "":
		return evidence.DirSink{Dir: cfg.EvidenceDir}, nil
	default:
		return nil, nil
	}
}

// newOperator returns the operator channel. The HTTP channel serves until
// ctx is done.
func newOperator(ctx context.Context, mode string, cfg config.Config, logger *slog.Logger) (operator.Operator, error) {
	switch mode {
	case "", "terminal":
		return operator.NewTerminal(os.Stdin, os.Stderr), nil
	case "http":
		op := operator.NewHTTP(logger)
		go func() {
			if err := op.ListenAndServe(ctx, cfg.OperatorAddr); err != nil {
				logger.Error("operator API stopped", slog.String("error", err.Error()))
			}
		}()
		return op, nil
	default:
		return nil, fmt.Errorf("unknown operator channel %q (want terminal or http)", mode)
	}
}

// engine holds the collaborators every wizard session shares.
type engine struct {
	cfg      config.Config
	registry *boards.Registry
	resumes  *types.ResumeLibrary
	resolver *answer.Resolver
	letters  coverletter.Generator
	operator operator.Operator
	logger   *slog.Logger
	client   llm.Client
}

func newEngine(ctx context.Context, cfg config.Config, mode string, logger *slog.Logger) (*engine, error) {
	registry, err := boards.Load(cfg.BoardsFile)
	if err != nil {
		return nil, err
	}
	resumes, err := cfg.LoadResumes()
	if err != nil {
		return nil, err
	}

	apiKey := cfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("an API key is required: set --api-key, api_key, GEMINI_API_KEY or OPENAI_API_KEY")
	}
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	llmCfg := llm.ConfigFor(provider)
	if cfg.Model != "" {
		llmCfg = llmCfg.WithAllModels(cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	op, err := newOperator(ctx, mode, cfg, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &engine{
		cfg:      cfg,
		registry: registry,
		resumes:  resumes,
		resolver: answer.New(llm.NewChatService(client, llm.TierLite, logger), answer.Options{
			MaxAttempts: cfg.MaxAttempts,
			Logger:      logger,
		}),
		letters:  coverletter.New(llm.NewChatService(client, llm.TierAdvanced, logger), 0, logger),
		operator: op,
		logger:   logger,
		client:   client,
	}, nil
}

func (e *engine) Close() error {
	return e.client.Close()
}

// sessions opens one Chrome tab and wizard per board.
func (e *engine) sessions(ctx context.Context, board *boards.Board) (pipeline.Session, error) {
	opts := browser.DefaultSessionOptions()
	opts.Headless = e.cfg.Headless
	opts.RemoteURL = e.cfg.RemoteURL
	opts.UserDataDir = e.cfg.UserDataDir
	opts.HumanTyping = true
	opts.Logger = e.logger

	driver, err := browser.NewChromeDriver(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	w, err := wizard.New(driver, board, e.resolver, e.letters, e.operator, wizard.Options{
		Resumes:              e.resumes,
		ResumeIDs:            e.cfg.ResumeIDsFor(board.Name),
		CoverLetterThreshold: e.cfg.CoverLetterThreshold,
		Logger:               e.logger,
	})
	if err != nil {
		_ = driver.Close()
		return nil, err
	}
	return w, nil
}

// progressLogger reports batch progress through the logger.
func progressLogger(logger *slog.Logger) pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		logger.Info(e.Message,
			slog.String("step", e.Step),
			slog.String("board", e.Board),
			slog.String("job_id", e.JobID))
	}
}
