// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-applier/internal/types"
)

// Defaults applied by MergeWithDefaults.
const (
	DefaultProvider             = "gemini"
	DefaultCoverLetterThreshold = 70.0
	DefaultMaxAttempts          = 2
	DefaultConcurrency          = 2
	DefaultSQLitePath           = "applications.db"
	DefaultOperatorAddr         = "127.0.0.1:8765"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Inference
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`

	// Candidate
	Resumes        map[string]string            `json:"resumes,omitempty" validate:"dive,required"` // variant -> resume text file
	DefaultVariant string                       `json:"default_variant,omitempty"`
	ResumeIDs      map[string]map[string]string `json:"resume_ids,omitempty"` // board -> variant -> board resume id

	// Behavior
	CoverLetterThreshold float64 `json:"cover_letter_threshold,omitempty" validate:"gte=0,lte=100"`
	MaxAttempts          int     `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`
	Concurrency          int     `json:"concurrency,omitempty" validate:"gte=0,lte=16"`
	BoardsFile           string  `json:"boards_file,omitempty"`
	Verbose              bool    `json:"verbose,omitempty"`

	// Storage
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"`
	SQLitePath  string `json:"sqlite_path,omitempty"`
	EvidenceDir string `json:"evidence_dir,omitempty"`
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Region    string `json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Prefix    string `json:"s3_prefix,omitempty"`

	// Browser and operator
	Headless     bool   `json:"headless,omitempty"`
	RemoteURL    string `json:"remote_url,omitempty" validate:"omitempty,url"`
	UserDataDir  string `json:"user_data_dir,omitempty"`
	OperatorAddr string `json:"operator_addr,omitempty" validate:"omitempty,hostname_port"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Provider:             DefaultProvider,
		DefaultVariant:       types.DefaultVariant,
		CoverLetterThreshold: DefaultCoverLetterThreshold,
		MaxAttempts:          DefaultMaxAttempts,
		Concurrency:          DefaultConcurrency,
		SQLitePath:           DefaultSQLitePath,
		OperatorAddr:         DefaultOperatorAddr,
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.DefaultVariant != "" && len(c.Resumes) > 0 {
		if _, ok := c.Resumes[c.DefaultVariant]; !ok {
			return fmt.Errorf("config error: default_variant %q has no entry in resumes", c.DefaultVariant)
		}
	}

	// Validate file paths exist (if specified)
	for _, variant := range sortedKeys(c.Resumes) {
		if _, err := os.Stat(c.Resumes[variant]); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file for %q not found: %s", variant, c.Resumes[variant])
		}
	}
	if c.BoardsFile != "" {
		if _, err := os.Stat(c.BoardsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: boards file not found: %s", c.BoardsFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DefaultVariant == "" {
		result.DefaultVariant = defaults.DefaultVariant
	}
	if result.BoardsFile == "" {
		result.BoardsFile = defaults.BoardsFile
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.EvidenceDir == "" {
		result.EvidenceDir = defaults.EvidenceDir
	}
	if result.S3Bucket == "" {
		result.S3Bucket = defaults.S3Bucket
	}
	if result.S3Region == "" {
		result.S3Region = defaults.S3Region
	}
	if result.S3Prefix == "" {
		result.S3Prefix = defaults.S3Prefix
	}
	if result.RemoteURL == "" {
		result.RemoteURL = defaults.RemoteURL
	}
	if result.UserDataDir == "" {
		result.UserDataDir = defaults.UserDataDir
	}
	if result.OperatorAddr == "" {
		result.OperatorAddr = defaults.OperatorAddr
	}

	// Map fields: use default if unset
	if len(result.Resumes) == 0 {
		result.Resumes = defaults.Resumes
	}
	if len(result.ResumeIDs) == 0 {
		result.ResumeIDs = defaults.ResumeIDs
	}

	// Numeric fields: use default if zero
	if result.CoverLetterThreshold == 0 {
		result.CoverLetterThreshold = defaults.CoverLetterThreshold
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ResolveAPIKey returns the configured key, else the provider's environment
// variable.
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if strings.EqualFold(c.Provider, "openai") {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv("GEMINI_API_KEY")
}

// ResolveDatabaseURL returns the configured URL, else DATABASE_URL.
func (c *Config) ResolveDatabaseURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return os.Getenv("DATABASE_URL")
}

// LoadResumes reads every resume file into a library.
func (c *Config) LoadResumes() (*types.ResumeLibrary, error) {
	if len(c.Resumes) == 0 {
		return nil, fmt.Errorf("no resumes configured")
	}
	texts := make(map[string]string, len(c.Resumes))
	for _, variant := range sortedKeys(c.Resumes) {
		data, err := os.ReadFile(c.Resumes[variant])
		if err != nil {
			return nil, fmt.Errorf("failed to read resume %q: %w", variant, err)
		}
		texts[variant] = string(data)
	}
	return types.NewResumeLibrary(texts, c.DefaultVariant), nil
}

// ResumeIDsFor returns the board's resume ids keyed by variant.
func (c *Config) ResumeIDsFor(board string) map[string]string {
	return c.ResumeIDs[strings.ToLower(board)]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
