// Package boards holds per-job-board capability and selector tables. Board
// quirks are data, not code: the wizard and extractor are parameterized by a
// Board rather than subclassed per board.
package boards

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-applier/internal/types"
)

//go:embed boards.yaml
var defaultTables []byte

const jobIDPlaceholder = "{job_id}"

// Selectors are the CSS selectors for each wizard capability. Empty means the
// board has no such step.
type Selectors struct {
	Apply              string `yaml:"apply"`
	ResumeSelect       string `yaml:"resume_select"`
	ResumeCard         string `yaml:"resume_card"`
	CoverLetterAdd     string `yaml:"cover_letter_add"`
	CoverLetterDecline string `yaml:"cover_letter_decline"`
	CoverLetterText    string `yaml:"cover_letter_text"`
	Continue           string `yaml:"continue"`
	ReviewConsent      string `yaml:"review_consent"`
	Submit             string `yaml:"submit"`
}

// Signals are the indicators used to classify page state.
type Signals struct {
	ScreeningURL          []string `yaml:"screening_url"`
	ReviewURL             []string `yaml:"review_url"`
	SuccessURL            []string `yaml:"success_url"`
	SuccessMarkers        []string `yaml:"success_markers"`
	SuccessText           []string `yaml:"success_text"`
	AlreadyAppliedMarkers []string `yaml:"already_applied_markers"`
	AlreadyAppliedText    []string `yaml:"already_applied_text"`
	InvalidListingText    []string `yaml:"invalid_listing_text"`
}

// Timeouts bound the polling waits of each step.
type Timeouts struct {
	Apply     time.Duration `yaml:"apply"`
	Element   time.Duration `yaml:"element"`
	Screening time.Duration `yaml:"screening"`
}

// Board is one job board's table.
type Board struct {
	Name               string    `yaml:"name" validate:"required"`
	Hosts              []string  `yaml:"hosts"`
	LoginURL           string    `yaml:"login_url" validate:"omitempty,url"`
	SignedInMarkers    []string  `yaml:"signed_in_markers"`
	JobURLTemplate     string    `yaml:"job_url"`
	JobIDPattern       string    `yaml:"job_id_pattern"`
	FormScope          string    `yaml:"form_scope"`
	QuestionStrategies []string  `yaml:"question_strategies"`
	LabelStrategies    []string  `yaml:"label_strategies"`
	Selectors          Selectors `yaml:"selectors"`
	Signals            Signals   `yaml:"signals"`
	Timeouts           Timeouts  `yaml:"timeouts"`

	// Shared across boards, filled from the registry.
	CaptchaMarkers []string `yaml:"-"`
	ValidationText []string `yaml:"-"`

	jobID *regexp.Regexp
}

// RequiresLogin reports whether the board has an authentication step.
func (b *Board) RequiresLogin() bool {
	return b.LoginURL != ""
}

// JobURL builds the apply entry point for a job. A job carrying an explicit
// URL uses it directly.
func (b *Board) JobURL(job types.Job) (string, error) {
	if job.URL != "" {
		return job.URL, nil
	}
	if b.JobURLTemplate == "" {
		return "", fmt.Errorf("board %s needs a job URL for job %s", b.Name, job.ID)
	}
	if job.ID == "" {
		return "", fmt.Errorf("board %s needs a job id", b.Name)
	}
	return strings.ReplaceAll(b.JobURLTemplate, jobIDPlaceholder, url.PathEscape(job.ID)), nil
}

// JobIDFromURL extracts the board's job id from a listing URL.
func (b *Board) JobIDFromURL(rawURL string) (string, bool) {
	if b.jobID == nil {
		return "", false
	}
	m := b.jobID.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// Matches reports whether the board serves rawURL.
func (b *Board) Matches(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range b.Hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Registry is a set of boards keyed by name.
type Registry struct {
	boards         map[string]*Board
	captchaMarkers []string
	validationText []string
}

type tableFile struct {
	Boards         []*Board `yaml:"boards"`
	CaptchaMarkers []string `yaml:"captcha_markers"`
	ValidationText []string `yaml:"validation_text"`
}

// Default returns the registry built from the embedded tables.
func Default() (*Registry, error) {
	return Parse(defaultTables)
}

// Parse builds a registry from YAML tables.
func Parse(data []byte) (*Registry, error) {
	r := &Registry{boards: map[string]*Board{}}
	if err := r.merge(data); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the embedded registry with the boards in path layered on top.
// Boards in the file replace embedded boards of the same name. An empty path
// returns the embedded registry.
func Load(path string) (*Registry, error) {
	r, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boards file: %w", err)
	}
	if err := r.merge(data); err != nil {
		return nil, fmt.Errorf("invalid boards file %s: %w", path, err)
	}
	return r, nil
}

func (r *Registry) merge(data []byte) error {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse board tables: %w", err)
	}

	if len(file.CaptchaMarkers) > 0 {
		r.captchaMarkers = file.CaptchaMarkers
	}
	if len(file.ValidationText) > 0 {
		r.validationText = file.ValidationText
	}

	validate := validator.New()
	for _, b := range file.Boards {
		if err := validate.Struct(b); err != nil {
			return fmt.Errorf("board %q: %w", b.Name, err)
		}
		if b.JobIDPattern != "" {
			re, err := regexp.Compile(b.JobIDPattern)
			if err != nil {
				return fmt.Errorf("board %s: invalid job_id_pattern: %w", b.Name, err)
			}
			b.jobID = re
		}
		applyDefaults(b)
		r.boards[strings.ToLower(b.Name)] = b
	}

	for _, b := range r.boards {
		b.CaptchaMarkers = r.captchaMarkers
		b.ValidationText = r.validationText
	}
	return nil
}

func applyDefaults(b *Board) {
	if b.FormScope == "" {
		b.FormScope = "form"
	}
	if b.Timeouts.Apply == 0 {
		b.Timeouts.Apply = 5 * time.Second
	}
	if b.Timeouts.Element == 0 {
		b.Timeouts.Element = 10 * time.Second
	}
	if b.Timeouts.Screening == 0 {
		b.Timeouts.Screening = 10 * time.Second
	}
}

// Get returns the named board.
func (r *Registry) Get(name string) (*Board, error) {
	b, ok := r.boards[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown board %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return b, nil
}

// Detect returns the board serving a listing URL.
func (r *Registry) Detect(rawURL string) (*Board, bool) {
	for _, name := range r.Names() {
		if b := r.boards[name]; b.Matches(rawURL) {
			return b, true
		}
	}
	return nil, false
}

// ForJob resolves a job's board from its Board field, else from its URL.
func (r *Registry) ForJob(job types.Job) (*Board, error) {
	if job.Board != "" {
		return r.Get(job.Board)
	}
	if job.URL != "" {
		if b, ok := r.Detect(job.URL); ok {
			return b, nil
		}
		return nil, fmt.Errorf("no board serves %s", job.URL)
	}
	return nil, fmt.Errorf("job %s has neither a board nor a URL", job.ID)
}

// Names returns the board names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
