package types

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultVariant is the resume variant used when a job's tech stack has no resume of its own
const DefaultVariant = "aws"

// CandidateContext is the per-application bundle used to parameterize inference.
// It is built once at the start of an application and reused for every field.
type CandidateContext struct {
	JobID            string `json:"job_id" validate:"required"`
	JobTitle         string `json:"job_title,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	JobDescription   string `json:"job_description"`
	TechStackVariant string `json:"tech_stack_variant" validate:"required"`
	ResumeText       string `json:"resume_text" validate:"required"`
}

// Validate validates the CandidateContext using the validator.
func (c *CandidateContext) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// ResumeLibrary maps tech stack variants (e.g. "aws", "azure") to resume text.
type ResumeLibrary struct {
	Resumes  map[string]string
	Fallback string
}

// NewResumeLibrary creates a library with lower-cased variant keys
func NewResumeLibrary(resumes map[string]string, fallback string) *ResumeLibrary {
	normalized := make(map[string]string, len(resumes))
	for variant, text := range resumes {
		normalized[normalizeVariant(variant)] = text
	}
	if fallback == "" {
		fallback = DefaultVariant
	}
	return &ResumeLibrary{Resumes: normalized, Fallback: normalizeVariant(fallback)}
}

// Resolve picks the resume for a requested variant. A variant that is not in the
// library resolves to the fallback variant. The returned variant is the one
// actually used.
func (l *ResumeLibrary) Resolve(requested string) (variant string, text string) {
	if l == nil {
		return normalizeVariant(requested), ""
	}

	key := normalizeVariant(requested)
	if text, ok := l.Resumes[key]; ok {
		return key, text
	}

	// tech stacks like "Azure, AWS, Terraform" pick the variant mentioned first
	best, bestAt := "", -1
	for _, v := range l.Variants() {
		if v == "" {
			continue
		}
		at := wordIndex(key, v)
		if at >= 0 && (bestAt < 0 || at < bestAt || (at == bestAt && len(v) > len(best))) {
			best, bestAt = v, at
		}
	}
	if bestAt >= 0 {
		return best, l.Resumes[best]
	}

	return l.Fallback, l.Resumes[l.Fallback]
}

// Variants returns the configured variants in sorted order
func (l *ResumeLibrary) Variants() []string {
	variants := make([]string, 0, len(l.Resumes))
	for v := range l.Resumes {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	return variants
}

// NewCandidateContext resolves the resume for the job's variant and builds the context.
func NewCandidateContext(job Job, library *ResumeLibrary) CandidateContext {
	variant, resume := library.Resolve(job.TechStack)
	return CandidateContext{
		JobID:            job.ID,
		JobTitle:         job.Title,
		CompanyName:      job.Company,
		JobDescription:   job.Description,
		TechStackVariant: variant,
		ResumeText:       resume,
	}
}

// wordIndex returns where word first appears in s as a whole word, or -1.
func wordIndex(s, word string) int {
	re := regexp.MustCompile(`(?:^|[^a-z0-9])(` + regexp.QuoteMeta(word) + `)(?:$|[^a-z0-9])`)
	if loc := re.FindStringSubmatchIndex(s); loc != nil {
		return loc[2]
	}
	return -1
}

func normalizeVariant(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
