// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-applier/internal/pipeline"
	"github.com/jonathan/job-applier/internal/store"
	"github.com/jonathan/job-applier/internal/types"
	"github.com/jonathan/job-applier/internal/wizard"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fit(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fit(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// fit truncates a line to the box's inner width, counting runes.
func fit(line string) string {
	r := []rune(line)
	if len(r) > boxWidth-4 {
		return string(r[:boxWidth-7]) + "..."
	}
	return line
}

// PrintDescriptors outputs the fields extracted from a page.
func (p *Printer) PrintDescriptors(fields []types.FieldDescriptor) {
	if len(fields) == 0 {
		p.printBox("FORM FIELDS", "No answerable fields found")
		return
	}

	var sb strings.Builder
	for i, f := range fields {
		req := ""
		if f.Required {
			req = " *"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s]%s %s\n", i+1, f.Kind, req, f.Question))
		count := min(len(f.Options), maxItemsToShow)
		for j := 0; j < count; j++ {
			sb.WriteString(fmt.Sprintf("     %s = %s\n", f.Options[j].ID, f.Options[j].Label))
		}
		if len(f.Options) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("     ... and %d more\n", len(f.Options)-maxItemsToShow))
		}
		if f.MaxLength > 0 {
			sb.WriteString(fmt.Sprintf("     max %d characters\n", f.MaxLength))
		}
	}

	p.printBox(fmt.Sprintf("FORM FIELDS (%d)", len(fields)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs the outcome of one application.
func (p *Printer) PrintResult(res wizard.Result) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Job:       %s\n", res.JobID))
	sb.WriteString(fmt.Sprintf("Board:     %s\n", res.Board))
	sb.WriteString(fmt.Sprintf("Outcome:   %s\n", res.Outcome))
	if res.Detail != "" {
		sb.WriteString(fmt.Sprintf("Detail:    %s\n", res.Detail))
	}
	sb.WriteString(fmt.Sprintf("Answered:  %d\n", res.Answered))
	if res.CoverLetter {
		sb.WriteString("Cover letter: added\n")
	}
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", res.Duration.Round(time.Millisecond)))

	if len(res.Skipped) > 0 {
		sb.WriteString("\nUnanswered:\n")
		count := min(len(res.Skipped), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", res.Skipped[i]))
		}
		if len(res.Skipped) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(res.Skipped)-maxItemsToShow))
		}
	}

	if len(res.Transitions) > 0 {
		states := make([]string, len(res.Transitions))
		for i, s := range res.Transitions {
			states[i] = string(s)
		}
		sb.WriteString("\nStates:\n")
		for _, line := range wrap(strings.Join(states, " → "), boxWidth-6) {
			sb.WriteString("  " + line + "\n")
		}
	}

	p.printBox("APPLICATION RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatch outputs outcome counts and the non-applied jobs of a batch.
func (p *Printer) PrintBatch(b *pipeline.BatchResult) {
	if b == nil {
		return
	}

	var sb strings.Builder
	counts := b.Counts()
	outcomes := make([]types.ApplicationOutcome, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].String() < outcomes[j].String() })
	for _, o := range outcomes {
		sb.WriteString(fmt.Sprintf("%-20s %d\n", o.String(), counts[o]))
	}
	if len(b.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "SKIPPED (done)", len(b.Skipped)))
	}

	var attention []pipeline.JobResult
	for _, r := range b.Results {
		if !r.Outcome.Terminal() {
			attention = append(attention, r)
		}
	}
	if len(attention) > 0 {
		sb.WriteString("\nNeeds attention:\n")
		for _, r := range attention {
			sb.WriteString(fmt.Sprintf("  • %s/%s %s\n", r.Board, r.JobID, r.Outcome))
		}
	}

	p.printBox(fmt.Sprintf("BATCH %s (%d jobs)", shortID(b.RunID), len(b.Results)+len(b.Skipped)),
		strings.TrimSuffix(sb.String(), "\n"))
}

// PrintHistory outputs recorded applications, newest first.
func (p *Printer) PrintHistory(records []store.Record) {
	if len(records) == 0 {
		p.printBox("APPLICATION HISTORY", "No applications recorded")
		return
	}

	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s  %-10s %-12s %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Board, r.JobID, r.Outcome))
		if r.Title != "" || r.Company != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", strings.Trim(r.Title+" @ "+r.Company, " @")))
		}
	}

	p.printBox(fmt.Sprintf("APPLICATION HISTORY (%d)", len(records)), strings.TrimSuffix(sb.String(), "\n"))
}

func wrap(s string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
