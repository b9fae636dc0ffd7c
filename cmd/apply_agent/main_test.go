package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/config"
	"github.com/jonathan/job-applier/internal/evidence"
	"github.com/jonathan/job-applier/internal/store"
	"github.com/jonathan/job-applier/internal/types"
)

// execute runs the root command in-process and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuildJob(t *testing.T) {
	registry, err := boards.Default()
	require.NoError(t, err)

	tests := []struct {
		name      string
		url       string
		board     string
		jobID     string
		wantBoard string
		wantID    string
		wantErr   string
	}{
		{name: "seek url", url: "https://www.seek.com.au/job/81234567", wantBoard: "seek", wantID: "81234567"},
		{name: "indeed url", url: "https://au.indeed.com/viewjob?jk=5f1e2d", wantBoard: "indeed", wantID: "5f1e2d"},
		{name: "board and id", board: "seek", jobID: "81234567", wantBoard: "seek", wantID: "81234567"},
		{name: "explicit id wins", url: "https://www.seek.com.au/job/1", jobID: "2", wantBoard: "seek", wantID: "2"},
		{name: "unknown host", url: "https://jobs.example/1", wantErr: "no board serves"},
		{name: "nothing", wantErr: "--board"},
		{name: "unknown board", board: "monster", jobID: "1", wantErr: "unknown board"},
		{name: "no id", url: "https://www.seek.com.au/jobs?keywords=devops", wantErr: "--job-id"},
		{name: "greenhouse needs url", board: "greenhouse", jobID: "7063751", wantErr: "needs a job URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := buildJob(registry, tt.url, tt.board, tt.jobID)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBoard, job.Board)
			assert.Equal(t, tt.wantID, job.ID)
			assert.Equal(t, tt.url, job.URL)
		})
	}
}

func TestParseResumeFlags(t *testing.T) {
	got, err := parseResumeFlags([]string{"AWS=resumes/aws.txt", " azure = resumes/azure.txt "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"aws": "resumes/aws.txt", "azure": "resumes/azure.txt"}, got)

	_, err = parseResumeFlags([]string{"resumes/aws.txt"})
	assert.Error(t, err)
	_, err = parseResumeFlags([]string{"aws="})
	assert.Error(t, err)
}

func TestRunFlags_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	resume := filepath.Join(dir, "aws.txt")
	require.NoError(t, os.WriteFile(resume, []byte("AWS resume"), 0644))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"provider": "openai",
		"cover_letter_threshold": 60,
		"resumes": {"aws": "`+resume+`"},
		"s3_bucket": "evidence",
		"s3_region": "ap-southeast-2"
	}`), 0644))

	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--config", cfgPath, "--cover-letter-threshold", "85", "--headless"}))

	cfg, err := f.load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 85.0, cfg.CoverLetterThreshold)
	assert.True(t, cfg.Headless)
	assert.Equal(t, resume, cfg.Resumes["aws"])
	assert.Equal(t, config.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, config.DefaultOperatorAddr, cfg.OperatorAddr)
}

func TestRunFlags_InvalidValues(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--provider", "anthropic"}))

	_, err := f.load(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider")
}

func TestOpenStore(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	ctx := context.Background()

	rec, err := openStore(ctx, config.Config{SQLitePath: filepath.Join(t.TempDir(), "apply.db")})
	require.NoError(t, err)
	defer func() { _ = rec.Close() }()
	assert.IsType(t, &store.SQLiteStore{}, rec)

	nop, err := openStore(ctx, config.Config{})
	require.NoError(t, err)
	assert.IsType(t, store.NopStore{}, nop)
}

func TestOpenEvidence(t *testing.T) {
	sink, err := openEvidence(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, sink)

	sink, err = openEvidence(config.Config{EvidenceDir: "shots"})
	require.NoError(t, err)
	assert.Equal(t, evidence.DirSink{Dir: "shots"}, sink)
}

func TestNewOperator_UnknownChannel(t *testing.T) {
	_, err := newOperator(context.Background(), "carrier-pigeon", config.Defaults(), newLogger(&bytes.Buffer{}, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator channel")
}

func TestNewEngine_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	resume := filepath.Join(t.TempDir(), "aws.txt")
	require.NoError(t, os.WriteFile(resume, []byte("AWS resume"), 0644))
	cfg := config.Defaults()
	cfg.Resumes = map[string]string{"aws": resume}

	_, err := newEngine(context.Background(), cfg, "terminal", newLogger(&bytes.Buffer{}, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestBoardsCommand(t *testing.T) {
	out, err := execute(t, "boards")
	require.NoError(t, err)
	assert.Contains(t, out, "seek")
	assert.Contains(t, out, "greenhouse")
	assert.Contains(t, out, "seek.com.au")

	out, err = execute(t, "boards", "https://www.seek.com.au/job/81234567")
	require.NoError(t, err)
	assert.Contains(t, out, "board:  seek")
	assert.Contains(t, out, "job id: 81234567")

	_, err = execute(t, "boards", "https://jobs.example/1")
	assert.Error(t, err)
}

func TestExtractCommand_HTMLFile(t *testing.T) {
	page := filepath.Join(t.TempDir(), "questions.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body><form>
<label for="start">Earliest start date</label>
<input type="text" id="start" name="start" required>
<label for="cloud">Preferred cloud platform</label>
<select id="cloud" name="cloud">
  <option value="">Choose</option>
  <option value="AWS">Amazon Web Services</option>
  <option value="AZ">Azure</option>
</select>
</form></body></html>`), 0644))
	t.Cleanup(func() { extractJSON = false })

	out, err := execute(t, "extract", page, "--json")
	require.NoError(t, err)

	var fields []types.FieldDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	require.Len(t, fields, 2)
	assert.Equal(t, "Earliest start date", fields[0].Question)
	assert.True(t, fields[0].Required)
	assert.Equal(t, types.KindSelect, fields[1].Kind)
	assert.Len(t, fields[1].Options, 2)
}

func TestHistoryCommand_Empty(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	out, err := execute(t, "history", "--sqlite", filepath.Join(t.TempDir(), "apply.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No applications recorded")
}

func TestBatchCommand_MissingJobsFlag(t *testing.T) {
	binaryPath := agentBinary(t)

	cmd := exec.Command(binaryPath, "batch")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), `required flag(s) "jobs" not set`)
}
