package boards

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-applier/internal/types"
)

func TestDefault_LoadsEmbeddedBoards(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"greenhouse", "indeed", "seek"}, r.Names())

	seek, err := r.Get("Seek")
	require.NoError(t, err)
	assert.True(t, seek.RequiresLogin())
	assert.Equal(t, "[data-automation='job-detail-apply']", seek.Selectors.Apply)
	assert.Equal(t, 5*time.Second, seek.Timeouts.Apply)
	assert.Contains(t, seek.CaptchaMarkers, "iframe[src*='recaptcha']")
	assert.Contains(t, seek.ValidationText, "this field is required")

	gh, err := r.Get("greenhouse")
	require.NoError(t, err)
	assert.False(t, gh.RequiresLogin())

	_, err = r.Get("monster")
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.seek.com.au/job/81234567", "seek"},
		{"https://au.indeed.com/viewjob?jk=abc123", "indeed"},
		{"https://job-boards.greenhouse.io/acme/jobs/7063751", "greenhouse"},
		{"https://boards.greenhouse.io/acme/jobs/123", "greenhouse"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			b, ok := r.Detect(tt.url)
			require.True(t, ok)
			assert.Equal(t, tt.expected, b.Name)
		})
	}

	_, ok := r.Detect("https://notseek.com.au.evil.example/job/1")
	assert.False(t, ok)
	_, ok = r.Detect("not a url")
	assert.False(t, ok)
}

func TestJobURLAndID(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	seek, err := r.Get("seek")
	require.NoError(t, err)

	u, err := seek.JobURL(types.Job{ID: "81234567"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.seek.com.au/job/81234567", u)

	id, ok := seek.JobIDFromURL(u)
	require.True(t, ok)
	assert.Equal(t, "81234567", id)

	explicit, err := seek.JobURL(types.Job{ID: "1", URL: "https://www.seek.com.au/job/99"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.seek.com.au/job/99", explicit)

	indeed, err := r.Get("indeed")
	require.NoError(t, err)
	id, ok = indeed.JobIDFromURL("https://au.indeed.com/viewjob?jk=5f1e2d&from=serp")
	require.True(t, ok)
	assert.Equal(t, "5f1e2d", id)

	gh, err := r.Get("greenhouse")
	require.NoError(t, err)
	_, err = gh.JobURL(types.Job{ID: "7063751"})
	assert.Error(t, err)
}

func TestForJob(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	b, err := r.ForJob(types.Job{ID: "1", Board: "indeed"})
	require.NoError(t, err)
	assert.Equal(t, "indeed", b.Name)

	b, err = r.ForJob(types.Job{ID: "1", URL: "https://www.seek.com.au/job/1"})
	require.NoError(t, err)
	assert.Equal(t, "seek", b.Name)

	_, err = r.ForJob(types.Job{ID: "1"})
	assert.Error(t, err)
}

func TestLoad_OverridesBoardByName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boards.yaml")
	override := `
boards:
  - name: seek
    hosts: [seek.com.au]
    job_url: https://www.seek.com.au/job/{job_id}
    selectors:
      apply: "#apply-now"
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	r, err := Load(path)
	require.NoError(t, err)

	seek, err := r.Get("seek")
	require.NoError(t, err)
	assert.Equal(t, "#apply-now", seek.Selectors.Apply)
	assert.False(t, seek.RequiresLogin())
	assert.Equal(t, "form", seek.FormScope)
	assert.NotEmpty(t, seek.CaptchaMarkers)

	_, err = r.Get("indeed")
	assert.NoError(t, err)
}

func TestParse_RejectsInvalidTables(t *testing.T) {
	_, err := Parse([]byte("boards:\n  - hosts: [x.com]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("boards:\n  - name: x\n    job_id_pattern: '('\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("boards: [\n"))
	assert.Error(t, err)
}
