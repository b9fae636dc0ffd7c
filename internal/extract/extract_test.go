package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser/browsertest"
	"github.com/jonathan/job-applier/internal/types"
)

const screeningPage = `<html><body>
<header><input type="search" aria-label="Search jobs" name="q"></header>
<form>
  <input type="hidden" name="csrf" value="t0k3n">
  <div>
    <label for="start">Earliest start date</label>
    <input type="text" id="start" name="start" required>
  </div>

  <fieldset>
    <legend><strong>Do you have the right to work in Australia?</strong></legend>
    <input type="radio" id="rights-yes" name="rights" value="yes"><label for="rights-yes">Yes</label>
    <input type="radio" id="rights-no" name="rights" value="no"><label for="rights-no">No</label>
  </fieldset>

  <div class="question">
    <strong>Which of the following cloud platforms have you used?</strong>
    <div><input type="checkbox" id="c-aws" name="clouds" value="aws"><label for="c-aws">AWS</label></div>
    <div><input type="checkbox" id="c-az" name="clouds" value="azure"><label for="c-az">Azure</label></div>
  </div>

  <div>
    <label for="notice">Notice period</label>
    <select id="notice" name="notice">
      <option value="">Select an option</option>
      <option value="none">None</option>
      <option value="2w">2 weeks</option>
    </select>
  </div>

  <div>
    <div class="question-text">Tell us about a project you are proud of</div>
    <textarea name="project" maxlength="500"></textarea>
  </div>

  <input type="text" name="mystery" placeholder="Type here">

  <div class="question">
    <strong>Which of the following cloud platforms have you used?</strong>
    <div><input type="checkbox" id="c-gcp" name="clouds" value="gcp"><label for="c-gcp">GCP</label></div>
  </div>

  <button type="submit">Continue</button>
  <input type="submit" value="Continue">
</form>
</body></html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(Options{})
	require.NoError(t, err)
	return e
}

func TestExtract_ScreeningPage(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(screeningPage)
	require.NoError(t, err)
	require.Len(t, fields, 5)

	start := fields[0]
	assert.Equal(t, types.KindText, start.Kind)
	assert.Equal(t, "Earliest start date", start.Question)
	assert.Equal(t, `[id="start"]`, start.ID)
	assert.True(t, start.Required)
	assert.Empty(t, start.Options)

	rights := fields[1]
	assert.Equal(t, types.KindRadioGroup, rights.Kind)
	assert.Equal(t, "Do you have the right to work in Australia?", rights.Question)
	assert.Equal(t, []string{"rights-yes", "rights-no"}, rights.OptionIDs())
	assert.Equal(t, "Yes", rights.Options[0].Label)
	assert.Equal(t, `[id="rights-yes"]`, rights.Options[0].Selector)

	clouds := fields[2]
	assert.Equal(t, types.KindCheckboxGroup, clouds.Kind)
	assert.Equal(t, "clouds", clouds.Name)
	assert.Equal(t, "Which of the following cloud platforms have you used?", clouds.Question)
	assert.Equal(t, []string{"c-aws", "c-az", "c-gcp"}, clouds.OptionIDs())

	notice := fields[3]
	assert.Equal(t, types.KindSelect, notice.Kind)
	assert.Equal(t, "Notice period", notice.Question)
	assert.Equal(t, []string{"none", "2w"}, notice.OptionIDs())
	assert.Equal(t, "2 weeks", notice.Options[1].Label)

	project := fields[4]
	assert.Equal(t, types.KindTextArea, project.Kind)
	assert.Equal(t, "Tell us about a project you are proud of", project.Question)
	assert.Equal(t, `textarea[name="project"]`, project.ID)
	assert.Equal(t, 500, project.MaxLength)
}

func TestExtract_GroupingIdempotence(t *testing.T) {
	e := newTestExtractor(t)

	first, err := e.Extract(screeningPage)
	require.NoError(t, err)
	second, err := e.Extract(screeningPage)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	names := map[string]int{}
	for _, f := range first {
		if f.Kind == types.KindRadioGroup || f.Kind == types.KindCheckboxGroup {
			names[f.Name]++
		}
	}
	for name, n := range names {
		assert.Equal(t, 1, n, "group %s extracted more than once", name)
	}
}

func TestExtract_DropsUnlabeledAndPlaceholderOnly(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(`<form>
		<input type="text" name="mystery" placeholder="Your answer">
		<input type="text">
		<select name="orphan"><option value="">Pick</option></select>
	</form>`)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestExtract_DropsUnquestionedCheckboxCluster(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(`<form>
		<strong>Your name</strong>
		<input type="text" id="name" aria-label="Your name">
		<div>
			<input type="checkbox" id="m1" name="misc" value="1"><label for="m1">One</label>
			<input type="checkbox" id="m2" name="misc" value="2"><label for="m2">Two</label>
		</div>
	</form>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, types.KindText, fields[0].Kind)
	assert.Equal(t, "Your name", fields[0].Question)
}

func TestExtract_RadioWithoutIDs(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(`<form>
		<p><b>Are you willing to relocate?</b></p>
		<input type="radio" name="relocate" value="Yes"> Yes
		<input type="radio" name="relocate" value="No"> No
	</form>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	f := fields[0]
	assert.Equal(t, "Are you willing to relocate?", f.Question)
	assert.Equal(t, []string{"Yes", "No"}, f.OptionIDs())
	assert.Equal(t, `input[name="relocate"][value="No"]`, f.Options[1].Selector)
	assert.Equal(t, `input[name="relocate"]`, f.ID)
}

func TestExtract_WrappingLabelIgnoresOptionText(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(`<form>
		<label>Expected salary
			<select name="salary"><option value="100k">100k</option><option value="150k">150k</option></select>
		</label>
	</form>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Expected salary", fields[0].Question)
}

func TestExtract_FallsBackToBodyWithoutForm(t *testing.T) {
	e := newTestExtractor(t)
	fields, err := e.Extract(`<html><body><main>
		<label for="city">City *</label><input id="city" name="city">
	</main></body></html>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "City", fields[0].Question)
}

func TestExtract_FormScope(t *testing.T) {
	e, err := New(Options{FormScope: "#apply"})
	require.NoError(t, err)
	fields, err := e.Extract(`<body>
		<form id="search"><label for="q">Search</label><input id="q"></form>
		<form id="apply"><label for="phone">Phone</label><input id="phone" type="tel"></form>
	</body>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Phone", fields[0].Question)
}

func TestExtract_StrategyOrderIsConfigurable(t *testing.T) {
	page := `<form>
		<label for="exp">Years of experience</label>
		<input id="exp" name="exp" aria-label="Experience in years">
	</form>`

	ariaFirst, err := New(Options{LabelStrategies: []string{StrategyAriaLabel, StrategyLabelFor}})
	require.NoError(t, err)
	fields, err := ariaFirst.Extract(page)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Experience in years", fields[0].Question)

	_, err = New(Options{LabelStrategies: []string{"guess"}})
	assert.Error(t, err)
	_, err = New(Options{QuestionStrategies: []string{"guess"}})
	assert.Error(t, err)
}

func TestForBoardAndFromDriver(t *testing.T) {
	r, err := boards.Default()
	require.NoError(t, err)
	seek, err := r.Get("seek")
	require.NoError(t, err)

	e, err := ForBoard(seek, nil)
	require.NoError(t, err)

	d := browsertest.New(map[string]string{"https://www.seek.com.au/job/1/apply/role-requirements": screeningPage})
	require.NoError(t, d.Navigate(context.Background(), "https://www.seek.com.au/job/1/apply/role-requirements"))

	fields, err := e.FromDriver(context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, fields, 5)
}
