package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-applier/internal/answer"
	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/browser/browsertest"
	"github.com/jonathan/job-applier/internal/coverletter"
	"github.com/jonathan/job-applier/internal/operator"
	"github.com/jonathan/job-applier/internal/types"
)

const testTables = `
boards:
  - name: demo
    hosts: [jobs.example]
    login_url: https://jobs.example/login
    signed_in_markers: ["#account"]
    job_url: https://jobs.example/job/{job_id}
    job_id_pattern: '/job/(\d+)'
    form_scope: form
    selectors:
      apply: "#apply"
      resume_select: "#resume"
      cover_letter_add: "[for='cl-write']"
      cover_letter_decline: "[for='cl-none']"
      cover_letter_text: "#cl-text"
      continue: "#continue"
      review_consent: "#consent"
      submit: "#submit"
    signals:
      screening_url: [questions]
      review_url: [review]
      success_url: [success]
      success_markers: ["#sent"]
      success_text: [application submitted]
      already_applied_markers: ["#applied-badge"]
      already_applied_text: [you applied on]
      invalid_listing_text: [no longer advertised]
    timeouts: {apply: 10ms, element: 10ms, screening: 10ms}
  - name: single
    hosts: [apply.example]
    form_scope: form
    selectors:
      submit: "#submit"
    signals:
      success_text: [thank you for applying]
    timeouts: {apply: 10ms, element: 10ms, screening: 10ms}
captcha_markers: ["iframe[src*='recaptcha']"]
validation_text: [this field is required]
`

const (
	loginURL     = "https://jobs.example/login"
	jobURL       = "https://jobs.example/job/1"
	documentsURL = "https://jobs.example/apply/1/documents"
	questionsURL = "https://jobs.example/apply/1/questions"
	reviewURL    = "https://jobs.example/apply/1/review"
	successURL   = "https://jobs.example/apply/1/success"
)

const (
	signedInPage  = `<html><body><div id="account">Sam</div></body></html>`
	signedOutPage = `<html><body><a href="/signin">Sign in</a></body></html>`
	jobPage       = `<html><body><h1>Platform Engineer</h1><button id="apply">Apply</button></body></html>`
	captchaJob    = `<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`
	documentsPage = `<html><body><form>
<select id="resume"><option value="r-aws">AWS resume</option><option value="r-az">Azure resume</option></select>
<input type="radio" id="cl-write" name="cl"><label for="cl-write">Write a cover letter</label>
<input type="radio" id="cl-none" name="cl"><label for="cl-none">Don't include a cover letter</label>
<textarea id="cl-text"></textarea>
<button id="continue" type="button">Continue</button>
</form></body></html>`
	questionsPage = `<html><body><form>
<label for="start">Earliest start date</label>
<input type="text" id="start" name="start" required>
<label for="cloud">Preferred cloud platform</label>
<select id="cloud" name="cloud">
  <option value="">Choose</option>
  <option value="AWS">Amazon Web Services</option>
  <option value="AZ">Azure</option>
</select>
<button id="continue" type="button">Continue</button>
</form></body></html>`
	reviewPage = `<html><body><form>
<input type="checkbox" id="consent"><label for="consent">I agree to the privacy policy</label>
<button id="submit" type="button">Submit application</button>
</form></body></html>`
	successPage = `<html><body><div id="sent">Application submitted</div></body></html>`
)

func demoBoard(t *testing.T, name string) *boards.Board {
	t.Helper()
	reg, err := boards.Parse([]byte(testTables))
	require.NoError(t, err)
	b, err := reg.Get(name)
	require.NoError(t, err)
	return b
}

// site wires the demo board's pages and the continue/apply/submit flow.
func site(t *testing.T, loginHTML, jobHTML string) *browsertest.Driver {
	t.Helper()
	d := browsertest.New(map[string]string{
		loginURL:     loginHTML,
		jobURL:       jobHTML,
		documentsURL: documentsPage,
		questionsURL: questionsPage,
		reviewURL:    reviewPage,
		successURL:   successPage,
	})
	next := map[string]string{documentsURL: questionsURL, questionsURL: reviewURL}
	d.OnClick("#apply", func(d *browsertest.Driver) error { return d.Load(documentsURL) })
	d.OnClick("#continue", func(d *browsertest.Driver) error {
		url, _ := d.CurrentURL(context.Background())
		return d.Load(next[url])
	})
	d.OnClick("#submit", func(d *browsertest.Driver) error { return d.Load(successURL) })
	return d
}

type fakeResolver struct {
	answers map[string]types.Answer
	calls   []string
	panicOn string
}

func (f *fakeResolver) Resolve(_ context.Context, d types.FieldDescriptor, cc types.CandidateContext) (types.Answer, error) {
	f.calls = append(f.calls, d.Question)
	if d.Question == f.panicOn {
		panic("resolver exploded")
	}
	if a, ok := f.answers[d.Question]; ok {
		return a, nil
	}
	return types.Answer{}, &answer.RejectedError{Question: d.Question, Reason: "option \"GCP\" is not offered by the field", Attempts: 2}
}

func goodAnswers() *fakeResolver {
	return &fakeResolver{answers: map[string]types.Answer{
		"Earliest start date":      types.TextAnswer(types.KindText, "Immediately"),
		"Preferred cloud platform": types.OptionAnswer(types.KindSelect, "AWS"),
	}}
}

type fakeLetters struct {
	text  string
	err   error
	calls int
}

func (f *fakeLetters) Generate(context.Context, coverletter.Request) (*coverletter.Letter, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &coverletter.Letter{Text: f.text}, nil
}

type recordingOperator struct {
	prompts []operator.Prompt
	onAwait func(p operator.Prompt) error
}

func (r *recordingOperator) Await(_ context.Context, p operator.Prompt) error {
	r.prompts = append(r.prompts, p)
	if r.onAwait != nil {
		return r.onAwait(p)
	}
	return nil
}

func resumes() *types.ResumeLibrary {
	return types.NewResumeLibrary(map[string]string{
		"aws":   "AWS resume text",
		"azure": "Azure resume text",
	}, "aws")
}

func newWizard(t *testing.T, d browser.Driver, board *boards.Board, r FieldResolver, letters coverletter.Generator, op operator.Operator) *Wizard {
	t.Helper()
	w, err := New(d, board, r, letters, op, Options{
		Resumes:      resumes(),
		ResumeIDs:    map[string]string{"aws": "r-aws", "azure": "r-az"},
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return w
}

func demoJob() types.Job {
	return types.Job{ID: "1", Board: "demo", Title: "Platform Engineer", Company: "Acme", TechStack: "azure", Score: 50}
}

func TestApply_HappyPath(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	r := goodAnswers()
	w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
	assert.Equal(t, 2, res.Answered)
	assert.Empty(t, res.Skipped)
	assert.False(t, res.CoverLetter)
	assert.Equal(t, []types.WizardState{
		types.StateStart,
		types.StateLoggingIn,
		types.StateNavigating,
		types.StateSelectingResume,
		types.StateDecidingCoverLetter,
		types.StateAnsweringScreening,
		types.StateReviewing,
		types.StateSubmitting,
		types.StateDone,
	}, res.Transitions)
	assert.Equal(t, types.StateDone, w.State())
	assert.True(t, w.LoggedIn())

	resumeID, _ := d.Value("#resume")
	assert.Equal(t, "r-az", resumeID)
	start, _ := d.Value(`[id="start"]`)
	assert.Equal(t, "Immediately", start)
	cloud, _ := d.Value(`[id="cloud"]`)
	assert.Equal(t, "AWS", cloud)
	assert.Equal(t, 1, d.ClickCount("[for='cl-none']"))
	assert.Equal(t, 1, d.ClickCount("#consent"))
	assert.Equal(t, 1, d.ClickCount("#submit"))
	assert.Contains(t, res.Detail, "url")
}

func TestApply_ReusesSessionAcrossJobs(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

	first := w.Apply(context.Background(), demoJob())
	second := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeApplied, first.Outcome)
	assert.Equal(t, types.OutcomeApplied, second.Outcome)
	assert.NotContains(t, second.Transitions, types.StateLoggingIn)
	assert.Equal(t, []string{loginURL, jobURL, jobURL}, d.Navigations())
	assert.Equal(t, 2, second.Answered)
}

func TestApply_AlreadyAppliedIsIdempotent(t *testing.T) {
	d := site(t, signedInPage, `<html><body><span id="applied-badge">Applied</span><button id="apply">Apply</button></body></html>`)
	r := goodAnswers()
	w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

	for i := 0; i < 2; i++ {
		res := w.Apply(context.Background(), demoJob())
		assert.Equal(t, types.OutcomeAlreadyApplied, res.Outcome)
		assert.NotContains(t, res.Transitions, types.StateAnsweringScreening)
	}
	assert.Empty(t, r.calls)
	assert.Zero(t, d.ClickCount("#apply"))
}

func TestApply_ListingShortCircuits(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		outcome types.ApplicationOutcome
	}{
		{"applied text", `<html><body><p>You applied on 3 March</p></body></html>`, types.OutcomeAlreadyApplied},
		{"no apply button", `<html><body><h1>Platform Engineer</h1></body></html>`, types.OutcomeAlreadyApplied},
		{"expired", `<html><body><p>This job is no longer advertised.</p><button id="apply">Apply</button></body></html>`, types.OutcomeInvalidListing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := site(t, signedInPage, tt.page)
			r := goodAnswers()
			w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

			res := w.Apply(context.Background(), demoJob())
			assert.Equal(t, tt.outcome, res.Outcome, res.Detail)
			assert.Empty(t, r.calls)
		})
	}
}

func TestApply_CaptchaResumesSameStep(t *testing.T) {
	d := site(t, signedInPage, captchaJob)
	op := &recordingOperator{}
	op.onAwait = func(p operator.Prompt) error {
		if p.Kind == operator.PromptCaptcha {
			return d.SetHTML(jobPage)
		}
		return nil
	}
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

	res := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
	require.Len(t, op.prompts, 1)
	assert.Equal(t, operator.PromptCaptcha, op.prompts[0].Kind)
	assert.Equal(t, jobURL, op.prompts[0].URL)
	assert.Equal(t, []string{loginURL, jobURL}, d.Navigations())

	i := indexOf(res.Transitions, types.StateAwaitingCaptcha)
	require.Positive(t, i)
	assert.Equal(t, types.StateNavigating, res.Transitions[i-1])
	assert.Equal(t, types.StateNavigating, res.Transitions[i+1])
	assert.Equal(t, 1, count(res.Transitions, types.StateStart))
}

func TestApply_CaptchaOperatorGivesUp(t *testing.T) {
	d := site(t, signedInPage, captchaJob)
	op := &recordingOperator{onAwait: func(operator.Prompt) error { return errors.New("operator went home") }}
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeError, res.Outcome)
	assert.Contains(t, res.Detail, "captcha not cleared")
	assert.Len(t, op.prompts, 1)
}

func TestApply_CaptchaWidgetStaysAfterAcknowledgement(t *testing.T) {
	anchor := `<iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe>`

	t.Run("resumes the application", func(t *testing.T) {
		d := site(t, signedInPage, strings.Replace(jobPage, "<h1>", anchor+"<h1>", 1))
		op := &recordingOperator{}
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

		res := w.Apply(context.Background(), demoJob())

		assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
		require.Len(t, op.prompts, 1)
		assert.Equal(t, operator.PromptCaptcha, op.prompts[0].Kind)
		assert.Equal(t, jobURL, op.prompts[0].URL)
		assert.Equal(t, 1, count(res.Transitions, types.StateAwaitingCaptcha))
		assert.Equal(t, 1, d.ClickCount("#apply"))
	})

	t.Run("no apply button is already applied", func(t *testing.T) {
		d := site(t, signedInPage, `<html><body>`+anchor+`<h1>Platform Engineer</h1></body></html>`)
		op := &recordingOperator{}
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

		res := w.Apply(context.Background(), demoJob())

		assert.Equal(t, types.OutcomeAlreadyApplied, res.Outcome, res.Detail)
		assert.Len(t, op.prompts, 1)
	})
}

func TestApply_LoginWaitsForOperator(t *testing.T) {
	d := site(t, signedOutPage, jobPage)
	op := &recordingOperator{}
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
	require.Len(t, op.prompts, 1)
	assert.Equal(t, operator.PromptLogin, op.prompts[0].Kind)
	assert.True(t, w.LoggedIn())
}

func TestApply_LoginNotConfirmed(t *testing.T) {
	d := site(t, signedOutPage, jobPage)
	op := &recordingOperator{onAwait: func(operator.Prompt) error { return context.Canceled }}
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, op)

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeError, res.Outcome)
	assert.Contains(t, res.Detail, "sign-in not confirmed")
	assert.False(t, w.LoggedIn())
}

func TestApply_RejectedAnswerLeavesFieldUnanswered(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	r := goodAnswers()
	delete(r.answers, "Preferred cloud platform")
	w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeApplied, res.Outcome)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, []string{"Preferred cloud platform"}, res.Skipped)
	_, set := d.Value(`[id="cloud"]`)
	assert.False(t, set)
}

func TestApply_CoverLetter(t *testing.T) {
	t.Run("above threshold", func(t *testing.T) {
		d := site(t, signedInPage, jobPage)
		letters := &fakeLetters{text: "Dear Acme"}
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), letters, &recordingOperator{})

		job := demoJob()
		job.Score = 85
		res := w.Apply(context.Background(), job)

		assert.Equal(t, types.OutcomeApplied, res.Outcome)
		assert.True(t, res.CoverLetter)
		assert.Equal(t, 1, d.ClickCount("[for='cl-write']"))
		assert.Zero(t, d.ClickCount("[for='cl-none']"))
		text, _ := d.Value("#cl-text")
		assert.Equal(t, "Dear Acme", text)
	})

	t.Run("at threshold declines", func(t *testing.T) {
		d := site(t, signedInPage, jobPage)
		letters := &fakeLetters{text: "Dear Acme"}
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), letters, &recordingOperator{})

		job := demoJob()
		job.Score = 70
		res := w.Apply(context.Background(), job)

		assert.False(t, res.CoverLetter)
		assert.Zero(t, letters.calls)
		assert.Equal(t, 1, d.ClickCount("[for='cl-none']"))
	})

	t.Run("generation failure declines", func(t *testing.T) {
		d := site(t, signedInPage, jobPage)
		letters := &fakeLetters{err: errors.New("quota exceeded")}
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), letters, &recordingOperator{})

		job := demoJob()
		job.Score = 95
		res := w.Apply(context.Background(), job)

		assert.Equal(t, types.OutcomeApplied, res.Outcome)
		assert.False(t, res.CoverLetter)
		assert.Equal(t, 1, letters.calls)
		assert.Equal(t, 1, d.ClickCount("[for='cl-none']"))
	})
}

// blockQuestions makes continue on the questions page re-render it with a
// validation message instead of moving on.
func blockQuestions(d *browsertest.Driver) {
	blocked := strings.Replace(questionsPage, "<form>", `<form><p class="error">This field is required</p>`, 1)
	d.OnClick("#continue", func(d *browsertest.Driver) error {
		url, _ := d.CurrentURL(context.Background())
		if url == questionsURL {
			return d.SetHTML(blocked)
		}
		return d.Load(questionsURL)
	})
}

func TestApply_ValidationBlockedWithRequiredUnanswered(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	blockQuestions(d)
	r := goodAnswers()
	delete(r.answers, "Earliest start date")
	w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeNeedsManualReview, res.Outcome)
	assert.Contains(t, res.Detail, "Earliest start date")
	assert.Equal(t, 2, count(r.calls, "Preferred cloud platform"))
	assert.Zero(t, d.ClickCount("#submit"))
}

func TestApply_ValidationBlockedWithEverythingAnswered(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	blockQuestions(d)
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())

	assert.Equal(t, types.OutcomeError, res.Outcome)
	assert.Contains(t, res.Detail, "validation errors persist")
}

func TestApply_SubmitErrorButSuccessObserved(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	d.OnClick("#submit", func(d *browsertest.Driver) error {
		if err := d.Load(successURL); err != nil {
			return err
		}
		return errors.New("target closed")
	})
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeApplied, res.Outcome)
	assert.Contains(t, res.Detail, "despite error")
}

func TestApply_SubmitWithoutSuccessIsFailed(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	d.OnClick("#submit", func(d *browsertest.Driver) error { return nil })
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeFailed, res.Outcome)
}

func TestApply_SuccessPrecedence(t *testing.T) {
	tests := []struct {
		name string
		url  string
		page string
		want string
	}{
		{"url wins", successURL, successPage, "url"},
		{"marker", "https://jobs.example/apply/1/done", successPage, "marker"},
		{"text", "https://jobs.example/apply/1/done", `<html><body>Application submitted!</body></html>`, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := site(t, signedInPage, jobPage)
			d.AddPage(tt.url, tt.page)
			d.OnClick("#submit", func(d *browsertest.Driver) error { return d.Load(tt.url) })
			w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

			res := w.Apply(context.Background(), demoJob())
			assert.Equal(t, types.OutcomeApplied, res.Outcome)
			assert.True(t, strings.HasPrefix(res.Detail, "success "+tt.want), res.Detail)
		})
	}
}

func TestApply_PanicIsContained(t *testing.T) {
	t.Run("before submit", func(t *testing.T) {
		d := site(t, signedInPage, jobPage)
		r := goodAnswers()
		r.panicOn = "Earliest start date"
		w := newWizard(t, d, demoBoard(t, "demo"), r, nil, &recordingOperator{})

		res := w.Apply(context.Background(), demoJob())
		assert.Equal(t, types.OutcomeError, res.Outcome)
		assert.Contains(t, res.Detail, "resolver exploded")
		assert.Equal(t, types.StateDone, w.State())
	})

	t.Run("after the page reached success", func(t *testing.T) {
		d := site(t, signedInPage, jobPage)
		d.OnClick("#submit", func(d *browsertest.Driver) error {
			if err := d.Load(successURL); err != nil {
				return err
			}
			panic("devtools target crashed")
		})
		w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

		res := w.Apply(context.Background(), demoJob())
		assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
		assert.Contains(t, res.Detail, "devtools target crashed")
		assert.Equal(t, types.StateDone, w.State())
	})
}

func TestApply_MissingResumeNeverTouchesBrowser(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	w, err := New(d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{}, Options{})
	require.NoError(t, err)

	res := w.Apply(context.Background(), demoJob())
	assert.Equal(t, types.OutcomeError, res.Outcome)
	assert.Contains(t, res.Detail, "no resume")
	assert.Empty(t, d.Navigations())
}

func TestApply_SinglePageBoard(t *testing.T) {
	const formURL = "https://apply.example/jobs/9"
	d := browsertest.New(map[string]string{
		formURL:                     strings.Replace(questionsPage, `<button id="continue" type="button">Continue</button>`, `<button id="submit">Submit</button>`, 1),
		"https://apply.example/thx": `<html><body><h1>Thank you for applying!</h1></body></html>`,
	})
	d.OnClick("#submit", func(d *browsertest.Driver) error { return d.Load("https://apply.example/thx") })
	op := &recordingOperator{}
	w := newWizard(t, d, demoBoard(t, "single"), goodAnswers(), nil, op)

	res := w.Apply(context.Background(), types.Job{ID: "9", URL: formURL})

	assert.Equal(t, types.OutcomeApplied, res.Outcome, res.Detail)
	assert.Equal(t, 2, res.Answered)
	assert.Empty(t, op.prompts)
	assert.NotContains(t, res.Transitions, types.StateLoggingIn)
}

func TestApply_CanceledContext(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := w.Apply(ctx, demoJob())
	assert.Equal(t, types.OutcomeError, res.Outcome)
}

func TestCleanup(t *testing.T) {
	d := site(t, signedInPage, jobPage)
	w := newWizard(t, d, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{})
	w.Apply(context.Background(), demoJob())
	require.True(t, w.LoggedIn())

	require.NoError(t, w.Cleanup())
	assert.True(t, d.Closed())
	assert.False(t, w.LoggedIn())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, demoBoard(t, "demo"), goodAnswers(), nil, &recordingOperator{}, Options{})
	assert.Error(t, err)
}

func indexOf(states []types.WizardState, s types.WizardState) int {
	for i, v := range states {
		if v == s {
			return i
		}
	}
	return -1
}

func count[T comparable](items []T, v T) int {
	n := 0
	for _, item := range items {
		if item == v {
			n++
		}
	}
	return n
}
