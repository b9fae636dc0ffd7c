package answer

import "regexp"

// QuestionType is a coarse category of a screening question.
type QuestionType string

const (
	QuestionGeneral    QuestionType = "general"
	QuestionExperience QuestionType = "experience"
	QuestionSalary     QuestionType = "salary"
	QuestionStartDate  QuestionType = "start"
	QuestionWorkRights QuestionType = "rights"
	QuestionRelocation QuestionType = "relocate"
	QuestionNotice     QuestionType = "notice"
)

var questionPatterns = []struct {
	kind    QuestionType
	pattern *regexp.Regexp
}{
	{QuestionExperience, regexp.MustCompile(`(?i)how many years|years?\b.*\bexperience|experience\b.*\byears?\b`)},
	{QuestionSalary, regexp.MustCompile(`(?i)salary|remuneration|compensation|pay expectation|expected pay`)},
	{QuestionNotice, regexp.MustCompile(`(?i)notice period`)},
	{QuestionStartDate, regexp.MustCompile(`(?i)start date|earliest start|when can you start|available to start`)},
	{QuestionWorkRights, regexp.MustCompile(`(?i)right to work|work rights|working rights|visa|sponsorship|citizen|permanent resident`)},
	{QuestionRelocation, regexp.MustCompile(`(?i)relocat`)},
}

// Classify returns the first category whose pattern matches the question.
func Classify(question string) QuestionType {
	for _, p := range questionPatterns {
		if p.pattern.MatchString(question) {
			return p.kind
		}
	}
	return QuestionGeneral
}
