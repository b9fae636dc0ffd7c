package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{\"text\": \"Immediately\"}\n```", `{"text": "Immediately"}`},
		{"bare fence", "```\n{\"selectedOptionId\": \"yes\"}\n```", `{"selectedOptionId": "yes"}`},
		{"fence with other language", "```js\n{\"text\": \"5\"}\n```", `{"text": "5"}`},
		{"plain object", `{"text": "5 years"}`, `{"text": "5 years"}`},
		{"preamble", "Here is my answer:\n{\"selectedOptionId\": \"AWS\"}", `{"selectedOptionId": "AWS"}`},
		{"trailing chatter", "{\"text\": \"Yes\"}\n\nGood luck with the application!", `{"text": "Yes"}`},
		{"array", "Options:\n[\"a\", \"c\"]", `["a", "c"]`},
		{"braces inside strings", `{"text": "I use {curly} braces"} done`, `{"text": "I use {curly} braces"}`},
		{"escaped quotes", `Result: {"text": "He said \"hi\""}`, `{"text": "He said \"hi\""}`},
		{"no json", "I cannot answer that.", "I cannot answer that."},
		{"unbalanced", `{"text": "Immedi`, `{"text": "Immedi`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": [1, 2]}}`, extractJSONObject(`{"a": {"b": [1, 2]}} tail`))
	assert.Equal(t, "", extractJSONObject("not json"))
	assert.Equal(t, "", extractJSONObject(""))
	assert.Equal(t, `[[1], [2]]`, extractJSONArray(`[[1], [2]] more`))
	assert.Equal(t, "", extractJSONArray(`{"a": 1}`))
}
