package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("resolver.json", "system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "JSON object")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "system")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("resolver.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() { MustGet("nonexistent.json", "system") })
	assert.NotPanics(t, func() {
		assert.NotEmpty(t, MustGet("cover_letter.json", "letter"))
	})
}

func TestFormat(t *testing.T) {
	out := Format("Keep the answer under {{.Words}} words. {{.Other}}", map[string]string{"Words": "100"})
	assert.Equal(t, "Keep the answer under 100 words. {{.Other}}", out)
}

func TestFormat_ValuesAreNotExpanded(t *testing.T) {
	out := Format("{{.Description}} / {{.Resume}}", map[string]string{
		"Description": "Use {{.Resume}} and {{.Name}}",
		"Resume":      "resume text",
	})
	assert.Equal(t, "Use {{.Resume}} and {{.Name}} / resume text", out)
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render("resolver.json", "length-textarea", map[string]string{"Words": "100"})
	require.NoError(t, err)
	assert.Equal(t, "Keep the answer under 100 words.", out)

	_, err = Render("resolver.json", "length-textarea", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{.Words}}")

	out, err = Render("resolver.json", "length-textarea", map[string]string{"Words": "{{.Words}}"})
	require.NoError(t, err)
	assert.Equal(t, "Keep the answer under {{.Words}} words.", out)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("resolver.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "system")
	assert.Contains(t, keys, "instructions-single")
	assert.IsNonDecreasing(t, keys)
}
