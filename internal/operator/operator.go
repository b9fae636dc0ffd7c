// Package operator is the human channel used for sign-in and CAPTCHA
// challenges. An Await call blocks until a person acknowledges the prompt;
// it is never timed out, only canceled through its context.
package operator

import (
	"context"
	"fmt"
)

// PromptKind says what the operator is being asked to do.
type PromptKind string

const (
	PromptLogin   PromptKind = "login"
	PromptCaptcha PromptKind = "captcha"
)

// Prompt is one request for human action.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Board   string     `json:"board"`
	URL     string     `json:"url,omitempty"`
	Message string     `json:"message"`
}

// Operator blocks until a human has handled a prompt.
type Operator interface {
	Await(ctx context.Context, p Prompt) error
}

// LoginPrompt asks the operator to sign in to a board.
func LoginPrompt(board, url string) Prompt {
	return Prompt{
		Kind:    PromptLogin,
		Board:   board,
		URL:     url,
		Message: fmt.Sprintf("Sign in to %s in the browser window, then acknowledge.", board),
	}
}

// CaptchaPrompt asks the operator to solve a challenge on the current page.
func CaptchaPrompt(board, url string) Prompt {
	return Prompt{
		Kind:    PromptCaptcha,
		Board:   board,
		URL:     url,
		Message: fmt.Sprintf("Solve the CAPTCHA on %s in the browser window, then acknowledge.", board),
	}
}

// Func adapts a function to Operator.
type Func func(ctx context.Context, p Prompt) error

// Await calls f.
func (f Func) Await(ctx context.Context, p Prompt) error {
	return f(ctx, p)
}
