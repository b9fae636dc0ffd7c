package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	captchaStyle = bannerStyle.Background(lipgloss.Color("#D7263D"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

// Terminal prompts on an output stream and waits for Enter on an input
// stream. Concurrent prompts are serialized. One goroutine reads the input
// for the terminal's lifetime, so a canceled prompt never leaves a reader
// behind to swallow the next Enter.
type Terminal struct {
	mu    sync.Mutex
	in    *bufio.Reader
	out   io.Writer
	start sync.Once
	lines chan struct{}
	// set before lines is closed
	readErr error
}

// NewTerminal creates a terminal operator.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, lines: make(chan struct{})}
}

func (t *Terminal) readLines() {
	for {
		if _, err := t.in.ReadString('\n'); err != nil {
			t.readErr = err
			close(t.lines)
			return
		}
		t.lines <- struct{}{}
	}
}

// Await prints the prompt and blocks until a line is read or ctx is done.
func (t *Terminal) Await(ctx context.Context, p Prompt) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start.Do(func() { go t.readLines() })

	style := bannerStyle
	if p.Kind == PromptCaptcha {
		style = captchaStyle
	}
	fmt.Fprintln(t.out, style.Render(fmt.Sprintf("%s · %s", p.Board, p.Kind)))
	fmt.Fprintln(t.out, p.Message)
	if p.URL != "" {
		fmt.Fprintln(t.out, hintStyle.Render(p.URL))
	}
	fmt.Fprint(t.out, hintStyle.Render("Press Enter to continue... "))

	select {
	case _, ok := <-t.lines:
		if !ok {
			return t.closedErr(p)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Terminal) closedErr(p Prompt) error {
	if t.readErr == io.EOF {
		return fmt.Errorf("operator input closed before %s prompt was acknowledged", p.Kind)
	}
	return t.readErr
}
