package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// DefaultActionTimeout bounds every single page operation.
const DefaultActionTimeout = 30 * time.Second

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// SessionOptions configures a Chrome session.
type SessionOptions struct {
	Headless bool
	// RemoteURL attaches to an already running browser's DevTools websocket
	// instead of launching one.
	RemoteURL string
	// UserDataDir persists cookies so a signed-in session survives restarts.
	UserDataDir   string
	UserAgent     string
	WindowWidth   int
	WindowHeight  int
	ActionTimeout time.Duration
	// HumanTyping types text one key at a time with natural delays.
	HumanTyping bool
	Logger      *slog.Logger
}

// DefaultSessionOptions returns sensible defaults for a visible browser.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		UserAgent:     DefaultUserAgent,
		WindowWidth:   1366,
		WindowHeight:  900,
		ActionTimeout: DefaultActionTimeout,
	}
}

// ChromeDriver drives one Chrome tab over the DevTools protocol.
type ChromeDriver struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    SessionOptions
	logger  *slog.Logger
}

// NewChromeDriver launches (or attaches to) Chrome and opens a tab.
func NewChromeDriver(ctx context.Context, opts SessionOptions) (*ChromeDriver, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WindowWidth == 0 || opts.WindowHeight == 0 {
		opts.WindowWidth, opts.WindowHeight = 1366, 900
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		flags := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", opts.Headless),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(opts.UserAgent),
			chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		)
		if opts.UserDataDir != "" {
			flags = append(flags, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, flags...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// start the browser now so launch failures surface here
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("browser session started",
		slog.Bool("headless", opts.Headless),
		slog.String("remote_url", opts.RemoteURL))

	return &ChromeDriver{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{tabCancel, allocCancel},
		opts:    opts,
		logger:  logger,
	}, nil
}

// run executes actions against the tab, bounded by the action timeout and by
// the caller's context.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, d.opts.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the body.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the tab's location.
func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// PageSource returns the document's outer HTML.
func (d *ChromeDriver) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Exists reports whether selector matches at least one element. It never waits.
func (d *ChromeDriver) Exists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// WaitVisible blocks until selector is visible.
func (d *ChromeDriver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Selector: selector, Timeout: timeout}
	}
	return err
}

// Attribute returns the named attribute of the first match.
func (d *ChromeDriver) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	if ok, err := d.Exists(ctx, selector); err != nil {
		return "", false, err
	} else if !ok {
		return "", false, ErrNotFound
	}
	var value string
	var present bool
	if err := d.run(ctx, chromedp.AttributeValue(selector, name, &value, &present, chromedp.ByQuery)); err != nil {
		return "", false, err
	}
	return value, present, nil
}

// Text returns the visible text of the first match.
func (d *ChromeDriver) Text(ctx context.Context, selector string) (string, error) {
	if ok, err := d.Exists(ctx, selector); err != nil {
		return "", err
	} else if !ok {
		return "", ErrNotFound
	}
	var text string
	if err := d.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Click clicks the first match through the DOM. Labels and controls hidden
// behind styled wrappers are clicked the same way a user activation would.
func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	var clicked bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.scrollIntoView({block: "center"});
		el.click();
		return true;
	})()`, selector)
	if err := d.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return ErrNotFound
	}
	return nil
}

// SetValue clears a text control and types value.
func (d *ChromeDriver) SetValue(ctx context.Context, selector, value string) error {
	if ok, err := d.Exists(ctx, selector); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}

	actions := []chromedp.Action{
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	}
	if d.opts.HumanTyping {
		actions = append(actions, humanType(value)...)
	} else {
		actions = append(actions, chromedp.SendKeys(selector, value, chromedp.ByQuery))
	}

	// human typing may legitimately exceed the per-action budget
	runCtx, cancel := context.WithTimeout(d.ctx, d.opts.ActionTimeout+typingBudget(value, d.opts.HumanTyping))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// SelectOption sets a <select> value and dispatches the events frameworks listen for.
func (d *ChromeDriver) SelectOption(ctx context.Context, selector, value string) error {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const opt = Array.from(el.options || []).find(o => o.value === %q);
		if (!opt) return false;
		el.value = opt.value;
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	})()`, selector, value)
	if err := d.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// IsChecked reports the checked property of a radio or checkbox.
func (d *ChromeDriver) IsChecked(ctx context.Context, selector string) (bool, error) {
	var state string
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return "missing";
		return el.checked ? "on" : "off";
	})()`, selector)
	if err := d.run(ctx, chromedp.Evaluate(script, &state)); err != nil {
		return false, err
	}
	if state == "missing" {
		return false, ErrNotFound
	}
	return state == "on", nil
}

// Screenshot captures the full page as PNG.
func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab and, when launched locally, the browser.
func (d *ChromeDriver) Close() error {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.logger.Debug("browser session closed")
	return nil
}
