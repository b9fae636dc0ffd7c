package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-applier/internal/browser"
)

// pageText returns the lower-cased, whitespace-collapsed text of the body.
func pageText(ctx context.Context, d browser.Driver) string {
	src, err := d.PageSource(ctx)
	if err != nil || src == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return strings.ToLower(src)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.ToLower(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
}

func currentURL(ctx context.Context, d browser.Driver) string {
	u, err := d.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return strings.ToLower(u)
}

// containsAny returns the first needle found in haystack. Needles are
// compared case-insensitively; haystack must already be lower-cased.
func containsAny(haystack string, needles []string) (string, bool) {
	if haystack == "" {
		return "", false
	}
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return n, true
		}
	}
	return "", false
}

// poll calls fn until it returns true, timeout elapses or ctx is done.
// fn is always called at least once.
func poll(ctx context.Context, timeout, interval time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if fn() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}

// indicator names which success signal matched.
type indicator string

const (
	indicatorURL    indicator = "url"
	indicatorMarker indicator = "marker"
	indicatorText   indicator = "text"
)

// detectSuccess checks, in order, the URL, success markers and page text.
func (w *Wizard) detectSuccess(ctx context.Context) (indicator, string, bool) {
	sig := w.board.Signals
	if m, ok := containsAny(currentURL(ctx, w.driver), sig.SuccessURL); ok {
		return indicatorURL, m, true
	}
	if sel, ok := browser.FirstExisting(ctx, w.driver, sig.SuccessMarkers...); ok {
		return indicatorMarker, sel, true
	}
	if m, ok := containsAny(pageText(ctx, w.driver), sig.SuccessText); ok {
		return indicatorText, m, true
	}
	return "", "", false
}

func (w *Wizard) captchaPresent(ctx context.Context) bool {
	_, ok := browser.FirstExisting(ctx, w.driver, w.board.CaptchaMarkers...)
	return ok
}

// captchaBlocking reports a CAPTCHA the operator has not acknowledged on the
// current page.
func (w *Wizard) captchaBlocking(ctx context.Context) bool {
	return w.captchaPresent(ctx) && !w.captchaCleared[currentURL(ctx, w.driver)]
}

func (w *Wizard) atReview(ctx context.Context) bool {
	_, ok := containsAny(currentURL(ctx, w.driver), w.board.Signals.ReviewURL)
	return ok
}

func (w *Wizard) onScreeningPage(ctx context.Context) bool {
	_, ok := containsAny(currentURL(ctx, w.driver), w.board.Signals.ScreeningURL)
	return ok
}
