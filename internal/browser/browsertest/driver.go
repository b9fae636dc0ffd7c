// Package browsertest provides an in-memory browser.Driver backed by static
// HTML documents, for exercising the engine without a browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-applier/internal/browser"
)

// ClickHook runs after a click on the selector it is registered for. Hooks
// typically call Load to simulate navigation. A returned error is returned
// from Click.
type ClickHook func(d *Driver) error

// Driver is a fake browser.Driver. Pages are keyed by URL.
type Driver struct {
	mu sync.Mutex

	pages map[string]string
	hooks map[string]ClickHook
	url   string
	doc   *goquery.Document

	clicks      []string
	navigations []string
	values      map[string]string
	closed      bool
}

var _ browser.Driver = (*Driver)(nil)

// New creates a fake driver serving the given pages.
func New(pages map[string]string) *Driver {
	if pages == nil {
		pages = map[string]string{}
	}
	return &Driver{
		pages:  pages,
		hooks:  map[string]ClickHook{},
		values: map[string]string{},
	}
}

// AddPage registers (or replaces) the HTML served for url.
func (d *Driver) AddPage(url, html string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[url] = html
}

// OnClick registers a hook for clicks on selector.
func (d *Driver) OnClick(selector string, hook ClickHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks[selector] = hook
}

// Load replaces the current document with the page registered for url,
// as if the page had navigated there itself.
func (d *Driver) Load(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(url)
}

// SetHTML replaces the current document without changing the URL.
func (d *Driver) SetHTML(html string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	d.doc = doc
	return nil
}

// SetURL changes the location without reloading, like a fragment change.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

func (d *Driver) load(url string) error {
	html, ok := d.pages[url]
	if !ok {
		return fmt.Errorf("no page registered for %s", url)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	d.url = url
	d.doc = doc
	return nil
}

// Clicks returns the selectors clicked so far, in order.
func (d *Driver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// ClickCount returns how many times selector was clicked.
func (d *Driver) ClickCount(selector string) int {
	n := 0
	for _, c := range d.Clicks() {
		if c == selector {
			n++
		}
	}
	return n
}

// Navigations returns the URLs passed to Navigate.
func (d *Driver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Value returns the last value set on selector through SetValue.
func (d *Driver) Value(selector string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[selector]
	return v, ok
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) find(selector string) *goquery.Selection {
	if d.doc == nil {
		return nil
	}
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return nil
	}
	return sel.First()
}

// Navigate loads the page registered for url.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigations = append(d.navigations, url)
	return d.load(url)
}

// CurrentURL returns the current location.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

// PageSource serializes the current document.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return "", nil
	}
	return d.doc.Html()
}

// Exists reports whether selector matches.
func (d *Driver) Exists(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.find(selector) != nil, nil
}

// WaitVisible succeeds immediately when selector matches and otherwise
// returns a timeout error without sleeping.
func (d *Driver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.find(selector) != nil {
		return nil
	}
	return &browser.TimeoutError{Selector: selector, Timeout: timeout}
}

// Attribute returns an attribute of the first match.
func (d *Driver) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.find(selector)
	if el == nil {
		return "", false, browser.ErrNotFound
	}
	v, ok := el.Attr(name)
	return v, ok, nil
}

// Text returns the trimmed text of the first match.
func (d *Driver) Text(ctx context.Context, selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.find(selector)
	if el == nil {
		return "", browser.ErrNotFound
	}
	return strings.TrimSpace(el.Text()), nil
}

// Click records the click, applies checkbox and radio semantics, and runs
// any hook registered for selector.
func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	el := d.find(selector)
	if el == nil {
		d.mu.Unlock()
		return browser.ErrNotFound
	}
	d.clicks = append(d.clicks, selector)
	d.activate(el)
	hook := d.hooks[selector]
	d.mu.Unlock()

	if hook != nil {
		return hook(d)
	}
	return nil
}

// activate mirrors what a browser does on click for labels and toggles.
func (d *Driver) activate(el *goquery.Selection) {
	if goquery.NodeName(el) == "label" {
		if target, ok := el.Attr("for"); ok {
			if ctl := d.find(browser.ByID(target)); ctl != nil {
				d.activate(ctl)
			}
			return
		}
		if ctl := el.Find("input").First(); ctl.Length() > 0 {
			d.activate(ctl)
		}
		return
	}
	if goquery.NodeName(el) != "input" {
		return
	}

	typ, _ := el.Attr("type")
	switch strings.ToLower(typ) {
	case "checkbox":
		if _, checked := el.Attr("checked"); checked {
			el.RemoveAttr("checked")
		} else {
			el.SetAttr("checked", "checked")
		}
	case "radio":
		if name, ok := el.Attr("name"); ok && d.doc != nil {
			d.doc.Find(browser.ByName("input", name)).RemoveAttr("checked")
		}
		el.SetAttr("checked", "checked")
	}
}

// SetValue sets the value of an input or the text of a textarea.
func (d *Driver) SetValue(ctx context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.find(selector)
	if el == nil {
		return browser.ErrNotFound
	}
	if goquery.NodeName(el) == "textarea" {
		el.SetText(value)
	} else {
		el.SetAttr("value", value)
	}
	d.values[selector] = value
	return nil
}

// SelectOption marks the option with value as selected.
func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.find(selector)
	if el == nil {
		return browser.ErrNotFound
	}
	var target *goquery.Selection
	el.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if v, _ := opt.Attr("value"); v == value && target == nil {
			target = opt
		}
	})
	if target == nil {
		return browser.ErrNotFound
	}
	el.Find("option").RemoveAttr("selected")
	target.SetAttr("selected", "selected")
	d.values[selector] = value
	return nil
}

// IsChecked reports whether the first match carries the checked attribute.
func (d *Driver) IsChecked(ctx context.Context, selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el := d.find(selector)
	if el == nil {
		return false, browser.ErrNotFound
	}
	_, checked := el.Attr("checked")
	return checked, nil
}

// Screenshot returns a placeholder image.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake screenshot"), nil
}

// Close marks the driver closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
