// Package extract converts a job board's application page into an ordered
// list of field descriptors, one per logical question.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/job-applier/internal/boards"
	"github.com/jonathan/job-applier/internal/browser"
	"github.com/jonathan/job-applier/internal/types"
)

// DefaultFormScope is used when a board does not name one.
const DefaultFormScope = "form"

// Options configures an Extractor.
type Options struct {
	// FormScope selects the containers to scan. When nothing matches, the
	// whole body is scanned.
	FormScope          string
	QuestionStrategies []string
	LabelStrategies    []string
	Logger             *slog.Logger
}

// Extractor produces field descriptors from page snapshots. It holds no
// per-page state and is safe for concurrent use.
type Extractor struct {
	scope     string
	questions []questionStrategy
	labels    []labelStrategy
	logger    *slog.Logger
}

// New creates an Extractor. Unknown strategy names are an error.
func New(opts Options) (*Extractor, error) {
	e := &Extractor{scope: opts.FormScope, logger: opts.Logger}
	if e.scope == "" {
		e.scope = DefaultFormScope
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	qNames := opts.QuestionStrategies
	if len(qNames) == 0 {
		qNames = DefaultQuestionStrategies
	}
	for _, name := range qNames {
		s, ok := questionStrategies[name]
		if !ok {
			return nil, fmt.Errorf("unknown question strategy %q", name)
		}
		e.questions = append(e.questions, s)
	}

	lNames := opts.LabelStrategies
	if len(lNames) == 0 {
		lNames = DefaultLabelStrategies
	}
	for _, name := range lNames {
		s, ok := labelStrategies[name]
		if !ok {
			return nil, fmt.Errorf("unknown label strategy %q", name)
		}
		e.labels = append(e.labels, s)
	}
	return e, nil
}

// ForBoard creates an Extractor configured by a board table.
func ForBoard(b *boards.Board, logger *slog.Logger) (*Extractor, error) {
	return New(Options{
		FormScope:          b.FormScope,
		QuestionStrategies: b.QuestionStrategies,
		LabelStrategies:    b.LabelStrategies,
		Logger:             logger,
	})
}

// group is a radio or checkbox cluster sharing one name.
type group struct {
	kind     types.FieldKind
	name     string
	handle   string
	controls []*goquery.Selection
	members  map[*html.Node]bool
}

type located struct {
	pos        int
	descriptor types.FieldDescriptor
}

// FromDriver extracts descriptors from the driver's current page.
func (e *Extractor) FromDriver(ctx context.Context, d browser.Driver) ([]types.FieldDescriptor, error) {
	src, err := d.PageSource(ctx)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to read page source", Cause: err}
	}
	return e.Extract(src)
}

// Extract parses pageHTML and returns its descriptors in page order. Elements
// that cannot be fully resolved are dropped and logged; the only error is an
// unparsable document.
func (e *Extractor) Extract(pageHTML string) ([]types.FieldDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse page", Cause: err}
	}
	return e.ExtractDocument(doc), nil
}

// ExtractDocument returns the descriptors of an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) []types.FieldDescriptor {
	p := newPage(doc)

	scope := doc.Find(e.scope)
	if scope.Length() == 0 {
		scope = doc.Find("body")
	}

	var found []located
	groups := map[string]*group{}
	var groupOrder []*group

	scope.Find(controlSelector).Each(func(_ int, ctl *goquery.Selection) {
		if !isFieldControl(ctl.Get(0)) {
			return
		}
		if _, disabled := ctl.Attr("disabled"); disabled {
			return
		}

		tag := goquery.NodeName(ctl)
		typ := strings.ToLower(attr(ctl, "type"))

		if tag == "input" && (typ == "radio" || typ == "checkbox") {
			kind := types.KindRadioGroup
			if typ == "checkbox" {
				kind = types.KindCheckboxGroup
			}
			name := attr(ctl, "name")
			key := string(kind) + ":" + name
			handle := browser.ByName("input", name)
			if name == "" {
				id := attr(ctl, "id")
				if id == "" {
					e.skip(ctl, "grouped control has neither name nor id")
					return
				}
				key = string(kind) + "#" + id
				handle = browser.ByID(id)
			}
			g, ok := groups[key]
			if !ok {
				g = &group{kind: kind, name: name, handle: handle, members: map[*html.Node]bool{}}
				groups[key] = g
				groupOrder = append(groupOrder, g)
			}
			g.controls = append(g.controls, ctl)
			g.members[ctl.Get(0)] = true
			return
		}

		if d, ok := e.simpleControl(p, ctl, tag, typ); ok {
			found = append(found, located{pos: p.pos(ctl), descriptor: d})
		}
	})

	for _, g := range groupOrder {
		if d, ok := e.groupDescriptor(p, g); ok {
			found = append(found, located{pos: p.pos(g.controls[0]), descriptor: d})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	out := make([]types.FieldDescriptor, 0, len(found))
	for _, l := range found {
		out = append(out, l.descriptor)
	}
	return out
}

var textInputTypes = map[string]bool{
	"": true, "text": true, "email": true, "tel": true, "number": true, "url": true,
	"date": true, "search": true, "datetime-local": true, "month": true, "time": true, "week": true,
}

func (e *Extractor) simpleControl(p *page, ctl *goquery.Selection, tag, typ string) (types.FieldDescriptor, bool) {
	var kind types.FieldKind
	switch tag {
	case "textarea":
		kind = types.KindTextArea
	case "select":
		kind = types.KindSelect
	case "input":
		if !textInputTypes[typ] {
			e.skip(ctl, "unsupported input type "+typ)
			return types.FieldDescriptor{}, false
		}
		kind = types.KindText
	default:
		return types.FieldDescriptor{}, false
	}

	handle := ""
	if id := attr(ctl, "id"); id != "" {
		handle = browser.ByID(id)
	} else if name := attr(ctl, "name"); name != "" {
		handle = browser.ByName(tag, name)
	} else {
		e.skip(ctl, "control has neither id nor name")
		return types.FieldDescriptor{}, false
	}

	question := ""
	for _, s := range e.labels {
		if question = s(p, ctl); question != "" {
			break
		}
	}
	if question == "" {
		e.skip(ctl, "no label found")
		return types.FieldDescriptor{}, false
	}

	d := types.FieldDescriptor{
		ID:       handle,
		Name:     attr(ctl, "name"),
		Kind:     kind,
		Question: question,
		Required: isRequired(ctl),
	}

	if kind == types.KindSelect {
		seen := map[string]bool{}
		ctl.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value := attr(opt, "value")
			if value == "" || seen[value] {
				return
			}
			seen[value] = true
			label := labelText(opt)
			if label == "" {
				label = value
			}
			d.Options = append(d.Options, types.FieldOption{ID: value, Label: label, Value: value})
		})
		if len(d.Options) == 0 {
			e.skip(ctl, "select has no options with a value")
			return types.FieldDescriptor{}, false
		}
		return d, true
	}

	if ml, err := strconv.Atoi(attr(ctl, "maxlength")); err == nil && ml > 0 {
		d.MaxLength = ml
	}
	return d, true
}

func (e *Extractor) groupDescriptor(p *page, g *group) (types.FieldDescriptor, bool) {
	question := ""
	for _, s := range e.questions {
		if question = s(p, g); question != "" {
			break
		}
	}
	if question == "" {
		e.skip(g.controls[0], "no question found for group")
		return types.FieldDescriptor{}, false
	}

	d := types.FieldDescriptor{
		ID:       g.handle,
		Name:     g.name,
		Kind:     g.kind,
		Question: question,
	}

	seen := map[string]bool{}
	for _, ctl := range g.controls {
		if isRequired(ctl) {
			d.Required = true
		}
		id := attr(ctl, "id")
		value := attr(ctl, "value")

		optID := id
		if optID == "" {
			optID = value
		}
		if optID == "" || seen[optID] {
			e.skip(ctl, "option has no usable identity")
			continue
		}
		seen[optID] = true

		selector := browser.ByID(id)
		if id == "" {
			selector = browser.ByNameValue("input", g.name, value)
		}
		label := optionLabel(p, ctl)
		if label == "" {
			label = value
		}
		if label == "" {
			label = optID
		}
		d.Options = append(d.Options, types.FieldOption{ID: optID, Label: label, Value: value, Selector: selector})
	}

	if len(d.Options) == 0 {
		e.skip(g.controls[0], "group has no options")
		return types.FieldDescriptor{}, false
	}
	return d, true
}

func isRequired(ctl *goquery.Selection) bool {
	if _, ok := ctl.Attr("required"); ok {
		return true
	}
	return strings.EqualFold(attr(ctl, "aria-required"), "true")
}

func (e *Extractor) skip(ctl *goquery.Selection, msg string) {
	err := &ExtractionError{Element: describe(ctl), Message: msg}
	e.logger.Debug("skipping element", slog.String("error", err.Error()))
}
