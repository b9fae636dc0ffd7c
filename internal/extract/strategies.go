package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/job-applier/internal/browser"
)

// Strategy names usable in board tables.
const (
	StrategyFieldsetLegend = "fieldset_legend"
	StrategyNearestHeading = "nearest_heading"

	StrategyLabelFor       = "label_for"
	StrategyWrappingLabel  = "wrapping_label"
	StrategyPrecedingLabel = "preceding_label"
	StrategyAriaLabel      = "aria_label"
)

// DefaultQuestionStrategies and DefaultLabelStrategies are tried in order
// when a board does not configure its own.
var (
	DefaultQuestionStrategies = []string{StrategyFieldsetLegend, StrategyNearestHeading}
	DefaultLabelStrategies    = []string{StrategyLabelFor, StrategyWrappingLabel, StrategyPrecedingLabel, StrategyAriaLabel}
)

// questionStrategy finds the question text of a radio or checkbox group.
type questionStrategy func(p *page, g *group) string

// labelStrategy finds the label text of a single control.
type labelStrategy func(p *page, ctl *goquery.Selection) string

var questionStrategies = map[string]questionStrategy{
	StrategyFieldsetLegend: fieldsetLegend,
	StrategyNearestHeading: nearestHeading,
}

var labelStrategies = map[string]labelStrategy{
	StrategyLabelFor:       labelFor,
	StrategyWrappingLabel:  wrappingLabel,
	StrategyPrecedingLabel: precedingLabel,
	StrategyAriaLabel:      ariaLabel,
}

// fieldsetLegend uses the legend of the group's fieldset, preferring its
// bold part when the legend carries one.
func fieldsetLegend(p *page, g *group) string {
	fs := g.controls[0].Closest("fieldset")
	if fs.Length() == 0 {
		return ""
	}
	legend := fs.Find("legend").First()
	if legend.Length() == 0 {
		return ""
	}
	if strong := legend.Find("strong").First(); strong.Length() > 0 {
		if t := labelText(strong); t != "" {
			return t
		}
	}
	return labelText(legend)
}

// nearestHeading walks up from the group's first control and, at the first
// ancestor level holding one, takes the last heading-like element preceding
// the group. A heading separated from the group by another field belongs to
// that field and is rejected.
func nearestHeading(p *page, g *group) string {
	first := g.controls[0]
	firstIdx := p.pos(first)

	for anc := first.Parent(); anc.Length() > 0; anc = anc.Parent() {
		var best *goquery.Selection
		bestIdx := -1
		anc.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
			idx := p.pos(h)
			if idx >= firstIdx || idx <= bestIdx {
				return
			}
			if h.Closest("label").Length() > 0 || labelText(h) == "" {
				return
			}
			best, bestIdx = h, idx
		})

		if best != nil {
			if p.controlBetween(bestIdx, firstIdx, g.members) {
				return ""
			}
			return labelText(best)
		}

		if tag := goquery.NodeName(anc); tag == "form" || tag == "body" {
			return ""
		}
	}
	return ""
}

// labelFor uses a label bound by the control's id.
func labelFor(p *page, ctl *goquery.Selection) string {
	id := attr(ctl, "id")
	if id == "" {
		return ""
	}
	return labelText(p.doc.Find(`label[for="` + escapeAttr(id) + `"]`).First())
}

// wrappingLabel uses a label element that contains the control.
func wrappingLabel(p *page, ctl *goquery.Selection) string {
	lbl := ctl.Closest("label")
	if lbl.Length() == 0 {
		return ""
	}
	return labelText(lbl)
}

// precedingLabel looks at preceding siblings of the control and of its
// nearest ancestors for a label-like element. It stops at a sibling that
// holds another control.
func precedingLabel(p *page, ctl *goquery.Selection) string {
	cur := ctl
	for depth := 0; depth < 3 && cur.Length() > 0; depth++ {
		for prev := cur.Prev(); prev.Length() > 0; prev = prev.Prev() {
			if prev.Is(controlSelector) || prev.Find(controlSelector).Length() > 0 {
				return ""
			}
			if prev.Is(labelLike) {
				if t := labelText(prev); t != "" {
					return t
				}
				continue
			}
			if nested := prev.Find(labelLike).Last(); nested.Length() > 0 {
				if t := labelText(nested); t != "" {
					return t
				}
			}
		}

		cur = cur.Parent()
		if tag := goquery.NodeName(cur); tag == "form" || tag == "body" {
			return ""
		}
	}
	return ""
}

// ariaLabel uses aria-label, then the elements named by aria-labelledby.
func ariaLabel(p *page, ctl *goquery.Selection) string {
	if t := clean(attr(ctl, "aria-label")); t != "" {
		return t
	}
	ids := strings.Fields(attr(ctl, "aria-labelledby"))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if t := labelText(p.doc.Find(browser.ByID(id)).First()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// optionLabel resolves the visible label of one radio or checkbox control.
func optionLabel(p *page, ctl *goquery.Selection) string {
	if t := labelFor(p, ctl); t != "" {
		return t
	}
	if t := wrappingLabel(p, ctl); t != "" {
		return t
	}
	// <input type="radio"> Yes
	for n := ctl.Get(0).NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			if t := clean(n.Data); t != "" {
				return t
			}
			continue
		}
		if n.Type != html.ElementNode {
			continue
		}
		if isFieldControl(n) {
			break
		}
		if t := labelText(goquery.NewDocumentFromNode(n).Selection); t != "" {
			return t
		}
		break
	}
	return clean(attr(ctl, "aria-label"))
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
