package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	controlSelector = "input, textarea, select"
	headingSelector = "legend, strong, b, h1, h2, h3, h4, h5, h6, [role='heading']"
	labelLike       = "label, strong, b, legend, .question-text, .field-label, [class*='label']"
)

// page is a parsed snapshot with every element's document position.
type page struct {
	doc      *goquery.Document
	order    map[*html.Node]int
	controls []*html.Node
}

func newPage(doc *goquery.Document) *page {
	p := &page{doc: doc, order: map[*html.Node]int{}}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.order[n] = len(p.order)
			if isFieldControl(n) {
				p.controls = append(p.controls, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return p
}

func (p *page) pos(s *goquery.Selection) int {
	if s.Length() == 0 {
		return -1
	}
	if idx, ok := p.order[s.Get(0)]; ok {
		return idx
	}
	return -1
}

// controlBetween reports whether a visible control outside members sits
// strictly between two document positions.
func (p *page) controlBetween(lo, hi int, members map[*html.Node]bool) bool {
	for _, n := range p.controls {
		idx := p.order[n]
		if idx > lo && idx < hi && !members[n] {
			return true
		}
	}
	return false
}

func isFieldControl(n *html.Node) bool {
	switch n.Data {
	case "textarea", "select":
		return true
	case "input":
		switch strings.ToLower(nodeAttr(n, "type")) {
		case "hidden", "submit", "button", "reset", "image":
			return false
		}
		return true
	}
	return false
}

func nodeAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// labelText returns the text of an element without the text of nested
// controls (option lists, textarea contents) or scripts.
func labelText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.Data {
			case "select", "textarea", "option", "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return clean(b.String())
}

// clean collapses whitespace and drops a trailing required-asterisk.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	return s
}

func describe(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	if id := attr(s, "id"); id != "" {
		return tag + "#" + id
	}
	if name := attr(s, "name"); name != "" {
		return tag + "[name=" + name + "]"
	}
	return tag
}
