// Package page builds the read-only DOM view shared by the page features.
package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Model is a parsed page. The zero document (see Empty) answers every query
// with no results.
type Model struct {
	doc *goquery.Document
}

// Element is a detached snapshot of one tag.
type Element struct {
	Tag   string
	attrs map[string]string
	text  string
}

// Attr returns the value of attribute name (case-insensitive).
func (e Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[strings.ToLower(name)]
	return v, ok
}

// AttrOr returns the attribute value or "" when absent.
func (e Element) AttrOr(name string) string {
	v, _ := e.Attr(name)
	return v
}

// HasAttr reports whether the attribute is present at all.
func (e Element) HasAttr(name string) bool {
	_, ok := e.attrs[strings.ToLower(name)]
	return ok
}

// Text returns the element's text content, including descendants.
func (e Element) Text() string {
	return e.text
}

// Empty returns a model over an empty document.
func Empty() *Model {
	return &Model{}
}

// Parse builds a model from an HTML body. Parse errors yield Empty.
func Parse(body string) *Model {
	if strings.TrimSpace(body) == "" {
		return Empty()
	}
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return Empty()
	}
	return &Model{doc: goquery.NewDocumentFromNode(root)}
}

// IsEmpty reports whether the model has no parsed document behind it.
func (m *Model) IsEmpty() bool {
	return m == nil || m.doc == nil
}

// All returns every element whose tag is one of tags, in document order.
func (m *Model) All(tags ...string) []Element {
	if m.IsEmpty() || len(tags) == 0 {
		return nil
	}
	var out []Element
	m.doc.Find(strings.Join(tags, ", ")).Each(func(_ int, s *goquery.Selection) {
		out = append(out, snapshot(s))
	})
	return out
}

// Matching returns elements of tag where pred holds for at least one of the
// listed attribute names.
func (m *Model) Matching(tag string, attrs []string, pred func(name, value string) bool) []Element {
	var out []Element
	for _, el := range m.All(tag) {
		for _, name := range attrs {
			if v, ok := el.Attr(name); ok && pred(name, v) {
				out = append(out, el)
				break
			}
		}
	}
	return out
}

// First returns the first element with the given tag.
func (m *Model) First(tag string) (Element, bool) {
	if m.IsEmpty() {
		return Element{}, false
	}
	s := m.doc.Find(tag).First()
	if s.Length() == 0 {
		return Element{}, false
	}
	return snapshot(s), true
}

// Text returns all text in the document, script bodies included.
func (m *Model) Text() string {
	if m.IsEmpty() {
		return ""
	}
	return m.doc.Text()
}

func snapshot(s *goquery.Selection) Element {
	el := Element{Tag: goquery.NodeName(s), text: s.Text()}
	if node := s.Get(0); node != nil && len(node.Attr) > 0 {
		el.attrs = make(map[string]string, len(node.Attr))
		for _, a := range node.Attr {
			key := strings.ToLower(a.Key)
			if _, dup := el.attrs[key]; !dup {
				el.attrs[key] = a.Val
			}
		}
	}
	return el
}
