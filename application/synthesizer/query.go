package synthesizer

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"step_recorder/domain/locator"
)

// snapshot is one parsed page shared by every strategy of a synthesis pass
type snapshot struct {
	doc      *html.Node
	query    *goquery.Document
	all      []*html.Node
	cssCache map[string][]*html.Node
}

func newSnapshot(doc *html.Node) *snapshot {
	return &snapshot{
		doc:      doc,
		query:    goquery.NewDocumentFromNode(doc),
		all:      elements(doc),
		cssCache: make(map[string][]*html.Node),
	}
}

// css returns the elements matching a CSS selector in document order
func (s *snapshot) css(selector string) ([]*html.Node, error) {
	if nodes, ok := s.cssCache[selector]; ok {
		return nodes, nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile css %q: %w", selector, err)
	}
	nodes := s.query.FindMatcher(matcher).Nodes
	s.cssCache[selector] = nodes
	return nodes, nil
}

// xpath returns the nodes matching an XPath expression
func (s *snapshot) xpath(expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(s.doc, expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// filter returns every element satisfying keep in document order
func (s *snapshot) filter(keep func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for _, e := range s.all {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// disambiguate applies the uniqueness rule to the matches of base.
// A single match that is the target keeps base as-is; several matches that
// include the target get a positional suffix; otherwise the candidate is
// discarded.
func disambiguate(base locator.Locator, matches []*html.Node, target *html.Node) (locator.Locator, bool) {
	idx := indexOf(matches, target)
	if idx < 0 {
		return locator.Locator{}, false
	}
	if len(matches) == 1 {
		return base, true
	}
	return base.Nth(idx), true
}
