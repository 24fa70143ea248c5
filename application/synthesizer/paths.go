package synthesizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"step_recorder/domain/locator"
)

// CSSPath builds the hierarchical tag chain from body down to n, adding
// :nth-of-type wherever a tag repeats among its siblings
func CSSPath(n *html.Node) string {
	var parts []string
	for cur := n; isElement(cur); cur = parentElement(cur) {
		tag := tagName(cur)
		if tag == "body" || tag == "html" {
			parts = append(parts, tag)
			break
		}
		if idx, count := sameTagPosition(cur); count > 1 {
			tag += ":nth-of-type(" + strconv.Itoa(idx) + ")"
		}
		parts = append(parts, tag)
	}
	reverse(parts)
	return strings.Join(parts, " > ")
}

// AbsoluteXPath builds the absolute path of n from the document root,
// indexing a step only when the tag repeats among its siblings
func AbsoluteXPath(n *html.Node) string {
	var parts []string
	for cur := n; isElement(cur); cur = parentElement(cur) {
		seg := tagName(cur)
		if idx, count := sameTagPosition(cur); count > 1 {
			seg += "[" + strconv.Itoa(idx) + "]"
		}
		parts = append(parts, seg)
	}
	reverse(parts)
	return "/" + strings.Join(parts, "/")
}

func reverse(parts []string) {
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
}

// FindByXPath locates the element an absolute path points at
func FindByXPath(doc *html.Node, path string) (*html.Node, error) {
	n, err := htmlquery.Query(doc, path)
	if err != nil {
		return nil, fmt.Errorf("evaluate xpath %q: %w", path, err)
	}
	if !isElement(n) {
		return nil, fmt.Errorf("no element at %q", path)
	}
	return n, nil
}

// Validate counts how many elements a raw CSS or XPath expression matches
func Validate(doc *html.Node, expr string) (int, error) {
	loc, err := locator.Parse(expr)
	if err != nil {
		return 0, err
	}
	if !loc.IsRaw() {
		return 0, fmt.Errorf("%w: only css and xpath expressions can be validated against a snapshot", locator.ErrInvalidLocator)
	}
	s := newSnapshot(doc)
	var matches []*html.Node
	switch loc.Kind {
	case locator.KindXPath:
		matches, err = s.xpath(loc.Arg)
	default:
		matches, err = s.css(loc.Arg)
	}
	if err != nil {
		return 0, err
	}
	switch loc.Suffix.Kind {
	case locator.SuffixFirst, locator.SuffixLast:
		if len(matches) > 0 {
			return 1, nil
		}
	case locator.SuffixNth:
		if loc.Suffix.Index < len(matches) {
			return 1, nil
		}
		return 0, nil
	}
	return len(matches), nil
}
