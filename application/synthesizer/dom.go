package synthesizer

import (
	"strings"

	"golang.org/x/net/html"
)

// nonRendered elements never contribute visible text
var nonRendered = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// normalizeSpace collapses whitespace runs and trims the ends
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// blockTags start a new line of rendered text
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "summary": true, "table": true,
	"tr": true, "td": true, "th": true, "ul": true, "option": true,
}

// innerText approximates the rendered text of an element. Inline elements
// join their neighbours without a gap, block elements are separated.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			tag := tagName(c)
			if nonRendered[tag] {
				return
			}
			if blockTags[tag] {
				b.WriteByte(' ')
				defer b.WriteByte(' ')
			}
			for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
				walk(cc)
			}
		default:
			for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
				walk(cc)
			}
		}
	}
	walk(n)
	return normalizeSpace(b.String())
}

// ownText is the text of the direct text children only
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return normalizeSpace(b.String())
}

// firstText returns the first non-empty descendant text node
func firstText(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := normalizeSpace(c.Data); t != "" {
				return t
			}
		}
		if isElement(c) && !nonRendered[tagName(c)] {
			if t := firstText(c); t != "" {
				return t
			}
		}
	}
	return ""
}

// elements returns every element under root in document order
func elements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func parentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p) {
			return p
		}
	}
	return nil
}

func previousElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if isElement(s) {
			return s
		}
	}
	return nil
}

func childElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// sameTagPosition returns the 1-based index of n among same-tag siblings
// and how many such siblings exist
func sameTagPosition(n *html.Node) (index, count int) {
	parent := n.Parent
	if parent == nil {
		return 1, 1
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c) && c.Data == n.Data {
			count++
			if c == n {
				index = count
			}
		}
	}
	return index, count
}

// isEditable reports whether the element's text is user input: a textarea or
// anything inside a contenteditable region
func isEditable(n *html.Node) bool {
	for e := n; isElement(e); e = parentElement(e) {
		if tagName(e) == "textarea" {
			return true
		}
		if hasAttr(e, "contenteditable") {
			return !strings.EqualFold(strings.TrimSpace(attr(e, "contenteditable")), "false")
		}
	}
	return false
}

// isHidden reports whether the element is hidden from the accessibility tree
// in a way visible from markup alone
func isHidden(n *html.Node) bool {
	for e := n; isElement(e); e = parentElement(e) {
		if hasAttr(e, "hidden") || attr(e, "aria-hidden") == "true" {
			return true
		}
		if tagName(e) == "input" && strings.EqualFold(attr(e, "type"), "hidden") {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(attr(e, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
		if nonRendered[tagName(e)] {
			return true
		}
	}
	return false
}

func indexOf(nodes []*html.Node, target *html.Node) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return -1
}

func findElement(root *html.Node, tag string) *html.Node {
	for _, e := range elements(root) {
		if tagName(e) == tag {
			return e
		}
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
