package synthesizer

import (
	"strings"

	"golang.org/x/net/html"
)

// roleOnlyRoles are specific enough to be proposed without a name
var roleOnlyRoles = map[string]bool{
	"button": true, "checkbox": true, "radio": true, "textbox": true, "combobox": true,
}

// nameFromContent lists roles whose accessible name comes from their text
var nameFromContent = map[string]bool{
	"button": true, "link": true, "heading": true, "checkbox": true, "radio": true,
	"option": true, "cell": true, "columnheader": true, "rowheader": true, "tab": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true, "switch": true,
	"tooltip": true, "treeitem": true, "row": true,
}

// roleOf returns the explicit or implicit ARIA role of an element
func roleOf(n *html.Node) string {
	if r := strings.Fields(attr(n, "role")); len(r) > 0 {
		return strings.ToLower(r[0])
	}
	switch tagName(n) {
	case "a", "area":
		if hasAttr(n, "href") {
			return "link"
		}
	case "button":
		return "button"
	case "input":
		return inputRole(n)
	case "select":
		if hasAttr(n, "multiple") || (attr(n, "size") != "" && attr(n, "size") != "1") {
			return "listbox"
		}
		return "combobox"
	case "textarea":
		return "textbox"
	case "img":
		if hasAttr(n, "alt") && attr(n, "alt") == "" {
			return "presentation"
		}
		return "img"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "nav":
		return "navigation"
	case "main":
		return "main"
	case "aside":
		return "complementary"
	case "header":
		return "banner"
	case "footer":
		return "contentinfo"
	case "ul", "ol", "menu":
		return "list"
	case "li":
		return "listitem"
	case "table":
		return "table"
	case "tr":
		return "row"
	case "td":
		return "cell"
	case "th":
		return "columnheader"
	case "option":
		return "option"
	case "dialog":
		return "dialog"
	case "article":
		return "article"
	case "form":
		if attr(n, "name") != "" || attr(n, "aria-label") != "" {
			return "form"
		}
	case "progress":
		return "progressbar"
	}
	return ""
}

func inputRole(n *html.Node) string {
	switch strings.ToLower(attr(n, "type")) {
	case "button", "submit", "reset", "image":
		return "button"
	case "checkbox":
		return "checkbox"
	case "radio":
		return "radio"
	case "range":
		return "slider"
	case "number":
		return "spinbutton"
	case "search":
		if hasAttr(n, "list") {
			return "combobox"
		}
		return "searchbox"
	case "", "text", "email", "tel", "url":
		if hasAttr(n, "list") {
			return "combobox"
		}
		return "textbox"
	}
	return ""
}

// accessibleName approximates the computed accessible name of an element
func accessibleName(doc, n *html.Node, role string) string {
	if ids := strings.Fields(attr(n, "aria-labelledby")); len(ids) > 0 {
		var parts []string
		for _, id := range ids {
			if ref := elementByID(doc, id); ref != nil {
				parts = append(parts, innerText(ref))
			}
		}
		if name := normalizeSpace(strings.Join(parts, " ")); name != "" {
			return name
		}
	}
	if name := normalizeSpace(attr(n, "aria-label")); name != "" {
		return name
	}

	tag := tagName(n)
	switch tag {
	case "input":
		switch strings.ToLower(attr(n, "type")) {
		case "submit":
			if v := attr(n, "value"); v != "" {
				return normalizeSpace(v)
			}
			return "Submit"
		case "reset":
			if v := attr(n, "value"); v != "" {
				return normalizeSpace(v)
			}
			return "Reset"
		case "button":
			return normalizeSpace(attr(n, "value"))
		case "image":
			return normalizeSpace(attr(n, "alt"))
		}
		if label := labelText(doc, n); label != "" {
			return label
		}
	case "select", "textarea":
		if label := labelText(doc, n); label != "" {
			return label
		}
	case "img":
		if alt := normalizeSpace(attr(n, "alt")); alt != "" {
			return alt
		}
	}

	if nameFromContent[role] {
		if text := innerText(n); text != "" {
			return text
		}
	}
	return normalizeSpace(attr(n, "title"))
}

// labelText returns the text of the label associated with a form control,
// explicit label[for] first, then a wrapping label
func labelText(doc, n *html.Node) string {
	if text, _ := explicitLabel(doc, n); text != "" {
		return text
	}
	text, _ := implicitLabel(n)
	return text
}

func explicitLabel(doc, n *html.Node) (string, *html.Node) {
	id := attr(n, "id")
	if id == "" {
		return "", nil
	}
	for _, e := range elements(doc) {
		if tagName(e) == "label" && attr(e, "for") == id {
			return innerText(e), e
		}
	}
	return "", nil
}

func implicitLabel(n *html.Node) (string, *html.Node) {
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if tagName(p) == "label" {
			own := innerText(n)
			text := innerText(p)
			if own != "" {
				text = normalizeSpace(strings.Replace(text, own, "", 1))
			}
			return text, p
		}
	}
	return "", nil
}

func elementByID(doc *html.Node, id string) *html.Node {
	for _, e := range elements(doc) {
		if attr(e, "id") == id {
			return e
		}
	}
	return nil
}

// isLabelable reports whether a label can be associated with the element
func isLabelable(n *html.Node) bool {
	switch tagName(n) {
	case "input":
		return !strings.EqualFold(attr(n, "type"), "hidden")
	case "select", "textarea", "button", "meter", "output", "progress":
		return true
	}
	return false
}
