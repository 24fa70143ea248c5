// Package synthesizer proposes ranked locator candidates for an element of a
// page snapshot.
package synthesizer

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"step_recorder/domain/entities"
	"step_recorder/domain/locator"
)

// maxTextLength bounds text and names used in locators
const maxTextLength = 50

// fitsText reports whether text is non-empty and short enough, counted in
// characters, to be used in a locator
func fitsText(text string) bool {
	return text != "" && utf8.RuneCountInString(text) < maxTextLength
}

// textTags are the elements whose visible text is worth a text locator
var textTags = map[string]bool{
	"a": true, "button": true, "label": true, "p": true, "span": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "td": true, "th": true, "strong": true, "em": true, "b": true,
	"small": true, "summary": true, "legend": true, "option": true,
}

// contentAttrs are matched by the attribute selector strategy, in order
var contentAttrs = []string{"type", "href", "src", "action", "for", "value"}

// xpathAttrs are tried by the attribute based XPath strategy, in order
var xpathAttrs = []string{"placeholder", "aria-label", "alt", "title", "name", "data-testid", "data-test-id"}

// strategy yields at most one candidate for the target
type strategy struct {
	kind       entities.Strategy
	confidence float64
	build      func(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error)
}

// Synthesizer produces locator candidates from page snapshots
type Synthesizer struct {
	log        *logrus.Logger
	strategies []strategy
}

// New - creates a synthesizer with the default strategy order
func New(log *logrus.Logger) *Synthesizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Synthesizer{log: log, strategies: defaultStrategies()}
}

// Candidates returns the ranked candidates for target, which must belong to doc
func (sy *Synthesizer) Candidates(doc, target *html.Node) []entities.SelectorCandidate {
	if doc == nil || !isElement(target) {
		return nil
	}
	snap := newSnapshot(doc)
	var out []entities.SelectorCandidate
	for _, st := range sy.strategies {
		loc, confidence, ok, err := st.build(snap, target)
		if err != nil {
			sy.log.WithFields(logrus.Fields{
				"strategy": st.kind,
				"tag":      tagName(target),
			}).Debugf("Skipping locator strategy: %v", err)
			continue
		}
		if !ok {
			continue
		}
		if confidence == 0 {
			confidence = st.confidence
		}
		out = append(out, entities.SelectorCandidate{
			Strategy:   st.kind,
			Expression: loc.String(),
			Confidence: confidence,
		})
	}
	return entities.RankCandidates(out)
}

func defaultStrategies() []strategy {
	return []strategy{
		{entities.StrategyTestID, 0.95, testIDCandidate},
		{entities.StrategyRole, 0.88, roleCandidate},
		{entities.StrategyLabel, 0.95, labelCandidate},
		{entities.StrategyPlaceholder, 0.90, attrAccessor("placeholder", locator.ByPlaceholder)},
		{entities.StrategyAltText, 0.90, attrAccessor("alt", locator.ByAltText)},
		{entities.StrategyTitle, 0.90, attrAccessor("title", locator.ByTitle)},
		{entities.StrategyText, 0.85, textCandidate},
		{entities.StrategyAriaLabel, 0.85, tagAttrCandidate("aria-label")},
		{entities.StrategyName, 0.80, tagAttrCandidate("name")},
		{entities.StrategyID, 0.9, idCandidate},
		{entities.StrategyCSSClass, 0.5, classCandidate},
		{entities.StrategyCSSAttr, 0.7, contentAttrCandidate},
		{entities.StrategyXPathAttr, 0.6, xpathAttrCandidate},
		{entities.StrategyXPathText, 0.6, xpathTextCandidate},
		{entities.StrategyXPathContains, 0.55, xpathContainsCandidate},
		{entities.StrategyXPathAxes, 0.75, xpathAxesCandidate},
		{entities.StrategyXPathFull, 0.3, xpathFullCandidate},
		{entities.StrategyCSSPath, 0.4, cssPathCandidate},
	}
}

// cssQuery runs a CSS candidate through the uniqueness rule
func cssQuery(s *snapshot, selector string, target *html.Node) (locator.Locator, bool, error) {
	matches, err := s.css(selector)
	if err != nil {
		return locator.Locator{}, false, err
	}
	loc, ok := disambiguate(locator.CSS(selector), matches, target)
	return loc, ok, nil
}

// xpathQuery runs an XPath candidate through the uniqueness rule
func xpathQuery(s *snapshot, expr string, target *html.Node) (locator.Locator, bool, error) {
	matches, err := s.xpath(expr)
	if err != nil {
		return locator.Locator{}, false, err
	}
	loc, ok := disambiguate(locator.XPath(expr), matches, target)
	return loc, ok, nil
}

func testIDCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	for _, key := range []string{"data-testid", "data-test-id"} {
		if v := attr(target, key); v != "" {
			loc, ok, err := cssQuery(s, "["+key+"="+cssString(v)+"]", target)
			return loc, 0, ok, err
		}
	}
	return locator.Locator{}, 0, false, nil
}

func roleCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	role := roleOf(target)
	if role == "" || role == "presentation" || role == "none" {
		return locator.Locator{}, 0, false, nil
	}
	name := accessibleName(s.doc, target, role)
	if fitsText(name) {
		matches := s.filter(func(e *html.Node) bool {
			return !isHidden(e) && roleOf(e) == role && containsFold(accessibleName(s.doc, e, role), name)
		})
		loc, ok := disambiguate(locator.ByRole(role, name), matches, target)
		return loc, 0, ok, nil
	}
	if !roleOnlyRoles[role] {
		return locator.Locator{}, 0, false, nil
	}
	matches := s.filter(func(e *html.Node) bool {
		return !isHidden(e) && roleOf(e) == role
	})
	loc, ok := disambiguate(locator.ByRole(role, ""), matches, target)
	return loc, 0.6, ok, nil
}

func labelCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	if !isLabelable(target) {
		return locator.Locator{}, 0, false, nil
	}
	confidence := 0.95
	text, _ := explicitLabel(s.doc, target)
	if text == "" {
		text, _ = implicitLabel(target)
		confidence = 0.90
	}
	if !fitsText(text) {
		return locator.Locator{}, 0, false, nil
	}
	matches := s.filter(func(e *html.Node) bool {
		if !isLabelable(e) || isHidden(e) {
			return false
		}
		return containsFold(labelText(s.doc, e), text) || containsFold(attr(e, "aria-label"), text)
	})
	loc, ok := disambiguate(locator.ByLabel(text), matches, target)
	return loc, confidence, ok, nil
}

// attrAccessor builds an accessor strategy keyed on one attribute value
func attrAccessor(key string, build func(string) locator.Locator) func(*snapshot, *html.Node) (locator.Locator, float64, bool, error) {
	return func(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
		v := normalizeSpace(attr(target, key))
		if !fitsText(v) {
			return locator.Locator{}, 0, false, nil
		}
		matches := s.filter(func(e *html.Node) bool {
			return !isHidden(e) && containsFold(normalizeSpace(attr(e, key)), v)
		})
		loc, ok := disambiguate(build(v), matches, target)
		return loc, 0, ok, nil
	}
}

// textCandidate proposes an exact own-text locator, falling back to the
// element's full text
func textCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	if !textTags[tagName(target)] || isEditable(target) {
		return locator.Locator{}, 0, false, nil
	}
	full := innerText(target)
	if !fitsText(full) {
		return locator.Locator{}, 0, false, nil
	}
	exact := ownText(target) == full
	match := func(text string) bool {
		if exact {
			return text == full
		}
		return containsFold(text, full)
	}
	matches := s.filter(func(e *html.Node) bool {
		if isHidden(e) || !match(innerText(e)) {
			return false
		}
		for _, c := range childElements(e) {
			if match(innerText(c)) {
				return false
			}
		}
		return true
	})
	loc, ok := disambiguate(locator.ByText(full, exact), matches, target)
	if exact {
		return loc, 0.85, ok, nil
	}
	return loc, 0.82, ok, nil
}

// tagAttrCandidate proposes tag[key="value"]
func tagAttrCandidate(key string) func(*snapshot, *html.Node) (locator.Locator, float64, bool, error) {
	return func(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
		v := attr(target, key)
		if v == "" {
			return locator.Locator{}, 0, false, nil
		}
		loc, ok, err := cssQuery(s, tagName(target)+"["+key+"="+cssString(v)+"]", target)
		return loc, 0, ok, err
	}
}

func idCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	id := attr(target, "id")
	if id == "" || isGeneratedID(id) {
		return locator.Locator{}, 0, false, nil
	}
	loc, ok, err := cssQuery(s, "#"+cssIdent(id), target)
	return loc, idConfidence(id), ok, err
}

func classCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	classes := stableClasses(attr(target, "class"))
	if len(classes) == 0 {
		return locator.Locator{}, 0, false, nil
	}
	var b strings.Builder
	b.WriteString(tagName(target))
	for _, c := range classes {
		b.WriteByte('.')
		b.WriteString(cssIdent(c))
	}
	loc, ok, err := cssQuery(s, b.String(), target)
	return loc, 0, ok, err
}

func contentAttrCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	for _, key := range contentAttrs {
		v := attr(target, key)
		if v == "" || utf8.RuneCountInString(v) > 200 {
			continue
		}
		loc, ok, err := cssQuery(s, tagName(target)+"["+key+"="+cssString(v)+"]", target)
		if err != nil || !ok {
			continue
		}
		return loc, 0, true, nil
	}
	return locator.Locator{}, 0, false, nil
}

func xpathAttrCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	if id := attr(target, "id"); id != "" && !isGeneratedID(id) {
		if loc, ok, err := xpathQuery(s, "//*[@id="+XPathLiteral(id)+"]", target); err == nil && ok {
			return loc, 0, true, nil
		}
	}
	tag := tagName(target)
	for _, key := range xpathAttrs {
		v := attr(target, key)
		if v == "" {
			continue
		}
		loc, ok, err := xpathQuery(s, "//"+tag+"[@"+key+"="+XPathLiteral(v)+"]", target)
		if err != nil || !ok {
			continue
		}
		return loc, 0, true, nil
	}
	return locator.Locator{}, 0, false, nil
}

func xpathTextCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	if isEditable(target) {
		return locator.Locator{}, 0, false, nil
	}
	text := ownText(target)
	if !fitsText(text) {
		return locator.Locator{}, 0, false, nil
	}
	loc, ok, err := xpathQuery(s, "//"+tagName(target)+"[text()="+XPathLiteral(text)+"]", target)
	return loc, 0, ok, err
}

func xpathContainsCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	if isEditable(target) {
		return locator.Locator{}, 0, false, nil
	}
	text := ownText(target)
	if !fitsText(text) {
		return locator.Locator{}, 0, false, nil
	}
	loc, ok, err := xpathQuery(s, "//"+tagName(target)+"[contains(text(), "+XPathLiteral(text)+")]", target)
	return loc, 0, ok, err
}

// xpathAxesCandidate anchors the target on the text of a preceding sibling,
// then on the text of an ancestor. Only a query matching the target alone
// is accepted. Editable targets skip ancestor anchors, their text is typed.
func xpathAxesCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	tag := tagName(target)
	for sib := previousElement(target); sib != nil; sib = previousElement(sib) {
		text := innerText(sib)
		if !fitsText(text) {
			continue
		}
		expr := "//" + tagName(sib) + "[contains(., " + XPathLiteral(text) + ")]/following-sibling::" + tag
		if loc, ok := uniqueXPath(s, expr, target); ok {
			return loc, 0, true, nil
		}
	}
	if isEditable(target) {
		return locator.Locator{}, 0, false, nil
	}
	for p := parentElement(target); p != nil && tagName(p) != "body" && tagName(p) != "html"; p = parentElement(p) {
		text := firstText(p)
		if !fitsText(text) {
			continue
		}
		expr := "//" + tagName(p) + "[contains(., " + XPathLiteral(text) + ")]//" + tag
		if loc, ok := uniqueXPath(s, expr, target); ok {
			return loc, 0, true, nil
		}
	}
	return locator.Locator{}, 0, false, nil
}

func uniqueXPath(s *snapshot, expr string, target *html.Node) (locator.Locator, bool) {
	matches, err := s.xpath(expr)
	if err != nil || len(matches) != 1 || matches[0] != target {
		return locator.Locator{}, false
	}
	return locator.XPath(expr), true
}

func xpathFullCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	loc, ok, err := xpathQuery(s, AbsoluteXPath(target), target)
	return loc, 0, ok, err
}

func cssPathCandidate(s *snapshot, target *html.Node) (locator.Locator, float64, bool, error) {
	loc, ok, err := cssQuery(s, CSSPath(target), target)
	return loc, 0, ok, err
}
