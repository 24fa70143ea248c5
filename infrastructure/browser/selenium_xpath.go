package browser

import (
	"fmt"
	"strings"

	"step_recorder/application/synthesizer"
	"step_recorder/domain/locator"
)

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// roleTags lists the elements that carry a role implicitly
var roleTags = map[string][]string{
	"button":     {"button", "input[@type='button' or @type='submit' or @type='reset' or @type='image']", "summary"},
	"link":       {"a[@href]", "area[@href]"},
	"textbox":    {"textarea", "input[not(@type) or @type='text' or @type='email' or @type='tel' or @type='url' or @type='password']"},
	"checkbox":   {"input[@type='checkbox']"},
	"radio":      {"input[@type='radio']"},
	"combobox":   {"select[not(@multiple)]"},
	"listbox":    {"select[@multiple]"},
	"heading":    {"h1", "h2", "h3", "h4", "h5", "h6"},
	"img":        {"img[@alt!='']"},
	"list":       {"ul", "ol"},
	"listitem":   {"li"},
	"table":      {"table"},
	"row":        {"tr"},
	"cell":       {"td"},
	"form":       {"form"},
	"navigation": {"nav"},
	"main":       {"main"},
	"option":     {"option"},
	"searchbox":  {"input[@type='search']"},
	"slider":     {"input[@type='range']"},
	"spinbutton": {"input[@type='number']"},
}

// textMatch builds an XPath predicate comparing expr against want, exactly
// or as a case-insensitive substring
func textMatch(expr, want string, exact bool) string {
	if exact {
		return fmt.Sprintf("normalize-space(%s)=%s", expr, synthesizer.XPathLiteral(want))
	}
	return fmt.Sprintf("contains(translate(normalize-space(%s), '%s', '%s'), %s)",
		expr, upperAlpha, lowerAlpha, synthesizer.XPathLiteral(strings.ToLower(want)))
}

// AccessorXPath translates a locator into an XPath 1.0 expression for
// drivers without accessor support. Suffixes are not included.
func AccessorXPath(loc locator.Locator) (string, error) {
	switch loc.Kind {
	case locator.KindXPath:
		return loc.Arg, nil
	case locator.KindTestID:
		return "//*[@data-testid=" + synthesizer.XPathLiteral(loc.Arg) + "]", nil
	case locator.KindPlaceholder:
		return "//*[" + textMatch("@placeholder", loc.Arg, loc.Exact) + "]", nil
	case locator.KindAltText:
		return "//*[" + textMatch("@alt", loc.Arg, loc.Exact) + "]", nil
	case locator.KindTitle:
		return "//*[" + textMatch("@title", loc.Arg, loc.Exact) + "]", nil
	case locator.KindText:
		return "//*[text()[" + textMatch(".", loc.Arg, loc.Exact) + "]]", nil
	case locator.KindLabel:
		match := textMatch(".", loc.Arg, loc.Exact)
		return fmt.Sprintf("//*[@id=//label[%s]/@for] | //label[%s]//*[self::input or self::select or self::textarea] | //*[%s]",
			match, match, textMatch("@aria-label", loc.Arg, loc.Exact)), nil
	case locator.KindRole:
		return roleXPath(loc), nil
	}
	return "", fmt.Errorf("%w: no xpath form for %s", locator.ErrInvalidLocator, loc.Kind)
}

func roleXPath(loc locator.Locator) string {
	role := strings.ToLower(strings.TrimSpace(loc.Arg))
	alts := []string{"//*[@role=" + synthesizer.XPathLiteral(role) + "]"}
	for _, tag := range roleTags[role] {
		alts = append(alts, "//"+tag+"[not(@role)]")
	}
	expr := strings.Join(alts, " | ")
	if loc.Name == "" {
		return expr
	}
	name := strings.Join([]string{
		textMatch("@aria-label", loc.Name, loc.Exact),
		textMatch(".", loc.Name, loc.Exact),
		textMatch("@value", loc.Name, loc.Exact),
		textMatch("@alt", loc.Name, loc.Exact),
		textMatch("@title", loc.Name, loc.Exact),
	}, " or ")
	return "(" + expr + ")[" + name + "]"
}
