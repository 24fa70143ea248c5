// Package locator defines the canonical locator expression grammar shared by
// the synthesizer, the replay engine and the code generators.
//
// Two forms exist. Raw forms are plain CSS selectors or XPath expressions.
// Accessor forms address an element by a user-facing property:
//
//	byRole('button', {name: 'Save'})
//	byText('Sign in', {exact: true}).first()
//	byTestId('login-button')
//
// Either form may end with .first(), .last() or .nth(i).
package locator

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidLocator is returned for expressions outside the grammar
var ErrInvalidLocator = errors.New("invalid locator")

// Kind identifies the lookup a locator performs
type Kind string

const (
	KindCSS         Kind = "css"
	KindXPath       Kind = "xpath"
	KindRole        Kind = "byRole"
	KindText        Kind = "byText"
	KindLabel       Kind = "byLabel"
	KindPlaceholder Kind = "byPlaceholder"
	KindAltText     Kind = "byAltText"
	KindTitle       Kind = "byTitle"
	KindTestID      Kind = "byTestId"
)

// accessorKinds is keyed by the name after the optional "get" prefix is removed
var accessorKinds = map[string]Kind{
	"byRole":        KindRole,
	"byText":        KindText,
	"byLabel":       KindLabel,
	"byPlaceholder": KindPlaceholder,
	"byAltText":     KindAltText,
	"byTitle":       KindTitle,
	"byTestId":      KindTestID,
}

// IsAccessor reports whether the kind is one of the byX forms
func (k Kind) IsAccessor() bool {
	_, ok := accessorKinds[string(k)]
	return ok
}

// AllowsName reports whether the accessor accepts the name option
func (k Kind) AllowsName() bool {
	return k == KindRole
}

// AllowsExact reports whether the accessor accepts the exact option
func (k Kind) AllowsExact() bool {
	return k.IsAccessor() && k != KindTestID
}

// SuffixKind narrows a multi-match locator to one element
type SuffixKind int

const (
	SuffixNone SuffixKind = iota
	SuffixFirst
	SuffixLast
	SuffixNth
)

// Suffix is the optional positional narrowing of a locator
type Suffix struct {
	Kind  SuffixKind
	Index int
}

// String renders the suffix including its leading dot
func (s Suffix) String() string {
	switch s.Kind {
	case SuffixFirst:
		return ".first()"
	case SuffixLast:
		return ".last()"
	case SuffixNth:
		return ".nth(" + strconv.Itoa(s.Index) + ")"
	}
	return ""
}

// Locator is the parsed form of a canonical expression
type Locator struct {
	Kind   Kind
	Arg    string // selector for raw kinds, role or text for accessors
	Name   string // accessible name, byRole only
	Exact  bool
	Suffix Suffix
}

// IsRaw reports whether the locator is a plain CSS or XPath expression
func (l Locator) IsRaw() bool {
	return l.Kind == KindCSS || l.Kind == KindXPath
}

// Base returns the locator without its positional suffix
func (l Locator) Base() Locator {
	l.Suffix = Suffix{}
	return l
}

// WithSuffix returns a copy of l narrowed by s
func (l Locator) WithSuffix(s Suffix) Locator {
	l.Suffix = s
	return l
}

// First narrows l to its first match
func (l Locator) First() Locator { return l.WithSuffix(Suffix{Kind: SuffixFirst}) }

// Last narrows l to its last match
func (l Locator) Last() Locator { return l.WithSuffix(Suffix{Kind: SuffixLast}) }

// Nth narrows l to the match at index i
func (l Locator) Nth(i int) Locator {
	if i == 0 {
		return l.First()
	}
	return l.WithSuffix(Suffix{Kind: SuffixNth, Index: i})
}

// String renders the canonical expression
func (l Locator) String() string {
	var b strings.Builder
	switch l.Kind {
	case KindCSS:
		b.WriteString(l.Arg)
	case KindXPath:
		if !strings.HasPrefix(l.Arg, "//") && !strings.HasPrefix(l.Arg, "(") {
			b.WriteString("xpath=")
		}
		b.WriteString(l.Arg)
	default:
		b.WriteString(string(l.Kind))
		b.WriteString("('")
		b.WriteString(Quote(l.Arg))
		b.WriteString("'")
		var opts []string
		if l.Name != "" {
			opts = append(opts, "name: '"+Quote(l.Name)+"'")
		}
		if l.Exact {
			opts = append(opts, "exact: true")
		}
		if len(opts) > 0 {
			b.WriteString(", {")
			b.WriteString(strings.Join(opts, ", "))
			b.WriteString("}")
		}
		b.WriteString(")")
	}
	b.WriteString(l.Suffix.String())
	return b.String()
}

// Quote escapes s for use inside a single-quoted literal
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

// CSS builds a raw CSS locator
func CSS(selector string) Locator { return Locator{Kind: KindCSS, Arg: selector} }

// XPath builds a raw XPath locator
func XPath(expr string) Locator { return Locator{Kind: KindXPath, Arg: expr} }

// ByRole builds a role locator; an empty name matches any accessible name
func ByRole(role, name string) Locator { return Locator{Kind: KindRole, Arg: role, Name: name} }

// ByText builds a visible text locator
func ByText(text string, exact bool) Locator {
	return Locator{Kind: KindText, Arg: text, Exact: exact}
}

// ByLabel builds a form label locator
func ByLabel(text string) Locator { return Locator{Kind: KindLabel, Arg: text} }

// ByPlaceholder builds a placeholder locator
func ByPlaceholder(text string) Locator { return Locator{Kind: KindPlaceholder, Arg: text} }

// ByAltText builds an alt text locator
func ByAltText(text string) Locator { return Locator{Kind: KindAltText, Arg: text} }

// ByTitle builds a title attribute locator
func ByTitle(text string) Locator { return Locator{Kind: KindTitle, Arg: text} }

// ByTestID builds a test id locator
func ByTestID(id string) Locator { return Locator{Kind: KindTestID, Arg: id} }
