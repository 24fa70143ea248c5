package entities

import "strings"

// AssertionKind represents the check an assert step performs
type AssertionKind string

const (
	AssertVisible     AssertionKind = "toBeVisible"
	AssertHidden      AssertionKind = "toBeHidden"
	AssertText        AssertionKind = "toHaveText"
	AssertContainText AssertionKind = "toContainText"
	AssertValue       AssertionKind = "toHaveValue"
	AssertAttribute   AssertionKind = "toHaveAttribute"
	AssertCount       AssertionKind = "toHaveCount"
	AssertEnabled     AssertionKind = "toBeEnabled"
	AssertDisabled    AssertionKind = "toBeDisabled"
	AssertChecked     AssertionKind = "toBeChecked"
	AssertUnchecked   AssertionKind = "toBeUnchecked"
	AssertURL         AssertionKind = "toHaveURL"
	AssertTitle       AssertionKind = "toHaveTitle"
)

// AssertionKinds lists every supported assertion kind
var AssertionKinds = []AssertionKind{
	AssertVisible, AssertHidden, AssertText, AssertContainText, AssertValue,
	AssertAttribute, AssertCount, AssertEnabled, AssertDisabled, AssertChecked,
	AssertUnchecked, AssertURL, AssertTitle,
}

// IsValid reports whether k is a known assertion kind
func (k AssertionKind) IsValid() bool {
	for _, known := range AssertionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsPageLevel reports whether the assertion targets the page rather than an element
func (k AssertionKind) IsPageLevel() bool {
	return k == AssertURL || k == AssertTitle
}

// SplitAttributeAssertion splits the "attr=value" encoding used by
// toHaveAttribute. Only the first '=' separates; the value may contain more.
// hasValue is false when nothing follows the '=' (existence check).
func SplitAttributeAssertion(encoded string) (attr, value string, hasValue bool) {
	attr, value, _ = strings.Cut(encoded, "=")
	return strings.TrimSpace(attr), value, value != ""
}
