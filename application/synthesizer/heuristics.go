package synthesizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	generatedIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(ember|react|radix-|headlessui-|mui-)`),
		regexp.MustCompile(`^:r`),
		regexp.MustCompile(`^_`),
		regexp.MustCompile(`^\d`),
		regexp.MustCompile(`\d{4,}`),
		regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`),
		regexp.MustCompile(`(?i)(^|[-_])[0-9a-f]{8,}($|[-_])`),
	}
	shortDigitRun = regexp.MustCompile(`\d{2,3}`)

	volatileClassPrefixes = []string{"ng-", "css-", "sc-", "jsx-", "emotion-", "is-", "has-"}
	volatileClassStates   = map[string]bool{
		"active": true, "focus": true, "focused": true, "hover": true, "selected": true,
		"open": true, "show": true, "visible": true, "disabled": true, "ng-star-inserted": true,
	}
	hashedClass = regexp.MustCompile(`(__|--|_)[a-zA-Z0-9]{5,}$|^[a-zA-Z]{1,3}[0-9][a-zA-Z0-9]{3,}$`)
)

const maxClassTokens = 3

// isGeneratedID reports whether an id looks framework generated
func isGeneratedID(id string) bool {
	for _, re := range generatedIDPatterns {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

// idConfidence lowers confidence for ids carrying a short numeric run
func idConfidence(id string) float64 {
	if shortDigitRun.MatchString(id) {
		return 0.8
	}
	return 0.9
}

// stableClasses filters out generated and state class tokens
func stableClasses(class string) []string {
	var out []string
	for _, c := range strings.Fields(class) {
		if len(c) <= 2 || volatileClassStates[c] || hashedClass.MatchString(c) && hasDigit(c) {
			continue
		}
		volatile := false
		for _, p := range volatileClassPrefixes {
			if strings.HasPrefix(c, p) {
				volatile = true
				break
			}
		}
		if volatile {
			continue
		}
		out = append(out, c)
		if len(out) == maxClassTokens {
			break
		}
	}
	return out
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// cssIdent escapes s for use as a CSS identifier
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case i == 0 && unicode.IsDigit(r):
			fmt.Fprintf(&b, `\%x `, r)
		case r == '-' || r == '_' || r >= 0x80 || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cssString quotes s as a double-quoted CSS string
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// XPathLiteral quotes s for XPath 1.0, which has no escape sequences
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
