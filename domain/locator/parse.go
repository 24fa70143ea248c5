package locator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	accessorHead = regexp.MustCompile(`^(?:get)?([bB]y(?:Role|Text|Label|Placeholder|AltText|Title|TestId))\(`)
	suffixTail   = regexp.MustCompile(`\.(?:(first|last)\(\)|nth\((\d+)\))$`)
)

// Parse converts a canonical expression into a Locator
func Parse(expr string) (Locator, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "page.")
	if s == "" {
		return Locator{}, fmt.Errorf("%w: empty expression", ErrInvalidLocator)
	}

	if m := accessorHead.FindStringSubmatch(s); m != nil {
		name := "b" + m[1][1:]
		kind := accessorKinds[name]
		p := &parser{src: s, pos: len(m[0])}
		loc, err := p.accessor(kind)
		if err != nil {
			return Locator{}, fmt.Errorf("%w: %q: %v", ErrInvalidLocator, expr, err)
		}
		rest := strings.TrimSpace(s[p.pos:])
		if rest != "" {
			suffix, ok := parseSuffix(rest)
			if !ok {
				return Locator{}, fmt.Errorf("%w: %q: unexpected %q", ErrInvalidLocator, expr, rest)
			}
			loc.Suffix = suffix
		}
		return loc, nil
	}

	var suffix Suffix
	if loc := suffixTail.FindStringIndex(s); loc != nil {
		suffix, _ = parseSuffix(s[loc[0]:])
		s = strings.TrimSpace(s[:loc[0]])
	}
	raw, err := parseRaw(s)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %q: %v", ErrInvalidLocator, expr, err)
	}
	raw.Suffix = suffix
	return raw, nil
}

// MustParse is Parse for expressions known to be valid
func MustParse(expr string) Locator {
	l, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return l
}

func parseRaw(s string) (Locator, error) {
	switch {
	case strings.HasPrefix(s, "xpath="):
		s = strings.TrimPrefix(s, "xpath=")
		if s == "" {
			return Locator{}, fmt.Errorf("empty xpath")
		}
		return XPath(s), nil
	case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "("):
		return XPath(s), nil
	case strings.HasPrefix(s, "css="):
		s = strings.TrimPrefix(s, "css=")
		if s == "" {
			return Locator{}, fmt.Errorf("empty css selector")
		}
	}
	return CSS(s), nil
}

func parseSuffix(s string) (Suffix, bool) {
	m := suffixTail.FindStringSubmatch(s)
	if m == nil || len(m[0]) != len(s) {
		return Suffix{}, false
	}
	switch m[1] {
	case "first":
		return Suffix{Kind: SuffixFirst}, true
	case "last":
		return Suffix{Kind: SuffixLast}, true
	}
	i, err := strconv.Atoi(m[2])
	if err != nil {
		return Suffix{}, false
	}
	return Suffix{Kind: SuffixNth, Index: i}, true
}

// parser walks the argument list of an accessor form
type parser struct {
	src string
	pos int
}

func (p *parser) accessor(kind Kind) (Locator, error) {
	loc := Locator{Kind: kind}
	p.skipSpace()
	arg, err := p.str()
	if err != nil {
		return loc, err
	}
	loc.Arg = arg
	p.skipSpace()
	if p.peek() == ',' {
		p.pos++
		p.skipSpace()
		if err := p.options(&loc); err != nil {
			return loc, err
		}
		p.skipSpace()
	}
	if p.peek() != ')' {
		return loc, fmt.Errorf("expected ')' at offset %d", p.pos)
	}
	p.pos++
	return loc, nil
}

func (p *parser) options(loc *Locator) error {
	if p.peek() != '{' {
		return fmt.Errorf("expected '{' at offset %d", p.pos)
	}
	p.pos++
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return nil
		}
		key, err := p.key()
		if err != nil {
			return err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return fmt.Errorf("expected ':' after %q", key)
		}
		p.pos++
		p.skipSpace()
		switch key {
		case "name":
			if !loc.Kind.AllowsName() {
				return fmt.Errorf("%s does not accept option name", loc.Kind)
			}
			v, err := p.str()
			if err != nil {
				return err
			}
			loc.Name = v
		case "exact":
			if !loc.Kind.AllowsExact() {
				return fmt.Errorf("%s does not accept option exact", loc.Kind)
			}
			v, err := p.boolean()
			if err != nil {
				return err
			}
			loc.Exact = v
		default:
			return fmt.Errorf("unknown option %q", key)
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}

func (p *parser) key() (string, error) {
	if c := p.peek(); c == '\'' || c == '"' {
		return p.str()
	}
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected option name at offset %d", p.pos)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) boolean() (bool, error) {
	switch {
	case strings.HasPrefix(p.src[p.pos:], "true"):
		p.pos += 4
		return true, nil
	case strings.HasPrefix(p.src[p.pos:], "false"):
		p.pos += 5
		return false, nil
	}
	return false, fmt.Errorf("expected boolean at offset %d", p.pos)
}

// str reads a single or double quoted literal with backslash escapes
func (p *parser) str() (string, error) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected string literal at offset %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case quote:
			return b.String(), nil
		case '\\':
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
