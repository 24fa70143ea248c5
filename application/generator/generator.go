// Package generator renders recorded step lists as test source code.
//
// Three dialects are supported: Playwright Test in TypeScript, Playwright
// for Java and Gherkin feature files. Generators are pure; they never touch
// the filesystem and may be shared between goroutines.
package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"step_recorder/domain/entities"
	"step_recorder/domain/locator"
)

// ErrUnknownDialect is returned by For when no generator matches
var ErrUnknownDialect = errors.New("unknown dialect")

// Dialect names an output syntax
type Dialect string

const (
	DialectTypeScript Dialect = "typescript"
	DialectJava       Dialect = "java"
	DialectGherkin    Dialect = "gherkin"
)

// Generator renders a step list into one text blob
type Generator interface {
	Generate(steps []entities.Step, projectName string) string
}

var registry = map[Dialect]Generator{
	DialectTypeScript: TypeScript{},
	DialectJava:       Java{},
	DialectGherkin:    Gherkin{},
}

var aliases = map[string]Dialect{
	"ts":       DialectTypeScript,
	"cucumber": DialectGherkin,
	"feature":  DialectGherkin,
}

// ParseDialect - resolves a dialect name or common alias
func ParseDialect(name string) (Dialect, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if d, ok := aliases[n]; ok {
		return d, nil
	}
	if _, ok := registry[Dialect(n)]; ok {
		return Dialect(n), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// For returns the generator of a dialect
func For(d Dialect) (Generator, error) {
	g, ok := registry[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
	}
	return g, nil
}

// Dialects lists the supported dialects
func Dialects() []Dialect {
	return []Dialect{DialectTypeScript, DialectJava, DialectGherkin}
}

// Extension returns the file extension used for a dialect's output
func (d Dialect) Extension() string {
	switch d {
	case DialectJava:
		return "java"
	case DialectGherkin:
		return "feature"
	default:
		return "spec.ts"
	}
}

// FileName builds the script file name for an export made at now. Java
// output is named after its class so that it compiles as written.
func FileName(d Dialect, projectName string, now time.Time) string {
	if d == DialectJava {
		return JavaClassName(projectName) + ".java"
	}
	return fmt.Sprintf("test-%d.%s", now.UnixMilli(), d.Extension())
}

// parseSelector reads a stored selector. Expressions that do not parse are
// passed through as raw CSS, minus any leading "page.".
func parseSelector(selector string) locator.Locator {
	loc, err := locator.Parse(selector)
	if err != nil {
		return locator.CSS(strings.TrimPrefix(strings.TrimSpace(selector), "page."))
	}
	return loc
}

// elementSelector is the selector an element action addresses
func elementSelector(step entities.Step) locator.Locator {
	if step.Action == entities.ActionKeydown && strings.TrimSpace(step.PrimarySelector) == "" {
		return locator.CSS("body")
	}
	return parseSelector(step.PrimarySelector)
}

// navigateURL strips recorder template artifacts from a navigate target
func navigateURL(step entities.Step) string {
	url := strings.TrimSpace(step.URL())
	url = strings.TrimPrefix(url, "`")
	url = strings.TrimSuffix(url, "`")
	return strings.TrimSpace(url)
}

func waitMillis(step entities.Step) int {
	ms, err := strconv.Atoi(strings.TrimSpace(step.Value))
	if err != nil || ms < 0 {
		return 1000
	}
	return ms
}

func keyOf(step entities.Step) string {
	if step.Value == "" {
		return "Enter"
	}
	return step.Value
}

func screenshotPath(step entities.Step) string {
	if step.Value == "" {
		return "screenshot.png"
	}
	return step.Value
}

func assertionKind(step entities.Step) entities.AssertionKind {
	if step.AssertionKind == "" {
		return entities.AssertVisible
	}
	return step.AssertionKind
}

// expectedCount reads a toHaveCount operand; non numeric values become 0
func expectedCount(step entities.Step) int {
	n, err := strconv.Atoi(strings.TrimSpace(step.AssertionValue))
	if err != nil {
		return 0
	}
	return n
}

// lineWriter accumulates indented lines
type lineWriter struct {
	b strings.Builder
}

func (w *lineWriter) line(indent int, s string) {
	if s != "" {
		w.b.WriteString(strings.Repeat(" ", indent))
		w.b.WriteString(s)
	}
	w.b.WriteString("\n")
}

func (w *lineWriter) String() string { return w.b.String() }
