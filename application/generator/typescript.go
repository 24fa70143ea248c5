package generator

import (
	"fmt"
	"strconv"
	"strings"

	"step_recorder/domain/entities"
	"step_recorder/domain/locator"
)

const defaultSuiteName = "Generated Test Suite"

// TypeScript renders Playwright Test specs. Steps are grouped into one
// test block per navigation inside a single describe block.
type TypeScript struct{}

type navGroup struct {
	url   string
	steps []entities.Step
}

// groupByNavigation starts a new group at every navigate step. Steps before
// the first navigation form their own group without a url.
func groupByNavigation(steps []entities.Step) []navGroup {
	var groups []navGroup
	current := navGroup{}
	for _, step := range steps {
		if step.Action == entities.ActionNavigate {
			if len(current.steps) > 0 {
				groups = append(groups, current)
			}
			current = navGroup{url: navigateURL(step)}
		}
		current.steps = append(current.steps, step)
	}
	if len(current.steps) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func (TypeScript) Generate(steps []entities.Step, projectName string) string {
	if strings.TrimSpace(projectName) == "" {
		projectName = defaultSuiteName
	}
	w := &lineWriter{}
	w.line(0, "import { test, expect } from '@playwright/test';")
	w.line(0, "")
	w.line(0, fmt.Sprintf("test.describe('%s', () => {", EscapeJS(projectName)))

	for i, group := range groupByNavigation(steps) {
		label := fmt.Sprintf("Test %d", i+1)
		if group.url != "" {
			label += ": " + group.url
		}
		w.line(0, "")
		w.line(2, fmt.Sprintf("test('%s', async ({ page }) => {", EscapeJS(label)))
		for _, step := range group.steps {
			if d := oneLine(step.Description); d != "" {
				w.line(4, "// "+d)
			}
			w.line(4, tsStatement(step))
		}
		w.line(2, "});")
	}

	w.line(0, "});")
	return w.String()
}

func tsStatement(step entities.Step) string {
	switch step.Action {
	case entities.ActionNavigate:
		return fmt.Sprintf("await page.goto('%s');", EscapeJS(navigateURL(step)))
	case entities.ActionWait:
		return fmt.Sprintf("await page.waitForTimeout(%d);", waitMillis(step))
	case entities.ActionScreenshot:
		return fmt.Sprintf("await page.screenshot({ path: '%s' });", EscapeJS(screenshotPath(step)))
	case entities.ActionAssert:
		return tsAssertion(step)
	}

	loc := TSLocator(elementSelector(step))
	switch step.Action {
	case entities.ActionClick:
		return fmt.Sprintf("await %s.click();", loc)
	case entities.ActionDblClick:
		return fmt.Sprintf("await %s.dblclick();", loc)
	case entities.ActionInput, entities.ActionChange:
		return fmt.Sprintf("await %s.fill('%s');", loc, EscapeJS(step.Value))
	case entities.ActionSelect:
		return fmt.Sprintf("await %s.selectOption('%s');", loc, EscapeJS(step.Value))
	case entities.ActionCheck:
		return fmt.Sprintf("await %s.check();", loc)
	case entities.ActionUncheck:
		return fmt.Sprintf("await %s.uncheck();", loc)
	case entities.ActionHover:
		return fmt.Sprintf("await %s.hover();", loc)
	case entities.ActionKeydown:
		return fmt.Sprintf("await %s.press('%s');", loc, EscapeJS(keyOf(step)))
	case entities.ActionScroll:
		return fmt.Sprintf("await %s.scrollIntoViewIfNeeded();", loc)
	}
	return "// Unknown action: " + oneLine(string(step.Action))
}

func tsAssertion(step entities.Step) string {
	kind := assertionKind(step)
	val := step.AssertionValue
	switch kind {
	case entities.AssertURL:
		return fmt.Sprintf("await expect(page).toHaveURL('%s');", EscapeJS(val))
	case entities.AssertTitle:
		return fmt.Sprintf("await expect(page).toHaveTitle('%s');", EscapeJS(val))
	}

	loc := TSLocator(parseSelector(step.PrimarySelector))
	switch kind {
	case entities.AssertHidden:
		return fmt.Sprintf("await expect(%s).toBeHidden();", loc)
	case entities.AssertText, entities.AssertContainText, entities.AssertValue:
		return fmt.Sprintf("await expect(%s).%s('%s');", loc, kind, EscapeJS(val))
	case entities.AssertAttribute:
		attr, want, hasValue := entities.SplitAttributeAssertion(val)
		if hasValue {
			return fmt.Sprintf("await expect(%s).toHaveAttribute('%s', '%s');", loc, EscapeJS(attr), EscapeJS(want))
		}
		return fmt.Sprintf("await expect(%s).toHaveAttribute('%s', /.*/);", loc, EscapeJS(attr))
	case entities.AssertCount:
		return fmt.Sprintf("await expect(%s).toHaveCount(%d);", loc, expectedCount(step))
	case entities.AssertEnabled, entities.AssertDisabled, entities.AssertChecked:
		return fmt.Sprintf("await expect(%s).%s();", loc, kind)
	case entities.AssertUnchecked:
		return fmt.Sprintf("await expect(%s).not.toBeChecked();", loc)
	}
	return fmt.Sprintf("await expect(%s).toBeVisible();", loc)
}

var tsAccessors = map[locator.Kind]string{
	locator.KindRole:        "getByRole",
	locator.KindText:        "getByText",
	locator.KindLabel:       "getByLabel",
	locator.KindPlaceholder: "getByPlaceholder",
	locator.KindAltText:     "getByAltText",
	locator.KindTitle:       "getByTitle",
	locator.KindTestID:      "getByTestId",
}

// TSLocator renders a locator as a Playwright Test expression on page
func TSLocator(loc locator.Locator) string {
	var b strings.Builder
	b.WriteString("page.")
	if loc.IsRaw() {
		fmt.Fprintf(&b, "locator('%s')", EscapeJS(loc.Base().String()))
	} else {
		fmt.Fprintf(&b, "%s('%s'", tsAccessors[loc.Kind], EscapeJS(loc.Arg))
		var opts []string
		if loc.Name != "" {
			opts = append(opts, fmt.Sprintf("name: '%s'", EscapeJS(loc.Name)))
		}
		if loc.Exact {
			opts = append(opts, "exact: true")
		}
		if len(opts) > 0 {
			fmt.Fprintf(&b, ", { %s }", strings.Join(opts, ", "))
		}
		b.WriteString(")")
	}
	b.WriteString(loc.Suffix.String())
	return b.String()
}

// EscapeJS escapes s for a single-quoted JavaScript string literal
func EscapeJS(s string) string {
	return locator.Quote(s)
}

// oneLine keeps free text on a single comment line
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PlaywrightConfig renders playwright.config.ts for a project
func PlaywrightConfig(cfg entities.ProjectConfig) string {
	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = 30000
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	width, height := cfg.Viewport.Width, cfg.Viewport.Height
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}

	w := &lineWriter{}
	w.line(0, "import { defineConfig } from '@playwright/test';")
	w.line(0, "")
	w.line(0, "export default defineConfig({")
	w.line(2, "testDir: './tests',")
	w.line(2, "timeout: "+strconv.Itoa(timeout)+",")
	w.line(2, "retries: 1,")
	w.line(2, "use: {")
	w.line(4, fmt.Sprintf("baseURL: '%s',", EscapeJS(baseURL)))
	w.line(4, "headless: "+strconv.FormatBool(cfg.Headless)+",")
	w.line(4, fmt.Sprintf("viewport: { width: %d, height: %d },", width, height))
	w.line(4, "screenshot: 'only-on-failure',")
	w.line(4, "trace: 'retain-on-failure',")
	w.line(2, "},")
	w.line(2, "reporter: [['html', { open: 'never' }]],")
	w.line(0, "});")
	return w.String()
}
