package generator

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"step_recorder/domain/entities"
	"step_recorder/domain/locator"
)

const javaIndent = 12

// Java renders a Playwright for Java program with a flat main body
type Java struct{}

func (Java) Generate(steps []entities.Step, projectName string) string {
	w := &lineWriter{}
	w.line(0, "import com.microsoft.playwright.*;")
	w.line(0, "import com.microsoft.playwright.options.AriaRole;")
	w.line(0, "")
	w.line(0, "import java.nio.file.Paths;")
	w.line(0, "import java.util.regex.Pattern;")
	w.line(0, "")
	w.line(0, "import static com.microsoft.playwright.assertions.PlaywrightAssertions.assertThat;")
	w.line(0, "")
	w.line(0, fmt.Sprintf("public class %s {", JavaClassName(projectName)))
	w.line(4, "public static void main(String[] args) {")
	w.line(8, "try (Playwright playwright = Playwright.create()) {")
	w.line(javaIndent, "Browser browser = playwright.chromium().launch(new BrowserType.LaunchOptions().setHeadless(false));")
	w.line(javaIndent, "Page page = browser.newPage();")
	for _, step := range steps {
		w.line(0, "")
		if d := oneLine(step.Description); d != "" {
			w.line(javaIndent, "// "+d)
		}
		w.line(javaIndent, javaStatement(step))
	}
	w.line(0, "")
	w.line(javaIndent, "browser.close();")
	w.line(8, "}")
	w.line(4, "}")
	w.line(0, "}")
	return w.String()
}

func javaStatement(step entities.Step) string {
	switch step.Action {
	case entities.ActionNavigate:
		return fmt.Sprintf("page.navigate(\"%s\");", EscapeJava(navigateURL(step)))
	case entities.ActionWait:
		return fmt.Sprintf("page.waitForTimeout(%d);", waitMillis(step))
	case entities.ActionScreenshot:
		return fmt.Sprintf("page.screenshot(new Page.ScreenshotOptions().setPath(Paths.get(\"%s\")));",
			EscapeJava(screenshotPath(step)))
	case entities.ActionAssert:
		return javaAssertion(step)
	}

	loc := JavaLocator(elementSelector(step))
	switch step.Action {
	case entities.ActionClick:
		return loc + ".click();"
	case entities.ActionDblClick:
		return loc + ".dblclick();"
	case entities.ActionInput, entities.ActionChange:
		return fmt.Sprintf("%s.fill(\"%s\");", loc, EscapeJava(step.Value))
	case entities.ActionSelect:
		return fmt.Sprintf("%s.selectOption(\"%s\");", loc, EscapeJava(step.Value))
	case entities.ActionCheck:
		return loc + ".check();"
	case entities.ActionUncheck:
		return loc + ".uncheck();"
	case entities.ActionHover:
		return loc + ".hover();"
	case entities.ActionKeydown:
		return fmt.Sprintf("%s.press(\"%s\");", loc, EscapeJava(keyOf(step)))
	case entities.ActionScroll:
		return loc + ".scrollIntoViewIfNeeded();"
	}
	return "// Unknown action: " + oneLine(string(step.Action))
}

func javaAssertion(step entities.Step) string {
	kind := assertionKind(step)
	val := EscapeJava(step.AssertionValue)
	switch kind {
	case entities.AssertURL:
		return fmt.Sprintf("assertThat(page).hasURL(\"%s\");", val)
	case entities.AssertTitle:
		return fmt.Sprintf("assertThat(page).hasTitle(\"%s\");", val)
	}

	target := "assertThat(" + JavaLocator(parseSelector(step.PrimarySelector)) + ")"
	switch kind {
	case entities.AssertHidden:
		return target + ".isHidden();"
	case entities.AssertText:
		return fmt.Sprintf("%s.hasText(\"%s\");", target, val)
	case entities.AssertContainText:
		return fmt.Sprintf("%s.containsText(\"%s\");", target, val)
	case entities.AssertValue:
		return fmt.Sprintf("%s.hasValue(\"%s\");", target, val)
	case entities.AssertAttribute:
		attr, want, hasValue := entities.SplitAttributeAssertion(step.AssertionValue)
		if hasValue {
			return fmt.Sprintf("%s.hasAttribute(\"%s\", \"%s\");", target, EscapeJava(attr), EscapeJava(want))
		}
		return fmt.Sprintf("%s.hasAttribute(\"%s\", Pattern.compile(\".*\"));", target, EscapeJava(attr))
	case entities.AssertCount:
		return fmt.Sprintf("%s.hasCount(%d);", target, expectedCount(step))
	case entities.AssertEnabled:
		return target + ".isEnabled();"
	case entities.AssertDisabled:
		return target + ".isDisabled();"
	case entities.AssertChecked:
		return target + ".isChecked();"
	case entities.AssertUnchecked:
		return target + ".not().isChecked();"
	}
	return target + ".isVisible();"
}

var javaAccessors = map[locator.Kind]struct {
	method  string
	options string
}{
	locator.KindRole:        {"getByRole", "GetByRoleOptions"},
	locator.KindText:        {"getByText", "GetByTextOptions"},
	locator.KindLabel:       {"getByLabel", "GetByLabelOptions"},
	locator.KindPlaceholder: {"getByPlaceholder", "GetByPlaceholderOptions"},
	locator.KindAltText:     {"getByAltText", "GetByAltTextOptions"},
	locator.KindTitle:       {"getByTitle", "GetByTitleOptions"},
	locator.KindTestID:      {"getByTestId", ""},
}

// JavaLocator renders a locator as a Playwright for Java expression on page
func JavaLocator(loc locator.Locator) string {
	var b strings.Builder
	b.WriteString("page.")
	if loc.IsRaw() {
		fmt.Fprintf(&b, "locator(\"%s\")", EscapeJava(loc.Base().String()))
	} else {
		acc := javaAccessors[loc.Kind]
		b.WriteString(acc.method)
		b.WriteString("(")
		if loc.Kind == locator.KindRole {
			b.WriteString("AriaRole." + ariaRoleConstant(loc.Arg))
		} else {
			fmt.Fprintf(&b, "\"%s\"", EscapeJava(loc.Arg))
		}
		if acc.options != "" && (loc.Name != "" || loc.Exact) {
			fmt.Fprintf(&b, ", new Page.%s()", acc.options)
			if loc.Name != "" {
				fmt.Fprintf(&b, ".setName(\"%s\")", EscapeJava(loc.Name))
			}
			if loc.Exact {
				b.WriteString(".setExact(true)")
			}
		}
		b.WriteString(")")
	}
	b.WriteString(loc.Suffix.String())
	return b.String()
}

// ariaRoleConstant maps a role name onto the AriaRole enum constant
func ariaRoleConstant(role string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(role), "-", "_"))
}

// EscapeJava escapes s for a double-quoted Java string literal
func EscapeJava(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

// JavaClassName derives a class name from a project name:
// "checkout flow" becomes CheckoutFlowTest.
func JavaClassName(projectName string) string {
	words := strings.FieldsFunc(projectName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	title := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, word := range words {
		b.WriteString(title.String(word))
	}
	name := b.String()
	if name == "" {
		return "GeneratedTest"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "Test" + name
	}
	if !strings.HasSuffix(name, "Test") {
		name += "Test"
	}
	return name
}
