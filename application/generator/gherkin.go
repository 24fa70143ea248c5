package generator

import (
	"fmt"
	"strings"

	"step_recorder/domain/entities"
)

const (
	defaultFeatureName = "User journey"
	scenarioName       = "Automated web test"
)

// Gherkin renders a feature file with one flat scenario. Locators appear
// as their canonical expression inside double quotes.
type Gherkin struct{}

func (Gherkin) Generate(steps []entities.Step, projectName string) string {
	feature := oneLine(projectName)
	if feature == "" {
		feature = defaultFeatureName
	}
	w := &lineWriter{}
	w.line(0, "Feature: "+feature)
	w.line(0, "")
	w.line(2, "Scenario: "+scenarioName)
	w.line(4, "Given web open browser")
	for _, step := range steps {
		w.line(4, gherkinLine(step))
	}
	return w.String()
}

func gherkinLine(step entities.Step) string {
	switch step.Action {
	case entities.ActionNavigate:
		return fmt.Sprintf(`And web navigate to "%s"`, EscapeGherkin(navigateURL(step)))
	case entities.ActionWait:
		seconds := (waitMillis(step) + 999) / 1000
		return fmt.Sprintf("When web pause for %d seconds", seconds)
	case entities.ActionScreenshot:
		return fmt.Sprintf(`When web take screenshot "%s"`, EscapeGherkin(screenshotPath(step)))
	case entities.ActionAssert:
		return gherkinAssertion(step)
	}

	loc := EscapeGherkin(elementSelector(step).String())
	val := EscapeGherkin(step.Value)
	switch step.Action {
	case entities.ActionClick:
		return fmt.Sprintf(`When web click element "%s"`, loc)
	case entities.ActionDblClick:
		return fmt.Sprintf(`When web double click "%s"`, loc)
	case entities.ActionInput, entities.ActionChange:
		return fmt.Sprintf(`When web type "%s" into "%s"`, val, loc)
	case entities.ActionSelect:
		return fmt.Sprintf(`When web select "%s" from dropdown "%s"`, val, loc)
	case entities.ActionCheck:
		return fmt.Sprintf(`When web check "%s"`, loc)
	case entities.ActionUncheck:
		return fmt.Sprintf(`When web uncheck "%s"`, loc)
	case entities.ActionHover:
		return fmt.Sprintf(`When web hover over "%s"`, loc)
	case entities.ActionKeydown:
		key := keyOf(step)
		if key == "Enter" {
			return fmt.Sprintf(`When web press enter on element "%s"`, loc)
		}
		return fmt.Sprintf(`When web press key "%s" on element "%s"`, EscapeGherkin(key), loc)
	case entities.ActionScroll:
		return fmt.Sprintf(`When web scroll to element "%s"`, loc)
	}
	return "# Unknown action: " + oneLine(string(step.Action))
}

func gherkinAssertion(step entities.Step) string {
	kind := assertionKind(step)
	val := EscapeGherkin(step.AssertionValue)
	switch kind {
	case entities.AssertURL:
		return fmt.Sprintf(`Then web current url should be "%s"`, val)
	case entities.AssertTitle:
		return fmt.Sprintf(`Then web page title should be "%s"`, val)
	}

	loc := EscapeGherkin(parseSelector(step.PrimarySelector).String())
	switch kind {
	case entities.AssertHidden:
		return fmt.Sprintf(`Then web element "%s" should not be visible`, loc)
	case entities.AssertText:
		return fmt.Sprintf(`Then web element "%s" text should be "%s"`, loc, val)
	case entities.AssertContainText:
		return fmt.Sprintf(`Then web element "%s" should contain text "%s"`, loc, val)
	case entities.AssertValue:
		return fmt.Sprintf(`Then web input value of "%s" should be "%s"`, loc, val)
	case entities.AssertAttribute:
		attr, want, hasValue := entities.SplitAttributeAssertion(step.AssertionValue)
		if hasValue {
			return fmt.Sprintf(`Then web element "%s" attribute "%s" should be "%s"`,
				loc, EscapeGherkin(attr), EscapeGherkin(want))
		}
		return fmt.Sprintf(`Then web element "%s" attribute "%s" should not be empty`, loc, EscapeGherkin(attr))
	case entities.AssertCount:
		return fmt.Sprintf(`Then web element count of "%s" should be %d`, loc, expectedCount(step))
	case entities.AssertEnabled:
		return fmt.Sprintf(`Then web element "%s" should be enabled`, loc)
	case entities.AssertDisabled:
		return fmt.Sprintf(`Then web element "%s" should be disabled`, loc)
	case entities.AssertChecked:
		return fmt.Sprintf(`Then web checkbox "%s" should be checked`, loc)
	case entities.AssertUnchecked:
		return fmt.Sprintf(`Then web checkbox "%s" should not be checked`, loc)
	}
	return fmt.Sprintf(`Then web element "%s" should be visible`, loc)
}

// EscapeGherkin escapes double quotes inside step text. Line breaks would
// end the step, so they are folded into spaces.
func EscapeGherkin(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.ReplaceAll(s, `"`, `\"`)
}
