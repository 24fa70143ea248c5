package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"step_recorder/domain/locator"
)

// scriptedElement carries the live DOM state the scripts read
type scriptedElement struct {
	selenium.WebElement
	value string
	text  string
	attrs map[string]string
}

// scriptedDriver answers FindElements and ExecuteScript from memory
type scriptedDriver struct {
	selenium.WebDriver
	found   map[string][]selenium.WebElement
	scripts []string
}

func (d *scriptedDriver) FindElements(_, value string) ([]selenium.WebElement, error) {
	return d.found[value], nil
}

func (d *scriptedDriver) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	d.scripts = append(d.scripts, script)
	el := args[0].(*scriptedElement)
	switch {
	case strings.Contains(script, ".value"):
		return el.value, nil
	case strings.Contains(script, "textContent"):
		return el.text, nil
	case strings.Contains(script, "hasAttribute"):
		if v, ok := el.attrs[args[1].(string)]; ok {
			return v, nil
		}
		return nil, nil
	}
	return nil, nil
}

func newScriptedElement(wd selenium.WebDriver, value string, suffix locator.Suffix) *seleniumElement {
	return &seleniumElement{wd: wd, by: selenium.ByCSSSelector, value: value, suffix: suffix, fallback: 50 * time.Millisecond}
}

func TestSeleniumInputValueReadsLiveProperty(t *testing.T) {
	field := &scriptedElement{value: "joe@x.io", attrs: map[string]string{"value": "initial"}}
	wd := &scriptedDriver{found: map[string][]selenium.WebElement{"#email": {field}}}

	got, err := newScriptedElement(wd, "#email", locator.Suffix{}).InputValue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "joe@x.io", got)
	assert.Equal(t, []string{"return arguments[0].value;"}, wd.scripts)
}

func TestSeleniumTextAndAttributes(t *testing.T) {
	link := &scriptedElement{text: "Docs", attrs: map[string]string{"href": "/docs", "hidden": ""}}
	wd := &scriptedDriver{found: map[string][]selenium.WebElement{"a": {link}}}
	el := newScriptedElement(wd, "a", locator.Suffix{})
	ctx := context.Background()

	text, err := el.TextContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Docs", text)

	href, ok, err := el.Attribute(ctx, "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/docs", href)

	_, ok, err = el.Attribute(ctx, "hidden")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = el.Attribute(ctx, "target")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeleniumMatchCounting(t *testing.T) {
	first, second := &scriptedElement{value: "a"}, &scriptedElement{value: "b"}
	wd := &scriptedDriver{found: map[string][]selenium.WebElement{"li": {first, second}}}
	ctx := context.Background()

	count, err := newScriptedElement(wd, "li", locator.Suffix{}).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = newScriptedElement(wd, "li", locator.Suffix{}).InputValue(ctx)
	assert.ErrorContains(t, err, "2 elements match li")

	got, err := newScriptedElement(wd, "li", locator.Suffix{Kind: locator.SuffixLast}).InputValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	_, err = newScriptedElement(wd, "li", locator.Suffix{Kind: locator.SuffixNth, Index: 5}).InputValue(ctx)
	assert.ErrorContains(t, err, "element not found")
}
