package browser

import (
	"errors"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"step_recorder/domain/locator"
)

const xpathPage = `<html><body>
<nav><a href="/docs">Docs</a><a>Plain anchor</a></nav>
<form>
  <label>Email <input name="email"></label>
  <input aria-label="Search the site" type="search">
  <input placeholder="Search docs">
  <input type="checkbox" name="terms">
  <button>Save</button>
  <button>Cancel</button>
  <input type="submit" value="Save draft">
  <div role="button">Save</div>
  <span role="link">Docs</span>
</form>
<img src="/logo.png" alt="Company logo" title="Home">
<a data-testid="footer-link">Sign in</a>
<p>Please sign in now</p>
</body></html>`

func query(t *testing.T, loc locator.Locator) []string {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(xpathPage))
	require.NoError(t, err)
	expr, err := AccessorXPath(loc)
	require.NoError(t, err)
	nodes, err := htmlquery.QueryAll(doc, expr)
	require.NoError(t, err, expr)
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data
	}
	return out
}

func TestAccessorXPathMatches(t *testing.T) {
	tests := []struct {
		name string
		loc  locator.Locator
		want []string
	}{
		{"role with substring name", locator.ByRole("button", "save"), []string{"button", "input", "div"}},
		{"role with exact name", locator.Locator{Kind: locator.KindRole, Arg: "button", Name: "Save", Exact: true}, []string{"button", "div"}},
		{"role without name", locator.ByRole("checkbox", ""), []string{"input"}},
		{"explicit role beats tag", locator.ByRole("link", "docs"), []string{"a", "span"}},
		{"text exact", locator.ByText("Sign in", true), []string{"a"}},
		{"text substring", locator.ByText("sign in", false), []string{"a", "p"}},
		{"nested label", locator.ByLabel("Email"), []string{"input"}},
		{"aria label", locator.ByLabel("search the site"), []string{"input"}},
		{"placeholder", locator.ByPlaceholder("search"), []string{"input"}},
		{"alt text", locator.ByAltText("logo"), []string{"img"}},
		{"title", locator.ByTitle("Home"), []string{"img"}},
		{"test id", locator.ByTestID("footer-link"), []string{"a"}},
		{"xpath passes through", locator.XPath("//nav/a"), []string{"a", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, query(t, tt.loc))
		})
	}
}

func TestAccessorXPathQuotes(t *testing.T) {
	expr, err := AccessorXPath(locator.ByTestID(`it's "quoted"`))
	require.NoError(t, err)
	assert.Contains(t, expr, "concat(")
}

func TestAccessorXPathRejectsCSS(t *testing.T) {
	_, err := AccessorXPath(locator.CSS("#save"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, locator.ErrInvalidLocator))
}

func TestEveryKindHasPlaywrightBuilder(t *testing.T) {
	kinds := []locator.Kind{
		locator.KindCSS, locator.KindXPath, locator.KindRole, locator.KindText, locator.KindLabel,
		locator.KindPlaceholder, locator.KindAltText, locator.KindTitle, locator.KindTestID,
	}
	for _, k := range kinds {
		_, ok := accessorBuilders[k]
		assert.True(t, ok, "no builder for %s", k)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{BrowserType: " Firefox "}.withDefaults()
	assert.Equal(t, "firefox", o.BrowserType)
	assert.Equal(t, 1280, o.Viewport.Width)
	assert.Equal(t, 720, o.Viewport.Height)
	assert.Positive(t, o.ActionTimeout)

	assert.Equal(t, "chromium", Options{}.withDefaults().BrowserType)
	assert.True(t, isClosedErr(errors.New("Target page, context or browser has been closed")))
	assert.False(t, isClosedErr(nil))
}
