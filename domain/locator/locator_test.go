package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessors(t *testing.T) {
	tests := []struct {
		expr string
		want Locator
	}{
		{`byRole('button', {name: 'Save'})`, Locator{Kind: KindRole, Arg: "button", Name: "Save"}},
		{`byRole('button')`, Locator{Kind: KindRole, Arg: "button"}},
		{`byRole("link", {name: "Home", exact: true})`, Locator{Kind: KindRole, Arg: "link", Name: "Home", Exact: true}},
		{`byText('Sign in', {exact: true})`, Locator{Kind: KindText, Arg: "Sign in", Exact: true}},
		{`byLabel('Email')`, Locator{Kind: KindLabel, Arg: "Email"}},
		{`byPlaceholder('Search...')`, Locator{Kind: KindPlaceholder, Arg: "Search..."}},
		{`byAltText('Logo')`, Locator{Kind: KindAltText, Arg: "Logo"}},
		{`byTitle('Close')`, Locator{Kind: KindTitle, Arg: "Close"}},
		{`byTestId('login-button')`, Locator{Kind: KindTestID, Arg: "login-button"}},
		{`byText('It\'s here')`, Locator{Kind: KindText, Arg: "It's here"}},
		{`byText('Item').first()`, Locator{Kind: KindText, Arg: "Item", Suffix: Suffix{Kind: SuffixFirst}}},
		{`byRole('row').nth(3)`, Locator{Kind: KindRole, Arg: "row", Suffix: Suffix{Kind: SuffixNth, Index: 3}}},
		{`page.getByRole('button', { name: 'Save' })`, Locator{Kind: KindRole, Arg: "button", Name: "Save"}},
		{`getByTestId('x').last()`, Locator{Kind: KindTestID, Arg: "x", Suffix: Suffix{Kind: SuffixLast}}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		expr string
		want Locator
	}{
		{`#login-btn`, CSS("#login-btn")},
		{`[data-testid="login-button"]`, CSS(`[data-testid="login-button"]`)},
		{`css=div.card`, CSS("div.card")},
		{`body > div:nth-of-type(2)`, CSS("body > div:nth-of-type(2)")},
		{`//button[@id="x"]`, XPath(`//button[@id="x"]`)},
		{`(//li)[2]`, XPath(`(//li)[2]`)},
		{`xpath=/html/body/div[1]`, XPath("/html/body/div[1]")},
		{`button.primary.nth(1)`, CSS("button.primary").Nth(1)},
		{`input[name="q"].first()`, CSS(`input[name="q"]`).First()},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"   ",
		`byText('Save', {name: 'x'})`,
		`byTestId('x', {exact: true})`,
		`byRole('button', {level: 2})`,
		`byRole('button'`,
		`byRole(button)`,
		`byRole('button') trailing`,
		`byText('unterminated)`,
		`xpath=`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidLocator)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, expr := range []string{
		`byRole('button', {name: 'Save'})`,
		`byRole('checkbox')`,
		`byText('Sign in', {exact: true}).first()`,
		`byLabel('Email')`,
		`byTestId('login-button')`,
		`byRole('link', {name: 'It\'s', exact: true}).nth(2)`,
		`#login-btn`,
		`//div[@id="x"]`,
		`xpath=html/body`,
		`xpath=/html/body/div[2]`,
		`li.item.last()`,
	} {
		t.Run(expr, func(t *testing.T) {
			l, err := Parse(expr)
			require.NoError(t, err)
			assert.Equal(t, expr, l.String())
		})
	}
}

func TestLegacySpellingFormatsCanonically(t *testing.T) {
	l, err := Parse(`page.getByRole('button', { name: 'Save' })`)
	require.NoError(t, err)
	assert.Equal(t, `byRole('button', {name: 'Save'})`, l.String())
}

func TestNthZeroIsFirst(t *testing.T) {
	assert.Equal(t, "a.first()", CSS("a").Nth(0).String())
	assert.Equal(t, "a.nth(4)", CSS("a").Nth(4).String())
	assert.Equal(t, CSS("a"), CSS("a").Nth(4).Base())
}

func TestKindOptions(t *testing.T) {
	assert.True(t, KindRole.AllowsName())
	assert.False(t, KindText.AllowsName())
	assert.True(t, KindLabel.AllowsExact())
	assert.False(t, KindTestID.AllowsExact())
	assert.False(t, KindCSS.IsAccessor())
	assert.True(t, KindAltText.IsAccessor())
}
