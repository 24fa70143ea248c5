package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"step_recorder/domain/locator"
)

type locatorBuilder func(page playwright.Page, loc locator.Locator) playwright.Locator

func exactOpt(loc locator.Locator) *bool {
	if !loc.Exact {
		return nil
	}
	return playwright.Bool(true)
}

// accessorBuilders binds every locator kind to the matching page method
var accessorBuilders = map[locator.Kind]locatorBuilder{
	locator.KindCSS: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.Locator(loc.Arg)
	},
	locator.KindXPath: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.Locator("xpath=" + loc.Arg)
	},
	locator.KindRole: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		opts := playwright.PageGetByRoleOptions{Exact: exactOpt(loc)}
		if loc.Name != "" {
			opts.Name = loc.Name
		}
		return page.GetByRole(playwright.AriaRole(loc.Arg), opts)
	},
	locator.KindText: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByText(loc.Arg, playwright.PageGetByTextOptions{Exact: exactOpt(loc)})
	},
	locator.KindLabel: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByLabel(loc.Arg, playwright.PageGetByLabelOptions{Exact: exactOpt(loc)})
	},
	locator.KindPlaceholder: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByPlaceholder(loc.Arg, playwright.PageGetByPlaceholderOptions{Exact: exactOpt(loc)})
	},
	locator.KindAltText: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByAltText(loc.Arg, playwright.PageGetByAltTextOptions{Exact: exactOpt(loc)})
	},
	locator.KindTitle: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByTitle(loc.Arg, playwright.PageGetByTitleOptions{Exact: exactOpt(loc)})
	},
	locator.KindTestID: func(page playwright.Page, loc locator.Locator) playwright.Locator {
		return page.GetByTestId(loc.Arg)
	},
}

// applySuffix narrows a multi-match locator to one element
func applySuffix(l playwright.Locator, s locator.Suffix) playwright.Locator {
	switch s.Kind {
	case locator.SuffixFirst:
		return l.First()
	case locator.SuffixLast:
		return l.Last()
	case locator.SuffixNth:
		return l.Nth(s.Index)
	}
	return l
}

// timeoutFrom converts the remaining context budget into a playwright
// timeout in milliseconds
func timeoutFrom(ctx context.Context, fallback time.Duration) *float64 {
	budget := fallback
	if deadline, ok := ctx.Deadline(); ok {
		budget = time.Until(deadline)
	}
	if budget < time.Millisecond {
		budget = time.Millisecond
	}
	return playwright.Float(float64(budget.Milliseconds()))
}
