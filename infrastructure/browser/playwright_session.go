package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"step_recorder/domain/interfaces"
	"step_recorder/domain/locator"
)

// pwBrowser is one launched browser with a single context. New tabs opened
// by the page become the current page until they close.
type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	log     *logrus.Logger

	pagesMutex sync.Mutex
	page       playwright.Page
	pages      []playwright.Page
	loadHook   func(url string)
}

func launch(opts Options, log *logrus.Logger) (*pwBrowser, error) {
	opts = opts.withDefaults()
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.BrowserType {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.BrowserType == "chromium" {
		launchOpts.Args = launchArgs
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	browser, err := bt.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", opts.BrowserType, err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		AcceptDownloads:   playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	b := &pwBrowser{
		pw:      pw,
		browser: browser,
		context: bctx,
		log:     log,
		page:    page,
		pages:   []playwright.Page{page},
	}
	b.watchPage(page)

	bctx.OnPage(func(newPage playwright.Page) {
		b.pagesMutex.Lock()
		b.pages = append(b.pages, newPage)
		b.page = newPage
		b.pagesMutex.Unlock()
		b.watchPage(newPage)
		b.log.Debugf("Switched to new tab: %s", newPage.URL())
	})
	return b, nil
}

// watchPage accepts dialogs, reports loads to the hook and drops the page
// from the tab list on close
func (b *pwBrowser) watchPage(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Accept()
	})
	page.OnLoad(func(p playwright.Page) {
		b.pagesMutex.Lock()
		hook := b.loadHook
		b.pagesMutex.Unlock()
		if hook != nil {
			hook(p.URL())
		}
	})
	page.OnClose(func(closed playwright.Page) {
		b.pagesMutex.Lock()
		defer b.pagesMutex.Unlock()
		for i, p := range b.pages {
			if p == closed {
				b.pages = append(b.pages[:i], b.pages[i+1:]...)
				break
			}
		}
		if b.page == closed && len(b.pages) > 0 {
			b.page = b.pages[0]
		}
	})
}

func (b *pwBrowser) setLoadHook(hook func(url string)) {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	b.loadHook = hook
}

func (b *pwBrowser) current() playwright.Page {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	return b.page
}

// close tears down context, browser and driver, ignoring already-closed targets
func (b *pwBrowser) close() error {
	var closeErr error
	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		b.pw = nil
	}
	return closeErr
}

// PlaywrightFactory opens a fresh browser for every replay
type PlaywrightFactory struct {
	opts Options
	log  *logrus.Logger
}

// NewPlaywrightFactory - creates a session factory backed by playwright
func NewPlaywrightFactory(opts Options, log *logrus.Logger) *PlaywrightFactory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PlaywrightFactory{opts: opts.withDefaults(), log: log}
}

// NewSession - launches a browser and returns a session on its first page
func (f *PlaywrightFactory) NewSession(ctx context.Context) (interfaces.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := launch(f.opts, f.log)
	if err != nil {
		return nil, err
	}
	f.log.Infof("Launched %s (headless=%v)", f.opts.BrowserType, f.opts.Headless)
	return &playwrightSession{b: b, opts: f.opts}, nil
}

type playwrightSession struct {
	b    *pwBrowser
	opts Options
}

func (s *playwrightSession) Resolve(ctx context.Context, loc locator.Locator) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	build, ok := accessorBuilders[loc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported kind %q", locator.ErrInvalidLocator, loc.Kind)
	}
	l := applySuffix(build(s.b.current(), loc), loc.Suffix)
	return &playwrightElement{l: l, fallback: s.opts.ActionTimeout}, nil
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.b.current().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutFrom(ctx, 30*time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSession) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *playwrightSession) Screenshot(ctx context.Context, path string) error {
	_, err := s.b.current().Screenshot(playwright.PageScreenshotOptions{
		Path:    playwright.String(path),
		Timeout: timeoutFrom(ctx, s.opts.ActionTimeout),
	})
	return err
}

func (s *playwrightSession) URL(context.Context) (string, error) {
	return s.b.current().URL(), nil
}

func (s *playwrightSession) Title(context.Context) (string, error) {
	return s.b.current().Title()
}

func (s *playwrightSession) Close() error {
	return s.b.close()
}

// playwrightElement is a lazily resolved playwright locator; every call
// re-queries the page, so it stays valid across re-renders
type playwrightElement struct {
	l        playwright.Locator
	fallback time.Duration
}

func (e *playwrightElement) timeout(ctx context.Context) *float64 {
	return timeoutFrom(ctx, e.fallback)
}

func (e *playwrightElement) Click(ctx context.Context) error {
	return e.l.Click(playwright.LocatorClickOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) DblClick(ctx context.Context) error {
	return e.l.Dblclick(playwright.LocatorDblclickOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) Fill(ctx context.Context, value string) error {
	return e.l.Fill(value, playwright.LocatorFillOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) SelectOption(ctx context.Context, value string) error {
	_, err := e.l.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: e.timeout(ctx)})
	return err
}

func (e *playwrightElement) Check(ctx context.Context) error {
	return e.l.Check(playwright.LocatorCheckOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) Uncheck(ctx context.Context) error {
	return e.l.Uncheck(playwright.LocatorUncheckOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) Hover(ctx context.Context) error {
	return e.l.Hover(playwright.LocatorHoverOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) Press(ctx context.Context, key string) error {
	return e.l.Press(key, playwright.LocatorPressOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) ScrollIntoView(ctx context.Context) error {
	return e.l.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) WaitVisible(ctx context.Context) error {
	return e.l.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: e.timeout(ctx),
	})
}

func (e *playwrightElement) IsVisible(context.Context) (bool, error) {
	return e.l.IsVisible()
}

func (e *playwrightElement) IsEnabled(ctx context.Context) (bool, error) {
	return e.l.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) IsChecked(ctx context.Context) (bool, error) {
	return e.l.IsChecked(playwright.LocatorIsCheckedOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) InnerText(ctx context.Context) (string, error) {
	return e.l.InnerText(playwright.LocatorInnerTextOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) TextContent(ctx context.Context) (string, error) {
	return e.l.TextContent(playwright.LocatorTextContentOptions{Timeout: e.timeout(ctx)})
}

func (e *playwrightElement) InputValue(ctx context.Context) (string, error) {
	return e.l.InputValue(playwright.LocatorInputValueOptions{Timeout: e.timeout(ctx)})
}

// Attribute distinguishes a missing attribute from an empty one, which
// GetAttribute cannot
func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	res, err := e.l.Evaluate(`(el, name) => el.hasAttribute(name) ? el.getAttribute(name) : null`, name,
		playwright.LocatorEvaluateOptions{Timeout: e.timeout(ctx)})
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	v, ok := res.(string)
	if !ok {
		return fmt.Sprint(res), true, nil
	}
	return v, true, nil
}

func (e *playwrightElement) Count(context.Context) (int, error) {
	return e.l.Count()
}
