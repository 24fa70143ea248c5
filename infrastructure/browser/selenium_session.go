package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"step_recorder/application/synthesizer"
	"step_recorder/domain/interfaces"
	"step_recorder/domain/locator"
)

const (
	chromeDriverPort = 9515
	pollInterval     = 100 * time.Millisecond
)

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("chromedriver not found. Please install it or set BROWSER_DRIVER_PATH environment variable")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// SeleniumFactory replays through chromedriver
type SeleniumFactory struct {
	opts Options
	log  *logrus.Logger
}

// NewSeleniumFactory - creates a session factory backed by chromedriver
func NewSeleniumFactory(opts Options, log *logrus.Logger) *SeleniumFactory {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SeleniumFactory{opts: opts.withDefaults(), log: log}
}

// NewSession - starts chromedriver and opens a chrome window
func (f *SeleniumFactory) NewSession(ctx context.Context) (interfaces.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	driverPath, err := findChromeDriver(f.opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	f.log.Infof("Using ChromeDriver at: %s", driverPath)

	service, err := selenium.NewChromeDriverService(driverPath, chromeDriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		fmt.Sprintf("--window-size=%d,%d", f.opts.Viewport.Width, f.opts.Viewport.Height),
	}
	if f.opts.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if binary := findChromeBinary(f.opts.ChromeBinary); binary != "" {
		f.log.Infof("Using Chrome binary at: %s", binary)
		chromeCaps.Path = binary
	}
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", chromeDriverPort))
	if err != nil {
		_ = service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set CHROME_BINARY_PATH environment variable. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}
	return &seleniumSession{wd: wd, service: service, opts: f.opts}, nil
}

type seleniumSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
	opts    Options
}

func (s *seleniumSession) Resolve(ctx context.Context, loc locator.Locator) (interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value := selenium.ByCSSSelector, loc.Arg
	if loc.Kind != locator.KindCSS {
		xp, err := AccessorXPath(loc)
		if err != nil {
			return nil, err
		}
		by, value = selenium.ByXPATH, xp
	}
	return &seleniumElement{wd: s.wd, by: by, value: value, suffix: loc.Suffix, fallback: s.opts.ActionTimeout}, nil
}

func (s *seleniumSession) Navigate(_ context.Context, url string) error {
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *seleniumSession) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *seleniumSession) Screenshot(_ context.Context, path string) error {
	data, err := s.wd.Screenshot()
	if err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (s *seleniumSession) URL(context.Context) (string, error) {
	return s.wd.CurrentURL()
}

func (s *seleniumSession) Title(context.Context) (string, error) {
	return s.wd.Title()
}

// Close - closes browser and stops ChromeDriver service
func (s *seleniumSession) Close() error {
	var closeErr error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to quit webdriver: %w", err)
		}
		s.wd = nil
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop chromedriver: %w", err)
		}
		s.service = nil
	}
	return closeErr
}

var seleniumKeys = map[string]string{
	"Enter":      selenium.EnterKey,
	"Tab":        selenium.TabKey,
	"Escape":     selenium.EscapeKey,
	"Backspace":  selenium.BackspaceKey,
	"Delete":     selenium.DeleteKey,
	"ArrowUp":    selenium.UpArrowKey,
	"ArrowDown":  selenium.DownArrowKey,
	"ArrowLeft":  selenium.LeftArrowKey,
	"ArrowRight": selenium.RightArrowKey,
	"Space":      selenium.SpaceKey,
}

// seleniumElement re-finds its target on every call, polling until the
// context deadline
type seleniumElement struct {
	wd       selenium.WebDriver
	by       string
	value    string
	suffix   locator.Suffix
	fallback time.Duration
}

func (e *seleniumElement) all() ([]selenium.WebElement, error) {
	found, err := e.wd.FindElements(e.by, e.value)
	if err != nil {
		return nil, err
	}
	switch e.suffix.Kind {
	case locator.SuffixFirst:
		if len(found) > 0 {
			return found[:1], nil
		}
	case locator.SuffixLast:
		if len(found) > 0 {
			return found[len(found)-1:], nil
		}
	case locator.SuffixNth:
		if e.suffix.Index < len(found) {
			return found[e.suffix.Index : e.suffix.Index+1], nil
		}
		return nil, nil
	}
	return found, nil
}

func (e *seleniumElement) find(ctx context.Context) (selenium.WebElement, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fallback)
		defer cancel()
	}
	for {
		found, err := e.all()
		if err == nil && len(found) == 1 {
			return found[0], nil
		}
		if err == nil && len(found) > 1 {
			return nil, fmt.Errorf("%d elements match %s", len(found), e.value)
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return nil, fmt.Errorf("element not found: %w", err)
			}
			return nil, fmt.Errorf("element not found with selector: %s", e.value)
		case <-time.After(pollInterval):
		}
	}
}

func (e *seleniumElement) with(ctx context.Context, fn func(selenium.WebElement) error) error {
	el, err := e.find(ctx)
	if err != nil {
		return err
	}
	return fn(el)
}

func (e *seleniumElement) script(el selenium.WebElement, js string, args ...interface{}) (interface{}, error) {
	return e.wd.ExecuteScript(js, append([]interface{}{el}, args...))
}

func (e *seleniumElement) scrollTo(el selenium.WebElement) {
	if _, err := e.script(el, `arguments[0].scrollIntoView({block: 'center'}); return true;`); err != nil {
		_ = el.MoveTo(0, 0)
	}
}

func (e *seleniumElement) Click(ctx context.Context) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		e.scrollTo(el)
		return el.Click()
	})
}

func (e *seleniumElement) DblClick(ctx context.Context) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		e.scrollTo(el)
		if err := el.MoveTo(0, 0); err != nil {
			return err
		}
		return e.wd.DoubleClick()
	})
}

func (e *seleniumElement) Fill(ctx context.Context, value string) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		if err := el.Clear(); err != nil {
			return fmt.Errorf("failed to clear element: %w", err)
		}
		return el.SendKeys(value)
	})
}

func (e *seleniumElement) SelectOption(ctx context.Context, value string) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		lit := synthesizer.XPathLiteral(value)
		opt, err := el.FindElement(selenium.ByXPATH, ".//option[@value="+lit+" or normalize-space(.)="+lit+"]")
		if err != nil {
			return fmt.Errorf("option %q not found: %w", value, err)
		}
		return opt.Click()
	})
}

func (e *seleniumElement) setChecked(ctx context.Context, want bool) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		selected, err := el.IsSelected()
		if err != nil {
			return err
		}
		if selected == want {
			return nil
		}
		return el.Click()
	})
}

func (e *seleniumElement) Check(ctx context.Context) error   { return e.setChecked(ctx, true) }
func (e *seleniumElement) Uncheck(ctx context.Context) error { return e.setChecked(ctx, false) }

func (e *seleniumElement) Hover(ctx context.Context) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		e.scrollTo(el)
		return el.MoveTo(0, 0)
	})
}

func (e *seleniumElement) Press(ctx context.Context, key string) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		if k, ok := seleniumKeys[key]; ok {
			key = k
		}
		return el.SendKeys(key)
	})
}

func (e *seleniumElement) ScrollIntoView(ctx context.Context) error {
	return e.with(ctx, func(el selenium.WebElement) error {
		_, err := e.script(el, `arguments[0].scrollIntoView({block: 'center'}); return true;`)
		return err
	})
}

func (e *seleniumElement) WaitVisible(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fallback)
		defer cancel()
	}
	for {
		if visible, _ := e.IsVisible(ctx); visible {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("element %s not visible: %w", e.value, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (e *seleniumElement) IsVisible(context.Context) (bool, error) {
	found, err := e.all()
	if err != nil || len(found) != 1 {
		return false, nil
	}
	return found[0].IsDisplayed()
}

func (e *seleniumElement) IsEnabled(ctx context.Context) (bool, error) {
	el, err := e.find(ctx)
	if err != nil {
		return false, err
	}
	return el.IsEnabled()
}

func (e *seleniumElement) IsChecked(ctx context.Context) (bool, error) {
	el, err := e.find(ctx)
	if err != nil {
		return false, err
	}
	return el.IsSelected()
}

func (e *seleniumElement) InnerText(ctx context.Context) (string, error) {
	el, err := e.find(ctx)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (e *seleniumElement) TextContent(ctx context.Context) (string, error) {
	el, err := e.find(ctx)
	if err != nil {
		return "", err
	}
	res, err := e.script(el, `return arguments[0].textContent;`)
	if err != nil {
		return "", err
	}
	text, _ := res.(string)
	return text, nil
}

func (e *seleniumElement) InputValue(ctx context.Context) (string, error) {
	el, err := e.find(ctx)
	if err != nil {
		return "", err
	}
	res, err := e.script(el, `return arguments[0].value;`)
	if err != nil {
		return "", err
	}
	value, _ := res.(string)
	return value, nil
}

func (e *seleniumElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	el, err := e.find(ctx)
	if err != nil {
		return "", false, err
	}
	res, err := e.script(el,
		`return arguments[0].hasAttribute(arguments[1]) ? arguments[0].getAttribute(arguments[1]) : null;`, name)
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	return fmt.Sprint(res), true, nil
}

func (e *seleniumElement) Count(context.Context) (int, error) {
	found, err := e.all()
	if err != nil {
		return 0, err
	}
	return len(found), nil
}
