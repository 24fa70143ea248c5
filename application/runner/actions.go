package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
	"step_recorder/domain/locator"
)

// actionFunc performs one step against the live session
type actionFunc func(ctx context.Context, e *Engine, s interfaces.Session, step entities.Step) error

var actions = map[entities.Action]actionFunc{
	entities.ActionNavigate: func(ctx context.Context, _ *Engine, s interfaces.Session, step entities.Step) error {
		url := step.URL()
		if url == "" {
			return fmt.Errorf("navigate step has no url")
		}
		return s.Navigate(ctx, url)
	},
	entities.ActionClick: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.Click(ctx)
	}),
	entities.ActionDblClick: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.DblClick(ctx)
	}),
	entities.ActionInput: withElement(func(ctx context.Context, el interfaces.Element, step entities.Step) error {
		return el.Fill(ctx, step.Value)
	}),
	entities.ActionChange: withElement(func(ctx context.Context, el interfaces.Element, step entities.Step) error {
		return el.Fill(ctx, step.Value)
	}),
	entities.ActionSelect: withElement(func(ctx context.Context, el interfaces.Element, step entities.Step) error {
		return el.SelectOption(ctx, step.Value)
	}),
	entities.ActionCheck: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.Check(ctx)
	}),
	entities.ActionUncheck: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.Uncheck(ctx)
	}),
	entities.ActionHover: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.Hover(ctx)
	}),
	entities.ActionScroll: withElement(func(ctx context.Context, el interfaces.Element, _ entities.Step) error {
		return el.ScrollIntoView(ctx)
	}),
	entities.ActionKeydown: keydown,
	entities.ActionWait: func(ctx context.Context, _ *Engine, s interfaces.Session, step entities.Step) error {
		return s.Wait(ctx, waitDuration(step))
	},
	entities.ActionScreenshot: func(ctx context.Context, e *Engine, s interfaces.Session, step entities.Step) error {
		path := step.Value
		if path == "" {
			path = fmt.Sprintf("screenshot-%s.png", step.ID)
		}
		if !filepath.IsAbs(path) && e.cfg.ScreenshotDir != "" {
			path = filepath.Join(e.cfg.ScreenshotDir, path)
		}
		return s.Screenshot(ctx, path)
	},
	entities.ActionAssert: assertStep,
}

// resolve parses the step selector and binds it to the live page
func resolve(ctx context.Context, s interfaces.Session, step entities.Step) (interfaces.Element, error) {
	loc, err := locator.Parse(step.PrimarySelector)
	if err != nil {
		return nil, err
	}
	el, err := s.Resolve(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", step.PrimarySelector, err)
	}
	return el, nil
}

func withElement(fn func(ctx context.Context, el interfaces.Element, step entities.Step) error) actionFunc {
	return func(ctx context.Context, _ *Engine, s interfaces.Session, step entities.Step) error {
		el, err := resolve(ctx, s, step)
		if err != nil {
			return err
		}
		return fn(ctx, el, step)
	}
}

func keydown(ctx context.Context, _ *Engine, s interfaces.Session, step entities.Step) error {
	key := step.Value
	if key == "" {
		key = "Enter"
	}
	if step.PrimarySelector == "" {
		step.PrimarySelector = "body"
	}
	el, err := resolve(ctx, s, step)
	if err != nil {
		return err
	}
	return el.Press(ctx, key)
}

// waitDuration reads the wait step value as milliseconds, one second by default
func waitDuration(step entities.Step) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(step.Value))
	if err != nil || ms < 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}

func assertStep(ctx context.Context, _ *Engine, s interfaces.Session, step entities.Step) error {
	kind := step.AssertionKind
	if kind == "" {
		kind = entities.AssertVisible
	}
	expected := step.AssertionValue

	switch kind {
	case entities.AssertURL:
		url, err := s.URL(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(url, expected) {
			return fmt.Errorf("expected url to contain %q, found %q", expected, url)
		}
		return nil
	case entities.AssertTitle:
		title, err := s.Title(ctx)
		if err != nil {
			return err
		}
		if title != expected {
			return fmt.Errorf("expected title %q, found %q", expected, title)
		}
		return nil
	}

	el, err := resolve(ctx, s, step)
	if err != nil {
		return err
	}
	switch kind {
	case entities.AssertVisible:
		return el.WaitVisible(ctx)
	case entities.AssertHidden:
		return expectFlag(el.IsVisible(ctx))(false, "hidden")
	case entities.AssertText:
		text, err := el.InnerText(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(text, expected) {
			return fmt.Errorf("expected text %q, found %q", expected, text)
		}
	case entities.AssertContainText:
		text, err := el.TextContent(ctx)
		if err != nil {
			return err
		}
		if !strings.Contains(text, expected) {
			return fmt.Errorf("expected text to contain %q, found %q", expected, text)
		}
	case entities.AssertValue:
		val, err := el.InputValue(ctx)
		if err != nil {
			return err
		}
		if val != expected {
			return fmt.Errorf("expected value %q, found %q", expected, val)
		}
	case entities.AssertAttribute:
		name, want, hasValue := entities.SplitAttributeAssertion(expected)
		if name == "" {
			return fmt.Errorf("attribute assertion has no attribute name")
		}
		actual, present, err := el.Attribute(ctx, name)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("expected attribute %s to exist", name)
		}
		if hasValue && actual != want {
			return fmt.Errorf("expected attribute %s=%q, found %q", name, want, actual)
		}
	case entities.AssertCount:
		want, err := strconv.Atoi(strings.TrimSpace(expected))
		if err != nil {
			return fmt.Errorf("invalid expected count %q", expected)
		}
		count, err := el.Count(ctx)
		if err != nil {
			return err
		}
		if count != want {
			return fmt.Errorf("expected count %d, found %d", want, count)
		}
	case entities.AssertEnabled:
		return expectFlag(el.IsEnabled(ctx))(true, "enabled")
	case entities.AssertDisabled:
		return expectFlag(el.IsEnabled(ctx))(false, "disabled")
	case entities.AssertChecked:
		return expectFlag(el.IsChecked(ctx))(true, "checked")
	case entities.AssertUnchecked:
		return expectFlag(el.IsChecked(ctx))(false, "unchecked")
	default:
		return fmt.Errorf("unsupported assertion %q", kind)
	}
	return nil
}

// expectFlag turns a boolean probe into an assertion error
func expectFlag(got bool, err error) func(want bool, state string) error {
	return func(want bool, state string) error {
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("expected element to be %s", state)
		}
		return nil
	}
}
