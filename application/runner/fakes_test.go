package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"step_recorder/domain/interfaces"
	"step_recorder/domain/locator"
)

type fakeElement struct {
	session *fakeSession
	key     string

	visible bool
	enabled bool
	checked bool
	text    string
	value   string
	attrs   map[string]string
	count   int
	failOn  string
	block   chan struct{}
}

func (f *fakeElement) do(ctx context.Context, op string) error {
	f.session.record(op + ":" + f.key)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failOn == op {
		return fmt.Errorf("%s failed on %s", op, f.key)
	}
	return nil
}

func (f *fakeElement) Click(ctx context.Context) error          { return f.do(ctx, "click") }
func (f *fakeElement) DblClick(ctx context.Context) error       { return f.do(ctx, "dblclick") }
func (f *fakeElement) Fill(ctx context.Context, v string) error { return f.do(ctx, "fill="+v) }
func (f *fakeElement) SelectOption(ctx context.Context, v string) error {
	return f.do(ctx, "select="+v)
}
func (f *fakeElement) Check(ctx context.Context) error          { return f.do(ctx, "check") }
func (f *fakeElement) Uncheck(ctx context.Context) error        { return f.do(ctx, "uncheck") }
func (f *fakeElement) Hover(ctx context.Context) error          { return f.do(ctx, "hover") }
func (f *fakeElement) Press(ctx context.Context, k string) error { return f.do(ctx, "press="+k) }
func (f *fakeElement) ScrollIntoView(ctx context.Context) error { return f.do(ctx, "scroll") }

func (f *fakeElement) WaitVisible(ctx context.Context) error {
	if !f.visible {
		return errors.New("timeout waiting for element to be visible")
	}
	return nil
}

func (f *fakeElement) IsVisible(context.Context) (bool, error)     { return f.visible, nil }
func (f *fakeElement) IsEnabled(context.Context) (bool, error)     { return f.enabled, nil }
func (f *fakeElement) IsChecked(context.Context) (bool, error)     { return f.checked, nil }
func (f *fakeElement) InnerText(context.Context) (string, error)   { return f.text, nil }
func (f *fakeElement) TextContent(context.Context) (string, error) { return f.text, nil }
func (f *fakeElement) InputValue(context.Context) (string, error)  { return f.value, nil }
func (f *fakeElement) Count(context.Context) (int, error)          { return f.count, nil }

func (f *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := f.attrs[name]
	return v, ok, nil
}

type fakeSession struct {
	mu       sync.Mutex
	elements map[string]*fakeElement
	calls    []string
	resolved []locator.Locator
	url      string
	title    string
	closed   bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{elements: map[string]*fakeElement{}}
}

// element registers an element reachable through the canonical expression
func (s *fakeSession) element(expr string) *fakeElement {
	el := &fakeElement{session: s, key: expr, visible: true, enabled: true}
	s.elements[expr] = el
	return el
}

func (s *fakeSession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSession) Resolve(_ context.Context, loc locator.Locator) (interfaces.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, loc)
	el, ok := s.elements[loc.String()]
	if !ok {
		return nil, fmt.Errorf("no element matches %s", loc)
	}
	return el, nil
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.record("navigate:" + url)
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Wait(_ context.Context, d time.Duration) error {
	s.record("wait:" + d.String())
	return nil
}

func (s *fakeSession) Screenshot(_ context.Context, path string) error {
	s.record("screenshot:" + path)
	return nil
}

func (s *fakeSession) URL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *fakeSession) Title(context.Context) (string, error) { return s.title, nil }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFactory struct {
	mu      sync.Mutex
	session *fakeSession
	err     error
	opened  int
}

func (f *fakeFactory) NewSession(context.Context) (interfaces.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeFactory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
