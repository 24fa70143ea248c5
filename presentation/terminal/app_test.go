package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"step_recorder/application/runner"
	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
	"step_recorder/domain/locator"
	"step_recorder/infrastructure/browser"
	"step_recorder/infrastructure/config"
	"step_recorder/infrastructure/storage"
)

type fakeSource struct {
	mu         sync.Mutex
	handlers   interfaces.RecordingHandlers
	opened     string
	inspecting bool
	closed     bool
}

func (f *fakeSource) Open(_ context.Context, url string, h interfaces.RecordingHandlers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = url
	f.handlers = h
	return nil
}

func (f *fakeSource) SetInspecting(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspecting = on
	return nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// okElement succeeds at everything
type okElement struct{}

func (okElement) Click(context.Context) error                 { return nil }
func (okElement) DblClick(context.Context) error              { return nil }
func (okElement) Fill(context.Context, string) error          { return nil }
func (okElement) SelectOption(context.Context, string) error  { return nil }
func (okElement) Check(context.Context) error                 { return nil }
func (okElement) Uncheck(context.Context) error               { return nil }
func (okElement) Hover(context.Context) error                 { return nil }
func (okElement) Press(context.Context, string) error         { return nil }
func (okElement) ScrollIntoView(context.Context) error        { return nil }
func (okElement) WaitVisible(context.Context) error           { return nil }
func (okElement) IsVisible(context.Context) (bool, error)     { return true, nil }
func (okElement) IsEnabled(context.Context) (bool, error)     { return true, nil }
func (okElement) IsChecked(context.Context) (bool, error)     { return false, nil }
func (okElement) InnerText(context.Context) (string, error)   { return "", nil }
func (okElement) TextContent(context.Context) (string, error) { return "", nil }
func (okElement) InputValue(context.Context) (string, error)  { return "", nil }
func (okElement) Count(context.Context) (int, error)          { return 1, nil }
func (okElement) Attribute(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type okSession struct {
	mu       sync.Mutex
	visited  []string
	resolved []string
}

func (s *okSession) Resolve(_ context.Context, loc locator.Locator) (interfaces.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = append(s.resolved, loc.String())
	return okElement{}, nil
}

func (s *okSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = append(s.visited, url)
	return nil
}

func (s *okSession) Wait(context.Context, time.Duration) error { return nil }
func (s *okSession) Screenshot(context.Context, string) error  { return nil }
func (s *okSession) URL(context.Context) (string, error)       { return "", nil }
func (s *okSession) Title(context.Context) (string, error)     { return "", nil }
func (s *okSession) Close() error                              { return nil }

type okFactory struct{ session *okSession }

func (f okFactory) NewSession(context.Context) (interfaces.Session, error) { return f.session, nil }

type harness struct {
	app     *App
	source  *fakeSource
	session *okSession
	out     *bytes.Buffer
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.ProjectDir = filepath.Join(t.TempDir(), "checkout")
	h := &harness{source: &fakeSource{}, session: &okSession{}, out: &bytes.Buffer{}, dir: cfg.ProjectDir}
	h.app = NewApp(cfg, log, h.out)
	h.app.newSource = func(browser.Options) interfaces.RecordingSource { return h.source }
	h.app.newFactory = func(browser.Options) interfaces.SessionFactory { return okFactory{session: h.session} }
	return h
}

var saveCandidates = []entities.SelectorCandidate{
	{Strategy: entities.StrategyRole, Expression: `byRole('button', {name: 'Save'})`, Confidence: 0.85},
	{Strategy: entities.StrategyID, Expression: "#save", Confidence: 0.9},
}

func record(t *testing.T, h *harness) {
	t.Helper()
	require.NoError(t, h.app.StartRecording(context.Background(), "https://shop.example.com"))
	h.source.handlers.OnEvent(entities.RawEvent{Kind: entities.ActionClick, Candidates: saveCandidates})
	require.NoError(t, h.app.StopRecording())
}

func TestOpenRequiresProjectUnlessCreating(t *testing.T) {
	h := newHarness(t)
	err := h.app.Open("", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotAProject))

	require.NoError(t, h.app.Open("", true))
	assert.Equal(t, "checkout", h.app.Project().Name)
	assert.Empty(t, h.app.Steps())
}

func TestRecordSaveAndReload(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("Checkout", true))
	record(t, h)

	assert.Equal(t, "https://shop.example.com", h.source.opened)
	assert.True(t, h.source.closed)
	steps := h.app.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, entities.ActionNavigate, steps[0].Action)
	assert.Equal(t, entities.ActionClick, steps[1].Action)
	assert.Equal(t, "#save", steps[1].PrimarySelector)
	assert.Contains(t, h.out.String(), "+ Navigate to https://shop.example.com")

	again := NewApp(config.Config{ProjectDir: h.dir, LogLevel: logrus.ErrorLevel}, nil, io.Discard)
	require.NoError(t, again.Open("", false))
	assert.Equal(t, "Checkout", again.Project().Name)
	assert.Len(t, again.Steps(), 2)
}

func TestStartRecordingNeedsURL(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("", true))
	assert.Error(t, h.app.StartRecording(context.Background(), ""))
}

func TestRunReplaysRecordedSteps(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("", true))
	record(t, h)

	summary, err := h.app.Run(context.Background(), entities.RunModeAll, "")
	require.NoError(t, err)
	assert.Equal(t, entities.RunSummary{Passed: 2, Total: 2, Status: entities.RunStatusCompleted}, summary)
	assert.Equal(t, []string{"https://shop.example.com"}, h.session.visited)
	assert.Equal(t, []string{"#save"}, h.session.resolved)
	assert.Contains(t, h.out.String(), "[PASS] ")

	summary, err = h.app.Run(context.Background(), entities.RunModeSingle, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	_, err = h.app.Run(context.Background(), entities.RunModeFrom, "nope")
	assert.True(t, errors.Is(err, runner.ErrStepNotFound))
}

func TestResolveDeleteAndMoveSteps(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("", true))
	record(t, h)
	steps := h.app.Steps()

	id, err := h.app.ResolveStep(steps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, steps[1].ID, id)
	id, err = h.app.ResolveStep("1")
	require.NoError(t, err)
	assert.Equal(t, steps[0].ID, id)
	_, err = h.app.ResolveStep("3")
	assert.Error(t, err)

	require.NoError(t, h.app.MoveStep("2", 1))
	assert.Equal(t, steps[1].ID, h.app.Steps()[0].ID)
	require.NoError(t, h.app.DeleteStep("1"))
	require.Len(t, h.app.Steps(), 1)
	assert.Equal(t, steps[0].ID, h.app.Steps()[0].ID)
}

func TestExportDialects(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("Checkout", true))
	record(t, h)

	path, err := h.app.Export("typescript", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "tests"), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".spec.ts"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "await page.goto('https://shop.example.com');")
	assert.Contains(t, string(data), "await page.locator('#save').click();")

	path, err = h.app.Export("java", "")
	require.NoError(t, err)
	assert.Equal(t, "CheckoutTest.java", filepath.Base(path))

	out := filepath.Join(t.TempDir(), "features", "checkout.feature")
	path, err = h.app.Export("gherkin", out)
	require.NoError(t, err)
	assert.Equal(t, out, path)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Feature: Checkout"))

	_, err = h.app.Export("cobol", "")
	assert.Error(t, err)

	cfgPath, err := h.app.WritePlaywrightConfig()
	require.NoError(t, err)
	assert.FileExists(t, cfgPath)
}

func TestAssertionNeedsPick(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("", true))
	require.NoError(t, h.app.StartRecording(context.Background(), "https://shop.example.com"))

	_, err := h.app.AddAssertion(entities.AssertVisible, "")
	assert.Error(t, err)

	require.NoError(t, h.app.Recorder().Inspect(true))
	h.source.handlers.OnPick(saveCandidates)
	step, err := h.app.AddAssertion(entities.AssertText, "Save")
	require.NoError(t, err)
	assert.Equal(t, "#save", step.PrimarySelector)
	require.NoError(t, h.app.StopRecording())
}

func TestInspectRanksCandidates(t *testing.T) {
	h := newHarness(t)
	page := `<html><body><button id="save" data-testid="save-btn">Save</button></body></html>`

	cands, err := h.app.Inspect(strings.NewReader(page), "#save")
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, entities.StrategyTestID, cands[0].Strategy)

	_, err = h.app.Inspect(strings.NewReader(page), "table")
	assert.Error(t, err)
}

func TestParseAssertionKind(t *testing.T) {
	k, err := ParseAssertionKind("Contains")
	require.NoError(t, err)
	assert.Equal(t, entities.AssertContainText, k)

	k, err = ParseAssertionKind("toHaveURL")
	require.NoError(t, err)
	assert.Equal(t, entities.AssertURL, k)

	_, err = ParseAssertionKind("toBeShiny")
	assert.Error(t, err)
}

func TestShellSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.app.Open("Checkout", true))
	record(t, h)

	input := strings.Join([]string{
		"list",
		"export gherkin",
		"bogus",
		"step 2",
		"",
	}, "\n")
	require.NoError(t, NewShell(h.app, strings.NewReader(input)).Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Step Recorder - Checkout")
	assert.Contains(t, out, "  1. idle")
	assert.Contains(t, out, "Exported to ")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "Run completed: 1 passed, 0 failed, 0 skipped of 1")

	features, err := filepath.Glob(filepath.Join(h.dir, "tests", "*.feature"))
	require.NoError(t, err)
	assert.Len(t, features, 1)
}
