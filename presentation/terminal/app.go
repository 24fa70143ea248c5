package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"step_recorder/application/generator"
	"step_recorder/application/recorder"
	"step_recorder/application/runner"
	"step_recorder/application/steplist"
	"step_recorder/application/synthesizer"
	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
	"step_recorder/infrastructure/browser"
	"step_recorder/infrastructure/config"
	"step_recorder/infrastructure/security"
	"step_recorder/infrastructure/storage"
)

// App wires recording, replay and export around one project directory
type App struct {
	cfg     config.Config
	logger  *logrus.Logger
	out     io.Writer
	store   *storage.ProjectStore
	synth   *synthesizer.Synthesizer
	project entities.ProjectConfig

	list   *steplist.List
	canon  *recorder.Canonicalizer
	rec    *recorder.Recorder
	engine *runner.Engine

	// newSource and newFactory are replaced in tests
	newSource  func(opts browser.Options) interfaces.RecordingSource
	newFactory func(opts browser.Options) interfaces.SessionFactory
}

// NewApp - creates an application for the project in cfg.ProjectDir
func NewApp(cfg config.Config, logger *logrus.Logger, out io.Writer) *App {
	if logger == nil {
		logger = cfg.NewLogger()
	}
	if out == nil {
		out = os.Stdout
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		out:    &lockedWriter{w: out},
		store:  storage.NewProjectStore(cfg.ProjectDir, logger),
		synth:  synthesizer.New(logger),
	}
	a.newSource = func(opts browser.Options) interfaces.RecordingSource {
		return browser.NewPlaywrightRecorder(opts, a.synth, a.logger)
	}
	a.newFactory = func(opts browser.Options) interfaces.SessionFactory {
		if a.cfg.Driver == config.DriverSelenium {
			return browser.NewSeleniumFactory(opts, a.logger)
		}
		return browser.NewPlaywrightFactory(opts, a.logger)
	}
	return a
}

// Open loads the project, creating it when create is set and none exists
func (a *App) Open(name string, create bool) error {
	if !a.store.Exists() {
		if !create {
			return fmt.Errorf("%w: run 'init' first", storage.ErrNotAProject)
		}
		if name == "" {
			if abs, err := filepath.Abs(a.store.Dir()); err == nil {
				name = filepath.Base(abs)
			}
		}
		if _, err := a.store.Create(name); err != nil {
			return err
		}
	}

	project, err := a.store.Load()
	if err != nil {
		return err
	}
	steps, err := a.store.LoadSteps()
	if err != nil {
		return err
	}
	a.project = project
	a.list = steplist.New(steps...)
	a.wire()
	a.logger.WithFields(logrus.Fields{
		"project": project.Name,
		"steps":   a.list.Len(),
	}).Debug("Project opened")
	return nil
}

func (a *App) wire() {
	opts := a.cfg.BrowserOptions(a.project)
	a.canon = recorder.NewCanonicalizer(a.list, a.cfg.RecorderConfig(), a.logger,
		recorder.WithOnStep(func(step entities.Step) {
			fmt.Fprintf(a.out, "+ %s\n", describe(step))
		}))
	a.rec = recorder.NewRecorder(a.newSource(opts), a.canon, a.logger)

	guard := security.NewStepGuard(a.cfg.GuardDestructive, a.logger)
	a.engine = runner.NewEngine(a.newFactory(opts), a.cfg.RunnerConfig(a.project, a.store.ScreenshotDir()), a.logger,
		runner.WithGuard(guard),
		runner.WithHooks(runner.Hooks{
			OnStepDone: func(step entities.Step, result entities.StepResult) {
				a.printResult(step, result)
			},
		}))
}

// Project returns the loaded project settings
func (a *App) Project() entities.ProjectConfig {
	return a.project
}

// Steps returns a copy of the current step list
func (a *App) Steps() []entities.Step {
	return a.list.Steps()
}

// Save persists the step list
func (a *App) Save() error {
	return a.store.SaveSteps(a.list.Steps())
}

// StartRecording opens url, or the project base URL, for capture
func (a *App) StartRecording(ctx context.Context, url string) error {
	if url == "" {
		url = a.project.BaseURL
	}
	if url == "" {
		return fmt.Errorf("no url given and the project has no baseUrl")
	}
	return a.rec.Start(ctx, url)
}

// StopRecording closes the recording browser and saves the steps
func (a *App) StopRecording() error {
	stopErr := a.rec.Stop()
	if stopErr != nil && !errors.Is(stopErr, recorder.ErrNotRecording) {
		a.logger.Warnf("Recording did not stop cleanly: %v", stopErr)
	}
	if err := a.Save(); err != nil {
		return err
	}
	if errors.Is(stopErr, recorder.ErrNotRecording) {
		return stopErr
	}
	return nil
}

// Recorder exposes pause, resume and inspect controls
func (a *App) Recorder() *recorder.Recorder {
	return a.rec
}

// Engine exposes run controls
func (a *App) Engine() *runner.Engine {
	return a.engine
}

// AddAssertion records an assertion against the last picked element
func (a *App) AddAssertion(kind entities.AssertionKind, value string) (entities.Step, error) {
	return a.rec.AddAssertion(kind, value)
}

// ResolveStep accepts a step id or a 1-based position
func (a *App) ResolveStep(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if _, ok := a.list.Get(ref); ok {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		steps := a.list.Steps()
		if n >= 1 && n <= len(steps) {
			return steps[n-1].ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", runner.ErrStepNotFound, ref)
}

// Run replays the steps selected by mode; ref names the first or only step
func (a *App) Run(ctx context.Context, mode entities.RunMode, ref string) (entities.RunSummary, error) {
	if mode == entities.RunModeAll {
		return a.engine.RunAll(ctx, a.list)
	}
	id, err := a.ResolveStep(ref)
	if err != nil {
		return entities.RunSummary{}, err
	}
	if mode == entities.RunModeSingle {
		return a.engine.RunStep(ctx, a.list, id)
	}
	return a.engine.RunFrom(ctx, a.list, id)
}

// DeleteStep removes a step by id or position
func (a *App) DeleteStep(ref string) error {
	id, err := a.ResolveStep(ref)
	if err != nil {
		return err
	}
	return a.list.Delete(id)
}

// ClearSteps drops every step; the change is persisted by the next save
func (a *App) ClearSteps() {
	a.list.Clear()
}

// MoveStep moves a step to a 1-based position
func (a *App) MoveStep(ref string, position int) error {
	id, err := a.ResolveStep(ref)
	if err != nil {
		return err
	}
	return a.list.Move(id, position-1)
}

// Export renders the steps in a dialect. An empty outPath stores the script
// under the project's tests directory.
func (a *App) Export(dialectName, outPath string) (string, error) {
	d, err := generator.ParseDialect(dialectName)
	if err != nil {
		return "", err
	}
	gen, err := generator.For(d)
	if err != nil {
		return "", err
	}
	script := gen.Generate(a.list.Steps(), a.project.Name)
	if outPath == "" {
		return a.store.SaveScript(generator.FileName(d, a.project.Name, time.Now()), script)
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outPath, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	return outPath, nil
}

// WritePlaywrightConfig writes playwright.config.ts next to config.yaml
func (a *App) WritePlaywrightConfig() (string, error) {
	path := filepath.Join(a.store.Dir(), "playwright.config.ts")
	if err := os.WriteFile(path, []byte(generator.PlaywrightConfig(a.project)), 0644); err != nil {
		return "", fmt.Errorf("failed to write playwright config: %w", err)
	}
	return path, nil
}

// Inspect ranks locator candidates for the first element matching selector
// in an HTML document
func (a *App) Inspect(r io.Reader, selector string) ([]entities.SelectorCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	if sel.Length() > 1 {
		a.logger.Warnf("%d elements match %q, using the first", sel.Length(), selector)
	}
	return a.synth.Candidates(doc.Nodes[0], sel.Get(0)), nil
}

// Close stops whatever is still running
func (a *App) Close() error {
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.rec != nil && a.rec.IsRecording() {
		return a.StopRecording()
	}
	return nil
}

func (a *App) printResult(step entities.Step, result entities.StepResult) {
	mark := "PASS"
	switch result.Status {
	case entities.StepStatusFailed:
		mark = "FAIL"
	case entities.StepStatusSkipped:
		mark = "SKIP"
	}
	line := fmt.Sprintf("[%s] %s (%s)", mark, describe(step), result.Duration.Round(time.Millisecond))
	if result.Error != "" {
		line += ": " + result.Error
	}
	fmt.Fprintln(a.out, line)
}

// PrintSteps lists the steps with their last status
func (a *App) PrintSteps() {
	steps := a.list.Steps()
	if len(steps) == 0 {
		fmt.Fprintln(a.out, "No steps recorded")
		return
	}
	for i, st := range steps {
		fmt.Fprintf(a.out, "%3d. %-8s %s\n", i+1, st.Status, describe(st))
		if st.Error != "" {
			fmt.Fprintf(a.out, "     %s\n", st.Error)
		}
	}
}

// PrintSummary reports a finished run
func (a *App) PrintSummary(summary entities.RunSummary) {
	fmt.Fprintf(a.out, "\nRun %s: %d passed, %d failed, %d skipped of %d\n",
		summary.Status, summary.Passed, summary.Failed, summary.Skipped, summary.Total)
}

func describe(step entities.Step) string {
	if step.Description != "" {
		return step.Description
	}
	return entities.Describe(step.Action, step.PrimarySelector, step.Value)
}

// lockedWriter serialises output from the shell and the run goroutine
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
