// Package runner replays step lists against a live browser session.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
)

var (
	ErrStepNotFound   = errors.New("step not found")
	ErrAlreadyRunning = errors.New("a run is already in progress")
	ErrSessionFailed  = errors.New("failed to establish browser session")
)

const (
	DefaultActionTimeout     = 10 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
)

// StepSource is the ordered step list a run reads from. SetStatus is the only
// mutation the engine performs on it.
type StepSource interface {
	Steps() []entities.Step
	SetStatus(id string, status entities.StepStatus, errMsg string) error
}

// Config holds replay settings
type Config struct {
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	// StopOnFailure aborts the run at the first failed step
	StopOnFailure bool
	// ScreenshotDir is where screenshot steps without a path are written
	ScreenshotDir string
}

// Hooks are called synchronously from the run goroutine
type Hooks struct {
	OnStatus    func(status entities.RunStatus)
	OnRunStart  func(mode entities.RunMode, total int)
	OnStepStart func(step entities.Step, index int)
	OnStepDone  func(step entities.Step, result entities.StepResult)
	OnComplete  func(summary entities.RunSummary)
}

// runSession is the per-run state; it never outlives the run call
type runSession struct {
	session interfaces.Session
	index   int
	paused  bool
	stopped bool
	gate    chan struct{}
}

// Engine executes one replay at a time
type Engine struct {
	factory interfaces.SessionFactory
	guard   interfaces.StepGuard
	cfg     Config
	hooks   Hooks
	log     *logrus.Logger

	mu     sync.Mutex
	status entities.RunStatus
	run    *runSession
}

// Option customises an Engine
type Option func(*Engine)

// WithGuard installs a guard that may skip steps
func WithGuard(g interfaces.StepGuard) Option { return func(e *Engine) { e.guard = g } }

// WithHooks installs run lifecycle callbacks
func WithHooks(h Hooks) Option { return func(e *Engine) { e.hooks = h } }

// NewEngine - creates a replay engine opening sessions from factory
func NewEngine(factory interfaces.SessionFactory, cfg Config, log *logrus.Logger, opts ...Option) *Engine {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = DefaultActionTimeout
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Engine{
		factory: factory,
		cfg:     cfg,
		log:     log,
		status:  entities.RunStatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status returns the current run status
func (e *Engine) Status() entities.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// RunAll replays every step in order
func (e *Engine) RunAll(ctx context.Context, src StepSource) (entities.RunSummary, error) {
	return e.execute(ctx, src, entities.RunModeAll, "")
}

// RunFrom replays the suffix of the list starting at id, inclusive
func (e *Engine) RunFrom(ctx context.Context, src StepSource, id string) (entities.RunSummary, error) {
	return e.execute(ctx, src, entities.RunModeFrom, id)
}

// RunStep replays exactly one step
func (e *Engine) RunStep(ctx context.Context, src StepSource, id string) (entities.RunSummary, error) {
	return e.execute(ctx, src, entities.RunModeSingle, id)
}

// Pause suspends the run at the next step boundary. The status turns
// paused once the in-flight step has finished.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	if e.run == nil || e.run.stopped || e.run.paused {
		e.mu.Unlock()
		return false
	}
	e.run.paused = true
	e.run.gate = make(chan struct{})
	e.mu.Unlock()

	e.log.Info("Pause requested")
	return true
}

// Resume releases a paused run
func (e *Engine) Resume() bool {
	e.mu.Lock()
	if e.run == nil || !e.run.paused {
		e.mu.Unlock()
		return false
	}
	e.run.paused = false
	e.releaseGateLocked()
	changed := e.setStatusLocked(entities.RunStatusRunning)
	e.mu.Unlock()

	e.notify(changed, entities.RunStatusRunning)
	e.log.Info("Run resumed")
	return true
}

// Stop aborts the run at the next step boundary, releasing a pending pause
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil || e.run.stopped {
		return false
	}
	e.run.stopped = true
	e.releaseGateLocked()
	e.log.Info("Stop requested")
	return true
}

func (e *Engine) releaseGateLocked() {
	if e.run.gate != nil {
		close(e.run.gate)
		e.run.gate = nil
	}
}

func (e *Engine) setStatusLocked(status entities.RunStatus) bool {
	if e.status == status {
		return false
	}
	e.status = status
	return true
}

// transition sets the status and reports a change outside the lock
func (e *Engine) transition(status entities.RunStatus) {
	e.mu.Lock()
	changed := e.setStatusLocked(status)
	e.mu.Unlock()
	e.notify(changed, status)
}

func (e *Engine) notify(changed bool, status entities.RunStatus) {
	if changed && e.hooks.OnStatus != nil {
		e.hooks.OnStatus(status)
	}
}

// selectSteps slices the list for the run mode
func selectSteps(steps []entities.Step, mode entities.RunMode, id string) ([]entities.Step, error) {
	if mode == entities.RunModeAll {
		return steps, nil
	}
	for i, s := range steps {
		if s.ID != id {
			continue
		}
		if mode == entities.RunModeSingle {
			return steps[i : i+1], nil
		}
		return steps[i:], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrStepNotFound, id)
}

func (e *Engine) execute(ctx context.Context, src StepSource, mode entities.RunMode, id string) (summary entities.RunSummary, err error) {
	selected, err := selectSteps(src.Steps(), mode, id)
	if err != nil {
		return entities.RunSummary{}, err
	}

	e.mu.Lock()
	if e.run != nil {
		e.mu.Unlock()
		return entities.RunSummary{}, ErrAlreadyRunning
	}
	rs := &runSession{}
	e.run = rs
	changed := e.setStatusLocked(entities.RunStatusRunning)
	e.mu.Unlock()
	e.notify(changed, entities.RunStatusRunning)

	summary = entities.RunSummary{Total: len(selected)}
	for _, s := range selected {
		e.setStepStatus(src, s.ID, entities.StepStatusIdle, "")
	}
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(mode, len(selected))
	}
	e.log.WithFields(logrus.Fields{"mode": mode, "steps": len(selected)}).Info("Run started")

	final := entities.RunStatusCompleted
	defer func() {
		summary.Status = final
		e.mu.Lock()
		changed := e.setStatusLocked(final)
		e.run = nil
		e.mu.Unlock()
		e.notify(changed, final)

		e.log.WithFields(logrus.Fields{
			"passed":  summary.Passed,
			"failed":  summary.Failed,
			"skipped": summary.Skipped,
			"total":   summary.Total,
		}).Infof("Run %s", final)
		if e.hooks.OnComplete != nil {
			e.hooks.OnComplete(summary)
		}

		e.transition(entities.RunStatusIdle)
	}()

	session, serr := e.factory.NewSession(ctx)
	if serr != nil {
		final = entities.RunStatusError
		return summary, fmt.Errorf("%w: %v", ErrSessionFailed, serr)
	}
	rs.session = session
	defer func() {
		if cerr := session.Close(); cerr != nil {
			e.log.Warnf("Failed to close browser session: %v", cerr)
		}
	}()

	for i, step := range selected {
		if !e.checkpoint(ctx, rs) {
			final = entities.RunStatusStopped
			break
		}
		e.mu.Lock()
		rs.index = i
		e.mu.Unlock()

		result := e.runStep(ctx, src, session, step, i)
		summary.Record(result)

		if result.Status == entities.StepStatusFailed && e.cfg.StopOnFailure {
			final = entities.RunStatusError
			err = fmt.Errorf("step %s failed: %s", step.ID, result.Error)
			break
		}
	}

	e.mu.Lock()
	if rs.stopped && final == entities.RunStatusCompleted {
		final = entities.RunStatusStopped
	}
	e.mu.Unlock()
	return summary, err
}

// checkpoint runs at every step boundary. It reports false when the run
// must end, blocking first while the run is paused.
func (e *Engine) checkpoint(ctx context.Context, rs *runSession) bool {
	e.mu.Lock()
	if rs.stopped {
		e.mu.Unlock()
		return false
	}
	if !rs.paused {
		e.mu.Unlock()
		return ctx.Err() == nil
	}
	gate := rs.gate
	changed := e.setStatusLocked(entities.RunStatusPaused)
	e.mu.Unlock()
	e.notify(changed, entities.RunStatusPaused)
	e.log.Info("Run paused")

	select {
	case <-gate:
	case <-ctx.Done():
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return !rs.stopped && ctx.Err() == nil
}

// runStep executes one step and records its outcome on the list
func (e *Engine) runStep(ctx context.Context, src StepSource, session interfaces.Session, step entities.Step, index int) (result entities.StepResult) {
	start := time.Now()
	result.StepID = step.ID
	e.setStepStatus(src, step.ID, entities.StepStatusRunning, "")
	if e.hooks.OnStepStart != nil {
		e.hooks.OnStepStart(step, index)
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = entities.StepStatusFailed
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.Duration = time.Since(start)
		e.setStepStatus(src, step.ID, result.Status, result.Error)

		fields := logrus.Fields{
			"step_id":  step.ID,
			"action":   step.Action,
			"duration": result.Duration,
		}
		switch result.Status {
		case entities.StepStatusFailed:
			e.log.WithFields(fields).Errorf("Step failed: %s", result.Error)
		case entities.StepStatusSkipped:
			e.log.WithFields(fields).Warnf("Step skipped: %s", result.Error)
		default:
			e.log.WithFields(fields).Info("Step passed")
		}
		if e.hooks.OnStepDone != nil {
			e.hooks.OnStepDone(step, result)
		}
	}()

	if e.guard != nil {
		if skip, reason := e.guard.ShouldSkip(step); skip {
			result.Status = entities.StepStatusSkipped
			result.Error = reason
			return result
		}
	}

	act, ok := actions[step.Action]
	if !ok {
		result.Status = entities.StepStatusFailed
		result.Error = fmt.Sprintf("unsupported action %q", step.Action)
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.timeoutFor(step))
	defer cancel()
	if err := act(stepCtx, e, session, step); err != nil {
		result.Status = entities.StepStatusFailed
		result.Error = err.Error()
		return result
	}
	result.Status = entities.StepStatusPassed
	return result
}

// setStepStatus writes a step status back to the list. A step deleted
// while the run is in flight only gets a warning.
func (e *Engine) setStepStatus(src StepSource, id string, status entities.StepStatus, msg string) {
	if err := src.SetStatus(id, status, msg); err != nil {
		e.log.WithFields(logrus.Fields{
			"step_id": id,
			"status":  status,
		}).Warnf("Failed to record step status: %v", err)
	}
}

func (e *Engine) timeoutFor(step entities.Step) time.Duration {
	switch step.Action {
	case entities.ActionNavigate:
		return e.cfg.NavigationTimeout
	case entities.ActionWait:
		return waitDuration(step) + e.cfg.ActionTimeout
	}
	return e.cfg.ActionTimeout
}
