// Package recorder turns raw page interactions into canonical steps.
package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"step_recorder/application/steplist"
	"step_recorder/domain/entities"
)

const (
	DefaultDebounce        = 500 * time.Millisecond
	DefaultDuplicateWindow = 300 * time.Millisecond

	// rawFallbackConfidence is given to a bare recorded selector when the
	// synthesizer produced nothing for the element
	rawFallbackConfidence = 0.1
)

// Config holds the canonicalizer timing windows
type Config struct {
	Debounce        time.Duration
	DuplicateWindow time.Duration
}

// pendingInput is a text input burst waiting for its quiet period
type pendingInput struct {
	event      entities.RawEvent
	candidates []entities.SelectorCandidate
	generation uint64
	timer      Timer
}

// Canonicalizer coalesces and deduplicates raw events into steps and
// appends them to the step list
type Canonicalizer struct {
	mu         sync.Mutex
	list       *steplist.List
	clock      Clock
	log        *logrus.Logger
	cfg        Config
	onStep     func(entities.Step)
	newID      func() string
	pending    map[string]*pendingInput
	order      []string
	generation uint64
}

// Option customises a Canonicalizer
type Option func(*Canonicalizer)

// WithClock replaces the wall clock
func WithClock(c Clock) Option { return func(cz *Canonicalizer) { cz.clock = c } }

// WithOnStep registers the callback announcing every materialized step
func WithOnStep(fn func(entities.Step)) Option { return func(cz *Canonicalizer) { cz.onStep = fn } }

// WithIDGenerator replaces the uuid step id generator
func WithIDGenerator(fn func() string) Option { return func(cz *Canonicalizer) { cz.newID = fn } }

// NewCanonicalizer - creates a canonicalizer appending to list
func NewCanonicalizer(list *steplist.List, cfg Config, log *logrus.Logger, opts ...Option) *Canonicalizer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = DefaultDuplicateWindow
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Canonicalizer{
		list:    list,
		clock:   SystemClock(),
		log:     log,
		cfg:     cfg,
		newID:   uuid.NewString,
		pending: make(map[string]*pendingInput),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Navigate records a navigate step for url
func (c *Canonicalizer) Navigate(url string, timestamp int64) {
	c.mu.Lock()
	emitted := c.flushLocked()
	if step, ok := c.emitLocked(entities.Step{
		Action:    entities.ActionNavigate,
		Value:     url,
		Timestamp: c.stamp(timestamp),
	}); ok {
		emitted = append(emitted, step)
	}
	c.mu.Unlock()
	c.announce(emitted)
}

// HandleEvent consumes one raw event
func (c *Canonicalizer) HandleEvent(ev entities.RawEvent) {
	if ev.Kind == entities.ActionNavigate {
		c.Navigate(ev.URL, ev.Timestamp)
		return
	}
	if !ev.Kind.IsValid() {
		c.log.Warnf("Ignoring event of unknown kind %q", ev.Kind)
		return
	}

	candidates := entities.RankCandidates(ev.Candidates)
	if len(candidates) == 0 && ev.RawSelector != "" {
		candidates = []entities.SelectorCandidate{{
			Strategy:   entities.StrategyRaw,
			Expression: ev.RawSelector,
			Confidence: rawFallbackConfidence,
		}}
	}
	if len(candidates) == 0 && ev.Kind.TargetsElement() {
		c.log.WithField("kind", ev.Kind).Warn("Dropping event without any locator")
		return
	}
	ev.Timestamp = c.stamp(ev.Timestamp)

	c.mu.Lock()
	if ev.Kind == entities.ActionInput {
		c.bufferInputLocked(ev, candidates)
		c.mu.Unlock()
		return
	}
	emitted := c.flushLocked()
	if step, ok := c.emitLocked(stepFromEvent(ev, candidates)); ok {
		emitted = append(emitted, step)
	}
	c.mu.Unlock()
	c.announce(emitted)
}

// AddAssertion records an assert step for a picked element. Assertions never
// go through coalescing or duplicate suppression.
func (c *Canonicalizer) AddAssertion(pick entities.AssertionPick) (entities.Step, error) {
	if !pick.Kind.IsValid() {
		return entities.Step{}, fmt.Errorf("add assertion: unknown kind %q", pick.Kind)
	}
	candidates := entities.RankCandidates(pick.Candidates)
	if len(candidates) == 0 && !pick.Kind.IsPageLevel() {
		return entities.Step{}, fmt.Errorf("add assertion: no locator for %s", pick.Kind)
	}

	step := entities.Step{
		ID:             c.newID(),
		Action:         entities.ActionAssert,
		Candidates:     candidates,
		AssertionKind:  pick.Kind,
		AssertionValue: pick.Value,
		Value:          pick.Value,
		Timestamp:      c.stamp(pick.Timestamp),
		Status:         entities.StepStatusIdle,
	}
	if len(candidates) > 0 {
		step.PrimarySelector = candidates[0].Expression
	}
	step.Description = describeAssertion(step)

	c.mu.Lock()
	emitted := c.flushLocked()
	if err := c.list.Append(step); err != nil {
		c.mu.Unlock()
		c.announce(emitted)
		return entities.Step{}, fmt.Errorf("add assertion: %w", err)
	}
	emitted = append(emitted, step)
	c.mu.Unlock()
	c.announce(emitted)
	c.log.WithField("step_id", step.ID).Infof("Added assertion: %s", step.Description)
	return step, nil
}

// Flush materializes every pending input burst immediately
func (c *Canonicalizer) Flush() {
	c.mu.Lock()
	emitted := c.flushLocked()
	c.mu.Unlock()
	c.announce(emitted)
}

// Pending returns how many input bursts are waiting for their quiet period
func (c *Canonicalizer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Canonicalizer) bufferInputLocked(ev entities.RawEvent, candidates []entities.SelectorCandidate) {
	key := inputKey(ev, candidates)
	c.generation++
	gen := c.generation

	p, ok := c.pending[key]
	if ok {
		p.timer.Stop()
	} else {
		p = &pendingInput{}
		c.pending[key] = p
		c.order = append(c.order, key)
	}
	p.event = ev
	p.candidates = candidates
	p.generation = gen
	p.timer = c.clock.AfterFunc(c.cfg.Debounce, func() { c.expire(key, gen) })
}

// expire fires when a burst has been quiet for the debounce window
func (c *Canonicalizer) expire(key string, gen uint64) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if !ok || p.generation != gen {
		c.mu.Unlock()
		return
	}
	var emitted []entities.Step
	if step, ok := c.materializeLocked(key); ok {
		emitted = append(emitted, step)
	}
	c.mu.Unlock()
	c.announce(emitted)
}

func (c *Canonicalizer) flushLocked() []entities.Step {
	var emitted []entities.Step
	for len(c.order) > 0 {
		key := c.order[0]
		if p, ok := c.pending[key]; ok {
			p.timer.Stop()
		}
		if step, ok := c.materializeLocked(key); ok {
			emitted = append(emitted, step)
		}
	}
	return emitted
}

func (c *Canonicalizer) materializeLocked(key string) (entities.Step, bool) {
	p := c.pending[key]
	delete(c.pending, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if p == nil {
		return entities.Step{}, false
	}
	return c.emitLocked(stepFromEvent(p.event, p.candidates))
}

// emitLocked assigns an id, applies duplicate suppression and appends
func (c *Canonicalizer) emitLocked(step entities.Step) (entities.Step, bool) {
	if last, ok := c.list.Last(); ok && isDuplicate(last, step, c.cfg.DuplicateWindow) {
		c.log.WithFields(logrus.Fields{
			"action":   step.Action,
			"selector": step.PrimarySelector,
		}).Debug("Suppressed duplicate event")
		return entities.Step{}, false
	}
	step.ID = c.newID()
	step.Status = entities.StepStatusIdle
	if step.Description == "" {
		step.Description = entities.Describe(step.Action, step.PrimarySelector, step.Value)
	}
	if err := c.list.Append(step); err != nil {
		c.log.Errorf("Failed to append step: %v", err)
		return entities.Step{}, false
	}
	c.log.WithFields(logrus.Fields{
		"step_id": step.ID,
		"action":  step.Action,
	}).Infof("Recorded: %s", step.Description)
	return step, true
}

func (c *Canonicalizer) announce(steps []entities.Step) {
	if c.onStep == nil {
		return
	}
	for _, s := range steps {
		c.onStep(s)
	}
}

func (c *Canonicalizer) stamp(ts int64) int64 {
	if ts > 0 {
		return ts
	}
	return c.clock.Now().UnixMilli()
}

// inputKey identifies the field a keystroke belongs to. The raw selector is
// the element's document path and stays put while its text changes, the
// synthesized expressions may not.
func inputKey(ev entities.RawEvent, candidates []entities.SelectorCandidate) string {
	if ev.RawSelector != "" {
		return ev.RawSelector
	}
	return candidates[0].Expression
}

func isDuplicate(last, next entities.Step, window time.Duration) bool {
	if last.Action != next.Action || last.PrimarySelector != next.PrimarySelector || last.Value != next.Value {
		return false
	}
	delta := next.Timestamp - last.Timestamp
	if delta < 0 {
		delta = -delta
	}
	return delta < window.Milliseconds()
}

func stepFromEvent(ev entities.RawEvent, candidates []entities.SelectorCandidate) entities.Step {
	step := entities.Step{
		Action:     ev.Kind,
		Candidates: candidates,
		Value:      ev.Value,
		Timestamp:  ev.Timestamp,
	}
	if len(candidates) > 0 {
		step.PrimarySelector = candidates[0].Expression
	}
	return step
}

func describeAssertion(step entities.Step) string {
	target := step.PrimarySelector
	if step.AssertionKind.IsPageLevel() {
		target = "page"
	}
	if step.AssertionValue == "" {
		return fmt.Sprintf("Assert that %s %s", target, step.AssertionKind)
	}
	return fmt.Sprintf("Assert that %s %s %q", target, step.AssertionKind, step.AssertionValue)
}
