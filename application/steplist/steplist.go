// Package steplist holds the ordered step collection shared by the recorder,
// the replay engine and the exporters.
package steplist

import (
	"errors"
	"fmt"
	"sync"

	"step_recorder/domain/entities"
)

// ErrUnknownStep is returned when an id is not in the list
var ErrUnknownStep = errors.New("unknown step")

// List is an append-ordered step collection addressed by step id.
// Readers always receive copies; only status and error are mutated in place.
type List struct {
	mu    sync.RWMutex
	order []string
	steps map[string]*entities.Step
}

// New - creates a list holding the given steps in order
func New(steps ...entities.Step) *List {
	l := &List{steps: make(map[string]*entities.Step)}
	for _, s := range steps {
		_ = l.Append(s)
	}
	return l
}

// Append adds a step at the end of the list
func (l *List) Append(step entities.Step) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if step.ID == "" {
		return fmt.Errorf("append step: empty id")
	}
	if _, exists := l.steps[step.ID]; exists {
		return fmt.Errorf("append step %s: duplicate id", step.ID)
	}
	s := step.Clone()
	if s.Status == "" {
		s.Status = entities.StepStatusIdle
	}
	l.steps[s.ID] = &s
	l.order = append(l.order, s.ID)
	return nil
}

// Len returns the number of steps
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Get returns a copy of the step with the given id
func (l *List) Get(id string) (entities.Step, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.steps[id]
	if !ok {
		return entities.Step{}, false
	}
	return s.Clone(), true
}

// Last returns a copy of the most recently appended step
func (l *List) Last() (entities.Step, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.order) == 0 {
		return entities.Step{}, false
	}
	return l.steps[l.order[len(l.order)-1]].Clone(), true
}

// IndexOf returns the position of the step or -1
func (l *List) IndexOf(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, sid := range l.order {
		if sid == id {
			return i
		}
	}
	return -1
}

// Steps returns a snapshot copy of every step in order
func (l *List) Steps() []entities.Step {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]entities.Step, len(l.order))
	for i, id := range l.order {
		out[i] = l.steps[id].Clone()
	}
	return out
}

// SetStatus updates the status and error of one step. It is the only
// mutation the replay engine performs.
func (l *List) SetStatus(id string, status entities.StepStatus, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.steps[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	s.Status = status
	s.Error = errMsg
	return nil
}

// ResetStatuses puts every step back to idle and clears errors
func (l *List) ResetStatuses() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.steps {
		s.Status = entities.StepStatusIdle
		s.Error = ""
	}
}

// Delete removes a step
func (l *List) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.steps[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	delete(l.steps, id)
	for i, sid := range l.order {
		if sid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Move places a step at a new position, shifting the others
func (l *List) Move(id string, to int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	from := -1
	for i, sid := range l.order {
		if sid == id {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	if to < 0 || to >= len(l.order) {
		return fmt.Errorf("move step %s: position %d out of range", id, to)
	}
	l.order = append(l.order[:from], l.order[from+1:]...)
	l.order = append(l.order[:to], append([]string{id}, l.order[to:]...)...)
	return nil
}

// Replace swaps the content of a step, keeping its id and position
func (l *List) Replace(step entities.Step) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.steps[step.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step.ID)
	}
	s := step.Clone()
	l.steps[s.ID] = &s
	return nil
}

// Clear removes every step
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.steps = make(map[string]*entities.Step)
}
