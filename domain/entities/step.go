package entities

import "fmt"

// StepStatus represents the execution status of a single step
type StepStatus string

const (
	StepStatusIdle    StepStatus = "idle"
	StepStatusRunning StepStatus = "running"
	StepStatusPassed  StepStatus = "passed"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// Step is the canonical record of one recorded or assertion action
type Step struct {
	ID              string              `json:"id"`
	Action          Action              `json:"action"`
	PrimarySelector string              `json:"primarySelector"`
	Candidates      []SelectorCandidate `json:"candidates,omitempty"`
	Value           string              `json:"value,omitempty"`
	AssertionKind   AssertionKind       `json:"assertionKind,omitempty"`
	AssertionValue  string              `json:"assertionValue,omitempty"`
	Description     string              `json:"description,omitempty"`
	Status          StepStatus          `json:"status"`
	Timestamp       int64               `json:"timestamp"`
	Error           string              `json:"error,omitempty"`
}

// Clone returns a copy that shares no slices with s
func (s Step) Clone() Step {
	if s.Candidates != nil {
		s.Candidates = append([]SelectorCandidate(nil), s.Candidates...)
	}
	return s
}

// URL - returns the navigation target of a navigate step
func (s Step) URL() string {
	if s.Value != "" {
		return s.Value
	}
	return s.PrimarySelector
}

// Validate checks the structural invariants of a step
func (s Step) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("step has no id")
	}
	if !s.Action.IsValid() {
		return fmt.Errorf("step %s: unknown action %q", s.ID, s.Action)
	}
	if len(s.Candidates) > 0 && s.PrimarySelector != s.Candidates[0].Expression {
		return fmt.Errorf("step %s: primary selector %q does not match top candidate %q",
			s.ID, s.PrimarySelector, s.Candidates[0].Expression)
	}
	if s.Action == ActionAssert && s.AssertionKind != "" && !s.AssertionKind.IsValid() {
		return fmt.Errorf("step %s: unknown assertion kind %q", s.ID, s.AssertionKind)
	}
	return nil
}

// Describe - builds a short human readable description of a step
func Describe(action Action, selector, value string) string {
	switch action {
	case ActionClick:
		return "Click on " + selector
	case ActionDblClick:
		return "Double-click on " + selector
	case ActionInput:
		return fmt.Sprintf("Type %q into %s", value, selector)
	case ActionNavigate:
		if value != "" {
			return "Navigate to " + value
		}
		return "Navigate to " + selector
	case ActionKeydown:
		if value == "" {
			value = "key"
		}
		return "Press " + value + " on " + selector
	case ActionSelect:
		return fmt.Sprintf("Select %q in %s", value, selector)
	case ActionCheck:
		return "Check " + selector
	case ActionUncheck:
		return "Uncheck " + selector
	case ActionChange:
		return fmt.Sprintf("Change %s to %q", selector, value)
	}
	return string(action) + " on " + selector
}
