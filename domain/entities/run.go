package entities

import "time"

// RunStatus represents the state of the execution engine
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusStopped   RunStatus = "stopped"
	RunStatusCompleted RunStatus = "completed"
	RunStatusError     RunStatus = "error"
)

// IsTerminal reports whether a run in this status has ended
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusStopped || s == RunStatusCompleted || s == RunStatusError
}

// RunMode selects which part of the step list a replay covers
type RunMode string

const (
	RunModeAll    RunMode = "all"
	RunModeFrom   RunMode = "from"
	RunModeSingle RunMode = "single"
)

// StepResult is the outcome of executing one step
type StepResult struct {
	StepID   string        `json:"stepId"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is emitted exactly once when a replay ends
type RunSummary struct {
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Skipped int       `json:"skipped"`
	Total   int       `json:"total"`
	Status  RunStatus `json:"status"`
}

// Record counts a step result into the summary
func (s *RunSummary) Record(result StepResult) {
	switch result.Status {
	case StepStatusPassed:
		s.Passed++
	case StepStatusFailed:
		s.Failed++
	case StepStatusSkipped:
		s.Skipped++
	}
}
