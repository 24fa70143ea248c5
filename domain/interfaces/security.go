package interfaces

import "step_recorder/domain/entities"

// StepGuard decides whether a step may run during replay
type StepGuard interface {
	// ShouldSkip reports whether the step must be skipped and why
	ShouldSkip(step entities.Step) (bool, string)
}
