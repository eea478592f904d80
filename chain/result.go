package chain

import (
	"time"
)

// StepStatus represents the state of one chain step
type StepStatus string

const (
	// StepPending indicates the step has not run yet
	StepPending StepStatus = "pending"

	// StepRunning indicates the step is attempting its call
	StepRunning StepStatus = "running"

	// StepSuccess indicates the step produced a result
	StepSuccess StepStatus = "success"

	// StepFailure indicates the step exhausted its attempts without recovery
	StepFailure StepStatus = "failure"

	// StepSkipped indicates the step's condition evaluated false
	StepSkipped StepStatus = "skipped"
)

// IsTerminal returns true if the status is a terminal state
// (success, failure, or skipped)
func (s StepStatus) IsTerminal() bool {
	return s == StepSuccess || s == StepFailure || s == StepSkipped
}

// Context is the mutable string-keyed state shared by every step in one
// chain run. Conditions and transforms read it; the engine writes each
// step's result into it under the step's declared name once the step
// succeeds. There is no automatic namespacing.
type Context map[string]interface{}

// StepResult records the outcome of one step
type StepResult struct {
	// Name is the key the step's result is published under in the context
	Name string `json:"name"`

	// Status is the terminal state the step reached (pending if the chain
	// halted before this step ran)
	Status StepStatus `json:"status"`

	// Result holds the step's value; set only on success
	Result interface{} `json:"result,omitempty"`

	// Error holds the failure message; set only on failure
	Error string `json:"error,omitempty"`

	// AttemptCount is the number of attempts made: 0 for a skipped step,
	// otherwise between 1 and retry_count+1
	AttemptCount int `json:"attempt_count"`

	// StartTime is when the step began (zero if it never ran)
	StartTime time.Time `json:"start_time,omitempty"`

	// EndTime is when the step reached a terminal state
	EndTime time.Time `json:"end_time,omitempty"`

	// Duration is EndTime minus StartTime
	Duration time.Duration `json:"duration,omitempty"`
}

// ChainResult is the aggregate outcome of one chain run. Steps always has
// exactly one entry per chain step, position for position.
type ChainResult struct {
	// RunID identifies this run in logs and traces
	RunID string `json:"run_id"`

	// Steps holds one result per step, in declaration order
	Steps []StepResult `json:"steps"`

	// Context is the shared context as the final step left it
	Context Context `json:"context"`

	// TotalDuration covers the whole run
	TotalDuration time.Duration `json:"total_duration"`
}

// Succeeded returns true if no step failed (skipped steps do not count
// against success)
func (r *ChainResult) Succeeded() bool {
	for _, step := range r.Steps {
		if step.Status == StepFailure {
			return false
		}
	}
	return true
}

// FailedSteps returns the results of every failed step
func (r *ChainResult) FailedSteps() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Status == StepFailure {
			failed = append(failed, step)
		}
	}
	return failed
}
