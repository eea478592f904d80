package chain

import (
	"fmt"
	"time"
)

// ChainStep is one declarative unit of work in a chain. Steps are
// immutable specifications: the engine never modifies them, and one step
// value can safely appear in multiple chains.
type ChainStep struct {
	// Name is the context key the step's result is published under.
	// Empty means the chain assigns "stepN" by position (1-indexed).
	Name string

	// Target is the service the call is addressed to
	Target string

	// Method is the operation invoked on the target
	Method string

	// Params are the default call parameters, used when TransformInput
	// is absent
	Params map[string]interface{}

	// Condition gates execution. False means the step is recorded as
	// skipped and the communicator is never called. Nil means always run.
	Condition func(ctx Context) bool

	// TransformInput derives the call parameters from the shared context.
	// Its return value is used verbatim: it replaces Params entirely and
	// is never merged with them.
	TransformInput func(ctx Context) map[string]interface{}

	// TransformOutput rewrites a successful result before it is recorded.
	// An error from the transform counts as a failed attempt.
	TransformOutput func(result interface{}) (interface{}, error)

	// ErrorHandler runs after all attempts are exhausted. Returning a nil
	// error recovers the step: the returned value (nil included - a
	// deliberate nil is a valid recovered result) becomes the step's
	// success result. Returning an error re-raises and the step fails
	// with that error's message.
	ErrorHandler func(err error, ctx Context) (interface{}, error)

	// RetryCount is the number of additional attempts beyond the first
	RetryCount int

	// RetryDelay is the wait between attempts. Zero uses the chain default.
	RetryDelay time.Duration

	// Timeout bounds each attempt, not the step. Zero uses the chain
	// default.
	Timeout time.Duration

	// HaltOnFailure stops the chain if this step fails. Halting is never
	// implicit: without this flag the chain proceeds past failures.
	HaltOnFailure bool
}

// resultName returns the context key for the step at the given position
func (s *ChainStep) resultName(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step%d", index+1)
}

// validate rejects steps the engine cannot execute
func (s *ChainStep) validate(index int) error {
	if s.Target == "" {
		return fmt.Errorf("step %d (%s): target cannot be empty", index+1, s.resultName(index))
	}
	if s.Method == "" {
		return fmt.Errorf("step %d (%s): method cannot be empty", index+1, s.resultName(index))
	}
	if s.RetryCount < 0 {
		return fmt.Errorf("step %d (%s): retry count cannot be negative", index+1, s.resultName(index))
	}
	return nil
}
