package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/itsneelabh/agentwire/core"
)

// Chain executes an ordered list of steps against one Communicator,
// applying condition checks, parameter transforms, retries and error
// recovery, and producing a structured trace of every step.
//
// A chain run is single-threaded and cooperative: step N+1 never starts
// while step N's attempts, retry waits, or error-handler logic are still
// active, so later steps only observe context written by strictly earlier
// steps. The Communicator itself may be shared across concurrently running
// chains.
type Chain struct {
	communicator core.Communicator
	steps        []ChainStep
	logger       core.Logger
	tracer       trace.Tracer
	metrics      *chainMetrics

	defaultTimeout    time.Duration
	defaultRetryDelay time.Duration
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithLogger sets the chain's logger
func WithLogger(logger core.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDefaultTimeout sets the per-attempt timeout used by steps that
// declare none
func WithDefaultTimeout(timeout time.Duration) ChainOption {
	return func(c *Chain) {
		c.defaultTimeout = timeout
	}
}

// WithDefaultRetryDelay sets the between-attempts delay used by steps that
// declare none
func WithDefaultRetryDelay(delay time.Duration) ChainOption {
	return func(c *Chain) {
		c.defaultRetryDelay = delay
	}
}

// NewChain creates a chain over a communicator and an ordered step list
func NewChain(communicator core.Communicator, steps []ChainStep, opts ...ChainOption) (*Chain, error) {
	if communicator == nil {
		return nil, fmt.Errorf("communicator cannot be nil")
	}
	for i := range steps {
		if err := steps[i].validate(i); err != nil {
			return nil, err
		}
	}

	c := &Chain{
		communicator:      communicator,
		steps:             steps,
		logger:            &core.NoOpLogger{},
		tracer:            otel.Tracer("agentwire/chain"),
		metrics:           newChainMetrics(),
		defaultTimeout:    30 * time.Second,
		defaultRetryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Steps returns the number of steps in the chain
func (c *Chain) Steps() int {
	return len(c.steps)
}

// Run executes the steps in declared order against a copy of the initial
// context. The chain always proceeds to the next step regardless of the
// previous outcome - skips and failures are non-aborting - unless a failed
// step is explicitly marked HaltOnFailure, in which case the remaining
// steps stay pending in the result.
//
// Step failures never escape Run; the only error it returns is context
// cancellation, and even then the partial ChainResult is returned alongside
// it. The result always holds exactly one StepResult per step.
func (c *Chain) Run(ctx context.Context, initial Context) (*ChainResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "chain.run",
		trace.WithAttributes(
			attribute.String("chain.run_id", runID),
			attribute.Int("chain.steps", len(c.steps)),
		))
	defer span.End()

	c.logger.Info("Starting chain run", map[string]interface{}{
		"run_id":      runID,
		"steps_count": len(c.steps),
	})
	c.metrics.recordRun(ctx)

	shared := make(Context, len(initial))
	for k, v := range initial {
		shared[k] = v
	}

	results := make([]StepResult, len(c.steps))
	for i := range c.steps {
		results[i] = StepResult{
			Name:   c.steps[i].resultName(i),
			Status: StepPending,
		}
	}

	halted := false
	for i := range c.steps {
		if halted {
			break
		}
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return c.finish(runID, results, shared, start), err
		}

		step := &c.steps[i]
		result := c.runStep(ctx, runID, i, step, shared)
		results[i] = result

		// The shared context is updated atomically - one key write - and
		// only once the step reaches a terminal success
		if result.Status == StepSuccess {
			shared[result.Name] = result.Result
		}

		if result.Status == StepFailure && step.HaltOnFailure {
			c.logger.Warn("Halting chain on step failure", map[string]interface{}{
				"run_id": runID,
				"step":   result.Name,
				"error":  result.Error,
			})
			halted = true
		}
	}

	chainResult := c.finish(runID, results, shared, start)

	c.logger.Info("Completed chain run", map[string]interface{}{
		"run_id":    runID,
		"succeeded": chainResult.Succeeded(),
		"duration":  chainResult.TotalDuration.String(),
	})
	if !chainResult.Succeeded() {
		span.SetStatus(codes.Error, "chain run had failed steps")
	}
	return chainResult, nil
}

func (c *Chain) finish(runID string, results []StepResult, shared Context, start time.Time) *ChainResult {
	return &ChainResult{
		RunID:         runID,
		Steps:         results,
		Context:       shared,
		TotalDuration: time.Since(start),
	}
}

// runStep drives one step through its state machine:
// pending -> skipped, or pending -> running -> success/failure, with the
// attempt loop cycling running -> running on retryable failures
func (c *Chain) runStep(ctx context.Context, runID string, index int, step *ChainStep, shared Context) (result StepResult) {
	result = StepResult{
		Name:      step.resultName(index),
		Status:    StepPending,
		StartTime: time.Now(),
	}
	finish := func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}

	ctx, span := c.tracer.Start(ctx, "chain.step",
		trace.WithAttributes(
			attribute.String("chain.run_id", runID),
			attribute.String("chain.step", result.Name),
			attribute.String("rpc.service", step.Target),
			attribute.String("rpc.method", step.Method),
		))
	defer span.End()

	// A panicking condition, transform or handler must not take the whole
	// run down; it fails this step and the chain moves on
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Step panicked", map[string]interface{}{
				"run_id": runID,
				"step":   result.Name,
				"panic":  fmt.Sprintf("%v", r),
			})
			result.Status = StepFailure
			result.Error = fmt.Sprintf("step panicked: %v", r)
			finish()
		}
		span.SetAttributes(attribute.String("chain.step_status", string(result.Status)))
	}()

	if step.Condition != nil && !step.Condition(shared) {
		c.logger.Debug("Skipping step", map[string]interface{}{
			"run_id": runID,
			"step":   result.Name,
		})
		c.metrics.recordStep(ctx, step, StepSkipped)
		result.Status = StepSkipped
		result.AttemptCount = 0
		finish()
		return result
	}

	// Effective parameters: a transform's return value is used verbatim,
	// replacing the static defaults, never merging with them
	params := step.Params
	if step.TransformInput != nil {
		params = step.TransformInput(shared)
	}

	result.Status = StepRunning

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	retryDelay := step.RetryDelay
	if retryDelay <= 0 {
		retryDelay = c.defaultRetryDelay
	}

	maxAttempts := step.RetryCount + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.AttemptCount = attempt

		value, err := c.communicator.SendRequest(ctx, step.Target, step.Method, params, timeout)
		if err == nil && step.TransformOutput != nil {
			value, err = step.TransformOutput(value)
		}
		if err == nil {
			c.logger.Debug("Step succeeded", map[string]interface{}{
				"run_id":   runID,
				"step":     result.Name,
				"attempts": attempt,
			})
			c.metrics.recordStep(ctx, step, StepSuccess)
			result.Status = StepSuccess
			result.Result = value
			finish()
			return result
		}

		lastErr = err
		span.RecordError(err)

		if attempt < maxAttempts {
			c.metrics.recordRetry(ctx, step)
			c.logger.Debug("Retrying step", map[string]interface{}{
				"run_id":      runID,
				"step":        result.Name,
				"attempt":     attempt + 1,
				"retry_delay": retryDelay.String(),
				"error":       err.Error(),
			})
			// Cancellable backoff sleep
			timer := time.NewTimer(retryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
				attempt = maxAttempts // exhaust the loop
			}
		}
	}

	// Attempts exhausted: the error handler gets the last error and the
	// shared context. A nil error return recovers the step; re-raising
	// fails it with the re-raised error.
	if step.ErrorHandler != nil {
		recovered, err := step.ErrorHandler(lastErr, shared)
		if err == nil {
			c.logger.Info("Step recovered by error handler", map[string]interface{}{
				"run_id": runID,
				"step":   result.Name,
				"error":  lastErr.Error(),
			})
			c.metrics.recordStep(ctx, step, StepSuccess)
			result.Status = StepSuccess
			result.Result = recovered
			finish()
			return result
		}
		lastErr = err
	}

	c.logger.Error("Step failed", map[string]interface{}{
		"run_id":   runID,
		"step":     result.Name,
		"attempts": result.AttemptCount,
		"error":    lastErr.Error(),
	})
	c.metrics.recordStep(ctx, step, StepFailure)
	span.SetStatus(codes.Error, lastErr.Error())
	result.Status = StepFailure
	result.Error = lastErr.Error()
	finish()
	return result
}
