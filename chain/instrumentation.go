package chain

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// chainMetrics holds the engine's OTel counters. Instrument creation
// failures degrade to nil instruments, never to a failed chain.
type chainMetrics struct {
	runs         metric.Int64Counter
	stepsByState metric.Int64Counter
	retries      metric.Int64Counter
}

func newChainMetrics() *chainMetrics {
	meter := otel.Meter("agentwire/chain")
	m := &chainMetrics{}

	m.runs, _ = meter.Int64Counter("agentwire.chain.runs",
		metric.WithDescription("Number of chain runs started"))
	m.stepsByState, _ = meter.Int64Counter("agentwire.chain.steps",
		metric.WithDescription("Number of steps reaching a terminal state, by status"))
	m.retries, _ = meter.Int64Counter("agentwire.chain.step_retries",
		metric.WithDescription("Number of step retry attempts"))

	return m
}

func (m *chainMetrics) recordRun(ctx context.Context) {
	if m.runs != nil {
		m.runs.Add(ctx, 1)
	}
}

func (m *chainMetrics) recordStep(ctx context.Context, step *ChainStep, status StepStatus) {
	if m.stepsByState != nil {
		m.stepsByState.Add(ctx, 1, metric.WithAttributes(
			attribute.String("status", string(status)),
			attribute.String("target", step.Target),
			attribute.String("method", step.Method),
		))
	}
}

func (m *chainMetrics) recordRetry(ctx context.Context, step *ChainStep) {
	if m.retries != nil {
		m.retries.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", step.Target),
			attribute.String("method", step.Method),
		))
	}
}
