package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

// TestNewStdoutInstallsGlobalProvider tests that the stdout pipeline
// replaces the global tracer provider and shuts down cleanly
func TestNewStdoutInstallsGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	defer otel.SetTracerProvider(before)

	provider, err := NewStdout("agentwire-test")
	if err != nil {
		t.Fatalf("NewStdout failed: %v", err)
	}

	if otel.GetTracerProvider() == before {
		t.Error("Expected the global tracer provider to be replaced")
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
