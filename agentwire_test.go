package agentwire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCommunicatorEndToEnd wires two in-process services over a shared
// bus through the top-level constructor and runs a chain across them
func TestNewCommunicatorEndToEnd(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	calcCfg, err := NewConfig(
		WithName("calculator"),
		WithTransport("inproc"),
		WithBus(bus),
	)
	require.NoError(t, err)
	calculator, err := NewCommunicator(calcCfg)
	require.NoError(t, err)
	require.NoError(t, calculator.RegisterHandler("math.add", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		a := params["a"].(int)
		b := params["b"].(int)
		return map[string]interface{}{"sum": a + b}, nil
	}))
	require.NoError(t, calculator.Start(ctx))
	t.Cleanup(func() { _ = calculator.Stop(context.Background()) })

	clientCfg, err := NewConfig(
		WithName("client"),
		WithTransport("inproc"),
		WithBus(bus),
		WithEndpoint("calculator", "calculator"),
		WithRequestTimeout(2*time.Second),
	)
	require.NoError(t, err)
	client, err := NewCommunicator(clientCfg)
	require.NoError(t, err)
	require.NoError(t, client.Start(ctx))
	t.Cleanup(func() { _ = client.Stop(context.Background()) })

	ch, err := NewChain(client, []ChainStep{
		{Name: "sum", Target: "calculator", Method: "math.add",
			Params: map[string]interface{}{"a": 2, "b": 3}},
	})
	require.NoError(t, err)

	result, err := ch.Run(ctx, nil)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.Equal(t, 5, result.Context["sum"].(map[string]interface{})["sum"])
}

// TestNewCommunicatorUnknownTransport tests that an unresolvable transport
// surfaces the registry's error
func TestNewCommunicatorUnknownTransport(t *testing.T) {
	cfg, err := NewConfig(WithTransport("carrier-pigeon"))
	require.NoError(t, err)

	_, err = NewCommunicator(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

// TestNewCommunicatorMissingDependency tests the install guidance surfaced
// for transports shipped as external modules
func TestNewCommunicatorMissingDependency(t *testing.T) {
	cfg, err := NewConfig(WithTransport("grpc"))
	require.NoError(t, err)

	_, err = NewCommunicator(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyMissing)
	assert.Contains(t, err.Error(), "agentwire-grpc")
}
