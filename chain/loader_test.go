package chain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefinition = `
name: enrich-order
steps:
  - name: fetch
    target: orders
    method: order.get
    params:
      id: 42
    timeout: 5s
    retry:
      count: 2
      delay: 250ms
  - name: enrich
    target: catalog
    method: product.lookup
    halt_on_failure: true
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "enrich-order", def.Name)
	require.Len(t, def.Steps, 2)

	fetch := def.Steps[0]
	assert.Equal(t, "fetch", fetch.Name)
	assert.Equal(t, "orders", fetch.Target)
	assert.Equal(t, "order.get", fetch.Method)
	assert.Equal(t, 42, fetch.Params["id"])
	assert.Equal(t, "5s", fetch.Timeout)
	require.NotNil(t, fetch.Retry)
	assert.Equal(t, 2, fetch.Retry.Count)
	assert.Equal(t, "250ms", fetch.Retry.Delay)

	assert.True(t, def.Steps[1].HaltOnFailure)
}

func TestParseDefinitionRejectsEmpty(t *testing.T) {
	_, err := ParseDefinition([]byte("name: empty\nsteps: []\n"))
	assert.Error(t, err)

	_, err = ParseDefinition([]byte(":::not yaml"))
	assert.Error(t, err)
}

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDefinition), 0o644))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Len(t, def.Steps, 2)

	_, err = LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefinitionBindUnknownStep(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	require.NoError(t, def.Bind("fetch", StepHooks{}))
	assert.Error(t, def.Bind("nonexistent", StepHooks{}))
}

func TestDefinitionBuildAndRun(t *testing.T) {
	def, err := ParseDefinition([]byte(sampleDefinition))
	require.NoError(t, err)

	require.NoError(t, def.Bind("enrich", StepHooks{
		TransformInput: func(ctx Context) map[string]interface{} {
			order := ctx["fetch"].(map[string]interface{})
			return map[string]interface{}{"sku": order["sku"]}
		},
	}))

	mock := newMock(t)
	mock.ScriptResult(map[string]interface{}{"sku": "A-1"})
	mock.ScriptResult(map[string]interface{}{"title": "widget"})

	ch, err := def.Build(mock, WithDefaultRetryDelay(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Steps())

	result, err := ch.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Succeeded())

	// Durations from YAML reached the engine
	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "A-1", calls[1].Params["sku"])
}

func TestDefinitionBuildRejectsBadDurations(t *testing.T) {
	def, err := ParseDefinition([]byte(`
name: bad
steps:
  - name: only
    target: svc
    method: op
    timeout: not-a-duration
`))
	require.NoError(t, err)

	_, err = def.Build(newMock(t))
	assert.Error(t, err)

	def, err = ParseDefinition([]byte(`
name: bad-delay
steps:
  - name: only
    target: svc
    method: op
    retry:
      count: 1
      delay: soon
`))
	require.NoError(t, err)

	_, err = def.Build(newMock(t))
	assert.Error(t, err)
}
