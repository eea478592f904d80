package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "inproc", cfg.Transport)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.NotNil(t, cfg.Endpoints)
	assert.NotNil(t, cfg.Logger)
}

func TestNewConfigOptions(t *testing.T) {
	cfg, err := NewConfig(
		WithName("orders"),
		WithTransport("mock"),
		WithEndpoint("billing", "billing-addr"),
		WithEndpoint("shipping", "shipping-addr"),
		WithRequestTimeout(5*time.Second),
		WithRedisURL("redis://localhost:6379"),
	)
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Name)
	assert.Equal(t, "mock", cfg.Transport)
	assert.Equal(t, "billing-addr", cfg.Endpoints["billing"])
	assert.Equal(t, "shipping-addr", cfg.Endpoints["shipping"])
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	_, err := NewConfig(WithName(""))
	assert.Error(t, err)

	_, err = NewConfig(WithRequestTimeout(-time.Second))
	assert.Error(t, err)
}

func TestNewConfigEnvironmentFallback(t *testing.T) {
	t.Setenv("AGENTWIRE_TRANSPORT", "mock")
	t.Setenv("AGENTWIRE_REDIS_URL", "redis://env-host:6379")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Transport)
	assert.Equal(t, "redis://env-host:6379", cfg.RedisURL)

	// Explicit options win over the environment
	cfg, err = NewConfig(WithTransport("inproc"))
	require.NoError(t, err)
	assert.Equal(t, "inproc", cfg.Transport)
}

func TestLoadEndpointsFile(t *testing.T) {
	dir := t.TempDir()

	wrapped := filepath.Join(dir, "wrapped.yaml")
	require.NoError(t, os.WriteFile(wrapped, []byte(
		"endpoints:\n  orders: orders-addr\n  billing: billing-addr\n"), 0o644))

	endpoints, err := LoadEndpointsFile(wrapped)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"orders":  "orders-addr",
		"billing": "billing-addr",
	}, endpoints)

	// Bare mappings work too
	bare := filepath.Join(dir, "bare.yaml")
	require.NoError(t, os.WriteFile(bare, []byte("orders: orders-addr\n"), 0o644))

	endpoints, err = LoadEndpointsFile(bare)
	require.NoError(t, err)
	assert.Equal(t, "orders-addr", endpoints["orders"])

	_, err = LoadEndpointsFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWithEndpointsFileMergesIntoConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoints:\n  billing: from-file\n"), 0o644))

	cfg, err := NewConfig(
		WithEndpoint("orders", "static"),
		WithEndpointsFile(path),
	)
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Endpoints["orders"])
	assert.Equal(t, "from-file", cfg.Endpoints["billing"])
}
