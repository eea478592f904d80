package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries everything needed to construct a Communicator.
// Zero values are filled in by NewConfig; bindings read only the fields
// they understand.
type Config struct {
	// Name is the service name this instance answers inbound calls as
	Name string

	// Transport is the transport-type name resolved through the registry
	Transport string

	// Endpoints maps service names to transport-specific addresses.
	// This is the addressing authority for SendRequest/SendNotification.
	Endpoints map[string]string

	// RequestTimeout is the default per-call timeout when the caller
	// passes none
	RequestTimeout time.Duration

	// RedisURL configures the optional Redis endpoint registry
	RedisURL string

	// Bus wires in-process communicators together. Only the "inproc"
	// binding reads it; nil means a private bus.
	Bus *Bus

	// Logger receives structured log output. Defaults to NoOpLogger.
	Logger Logger
}

// Option configures a Config
type Option func(*Config) error

// NewConfig creates a Config from defaults, environment, then options.
// Environment variables: AGENTWIRE_TRANSPORT, AGENTWIRE_REDIS_URL.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		Transport:      "inproc",
		Endpoints:      make(map[string]string),
		RequestTimeout: 30 * time.Second,
		Logger:         &NoOpLogger{},
	}

	if v := os.Getenv("AGENTWIRE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("AGENTWIRE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithName sets the service name for inbound addressing
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		c.Name = name
		return nil
	}
}

// WithTransport sets the transport-type name
func WithTransport(transport string) Option {
	return func(c *Config) error {
		c.Transport = transport
		return nil
	}
}

// WithEndpoints replaces the endpoint map
func WithEndpoints(endpoints map[string]string) Option {
	return func(c *Config) error {
		c.Endpoints = make(map[string]string, len(endpoints))
		for name, addr := range endpoints {
			c.Endpoints[name] = addr
		}
		return nil
	}
}

// WithEndpoint adds a single service endpoint
func WithEndpoint(name, address string) Option {
	return func(c *Config) error {
		c.Endpoints[name] = address
		return nil
	}
}

// WithEndpointsFile loads the endpoint map from a YAML file
func WithEndpointsFile(path string) Option {
	return func(c *Config) error {
		endpoints, err := LoadEndpointsFile(path)
		if err != nil {
			return err
		}
		for name, addr := range endpoints {
			c.Endpoints[name] = addr
		}
		return nil
	}
}

// WithRequestTimeout sets the default per-call timeout
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("request timeout must be positive, got %v", timeout)
		}
		c.RequestTimeout = timeout
		return nil
	}
}

// WithRedisURL configures the Redis endpoint registry
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.RedisURL = url
		return nil
	}
}

// WithBus wires this instance onto a shared in-process bus
func WithBus(bus *Bus) Option {
	return func(c *Config) error {
		c.Bus = bus
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			logger = &NoOpLogger{}
		}
		c.Logger = logger
		return nil
	}
}

// endpointsFile is the YAML shape WithEndpointsFile accepts
type endpointsFile struct {
	Endpoints map[string]string `yaml:"endpoints"`
}

// LoadEndpointsFile reads a service-name to address map from a YAML file.
// Accepts either a top-level `endpoints:` mapping or a bare mapping.
func LoadEndpointsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints file: %w", err)
	}

	var wrapped endpointsFile
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Endpoints) > 0 {
		return wrapped.Endpoints, nil
	}

	var bare map[string]string
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints file %s: %w", path, err)
	}
	return bare, nil
}
