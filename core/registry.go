package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CommunicatorFactory constructs a Communicator from configuration
type CommunicatorFactory func(cfg *Config) (Communicator, error)

// LazyLoader defers loading a built-in binding until first resolve.
// It runs exactly once; both success and failure are memoized. A loader
// whose backing library is absent returns a DependencyError so operators
// get install guidance instead of a generic failure.
type LazyLoader func() (CommunicatorFactory, error)

// Discoverer lets third parties supply additional bindings without touching
// this library's source. Implementations are typically registered from a
// package init(), the same way database/sql drivers are.
type Discoverer interface {
	Lookup(name string) (CommunicatorFactory, bool)
}

// CommunicatorRegistry maps transport-type names to Communicator factories.
// One implementation is bound per name; re-registration overwrites silently
// except for a logged warning.
type CommunicatorRegistry struct {
	mu          sync.RWMutex
	static      map[string]CommunicatorFactory
	lazy        map[string]*lazyEntry
	extensions  map[string]CommunicatorFactory
	discoverers []Discoverer
	logger      Logger
}

type lazyEntry struct {
	once    sync.Once
	loader  LazyLoader
	factory CommunicatorFactory
	err     error
}

func (e *lazyEntry) load() (CommunicatorFactory, error) {
	e.once.Do(func() {
		e.factory, e.err = e.loader()
	})
	return e.factory, e.err
}

// NewCommunicatorRegistry creates an empty registry
func NewCommunicatorRegistry(logger Logger) *CommunicatorRegistry {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &CommunicatorRegistry{
		static:     make(map[string]CommunicatorFactory),
		lazy:       make(map[string]*lazyEntry),
		extensions: make(map[string]CommunicatorFactory),
		logger:     logger,
	}
}

// Register binds a factory to a transport-type name, overwriting any
// previous binding with a warning
func (r *CommunicatorRegistry) Register(name string, factory CommunicatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.boundLocked(name) {
		r.logger.Warn("Overwriting registered communicator type", map[string]interface{}{
			"type": name,
		})
	}
	r.static[name] = factory
	delete(r.lazy, name)
	delete(r.extensions, name)
}

// RegisterLazy binds a deferred loader to a transport-type name. The loader
// runs on first Resolve of the name and its outcome is memoized.
func (r *CommunicatorRegistry) RegisterLazy(name string, loader LazyLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.boundLocked(name) {
		r.logger.Warn("Overwriting registered communicator type", map[string]interface{}{
			"type": name,
		})
	}
	r.lazy[name] = &lazyEntry{loader: loader}
	delete(r.static, name)
	delete(r.extensions, name)
}

// RegisterExtension records a locally discovered binding. Extensions rank
// below built-ins during resolution, so a discovered binding never shadows
// one the library ships.
func (r *CommunicatorRegistry) RegisterExtension(name string, factory CommunicatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extensions[name]; exists {
		r.logger.Warn("Overwriting discovered communicator extension", map[string]interface{}{
			"type": name,
		})
	}
	r.extensions[name] = factory
}

// RegisterDiscoverer appends a plugin discoverer consulted, in registration
// order, when no other binding matches
func (r *CommunicatorRegistry) RegisterDiscoverer(d Discoverer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoverers = append(r.discoverers, d)
}

// Resolve returns the factory bound to a transport-type name.
// Precedence: statically registered built-ins, lazily loaded built-ins,
// previously discovered extensions, then plugin discoverers on demand.
// An unknown name fails immediately, listing every known type.
func (r *CommunicatorRegistry) Resolve(name string) (CommunicatorFactory, error) {
	r.mu.RLock()
	static, isStatic := r.static[name]
	lazy, isLazy := r.lazy[name]
	ext, isExt := r.extensions[name]
	discoverers := make([]Discoverer, len(r.discoverers))
	copy(discoverers, r.discoverers)
	r.mu.RUnlock()

	if isStatic {
		return static, nil
	}
	if isLazy {
		factory, err := lazy.load()
		if err != nil {
			return nil, err
		}
		return factory, nil
	}
	if isExt {
		return ext, nil
	}
	for _, d := range discoverers {
		if factory, ok := d.Lookup(name); ok {
			// Cache so subsequent resolves skip the discoverer walk
			r.RegisterExtension(name, factory)
			return factory, nil
		}
	}

	return nil, fmt.Errorf("%w: %q (known types: %s)",
		ErrUnknownCommunicatorType, name, strings.Join(r.KnownTypes(), ", "))
}

// KnownTypes returns every registered type name, sorted
func (r *CommunicatorRegistry) KnownTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for name := range r.static {
		seen[name] = true
	}
	for name := range r.lazy {
		seen[name] = true
	}
	for name := range r.extensions {
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// boundLocked reports whether name is bound in any tier. Caller holds the lock.
func (r *CommunicatorRegistry) boundLocked(name string) bool {
	if _, ok := r.static[name]; ok {
		return true
	}
	if _, ok := r.lazy[name]; ok {
		return true
	}
	if _, ok := r.extensions[name]; ok {
		return true
	}
	return false
}

// defaultRegistry is the package-level registry most callers use
var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *CommunicatorRegistry {
	r := NewCommunicatorRegistry(NewSimpleLogger())

	r.Register("inproc", func(cfg *Config) (Communicator, error) {
		return NewInProcCommunicator(cfg), nil
	})
	r.Register("mock", func(cfg *Config) (Communicator, error) {
		return NewMockCommunicator(cfg), nil
	})

	// Network bindings live in external modules (no wire transport is
	// implemented in this core). Resolving them without the binding
	// imported yields install guidance rather than "unknown type".
	for name, module := range map[string]string{
		"http":   "github.com/itsneelabh/agentwire-http",
		"grpc":   "github.com/itsneelabh/agentwire-grpc",
		"pubsub": "github.com/itsneelabh/agentwire-pubsub",
	} {
		dep, mod := name, module
		r.RegisterLazy(dep, func() (CommunicatorFactory, error) {
			return nil, &DependencyError{
				Dependency: dep,
				Install:    fmt.Sprintf("go get %s (and blank-import it)", mod),
			}
		})
	}

	return r
}

// DefaultRegistry returns the package-level registry
func DefaultRegistry() *CommunicatorRegistry {
	return defaultRegistry
}

// Register binds a factory in the default registry
func Register(name string, factory CommunicatorFactory) {
	defaultRegistry.Register(name, factory)
}

// Resolve resolves a transport-type name in the default registry
func Resolve(name string) (CommunicatorFactory, error) {
	return defaultRegistry.Resolve(name)
}

// RegisterDiscoverer appends a plugin discoverer to the default registry
func RegisterDiscoverer(d Discoverer) {
	defaultRegistry.RegisterDiscoverer(d)
}
