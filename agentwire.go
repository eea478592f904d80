// Package agentwire is a lightweight meta-module that re-exports from the
// core and chain packages. It is the main entry point for the library;
// users should import specific packages based on their needs:
//   - github.com/itsneelabh/agentwire/core - communicator contract and registry
//   - github.com/itsneelabh/agentwire/chain - service chain execution
//   - github.com/itsneelabh/agentwire/telemetry - observability wiring
package agentwire

import (
	"github.com/itsneelabh/agentwire/chain"
	"github.com/itsneelabh/agentwire/core"
)

// Re-export core types
type (
	// Communication types
	Communicator = core.Communicator
	Handler      = core.Handler
	Config       = core.Config
	Option       = core.Option

	// Registry types
	CommunicatorRegistry = core.CommunicatorRegistry
	CommunicatorFactory  = core.CommunicatorFactory
	Discoverer           = core.Discoverer

	// Error types
	CommunicationError = core.CommunicationError
	DependencyError    = core.DependencyError

	// Interfaces
	Logger = core.Logger

	// Chain types
	Chain       = chain.Chain
	ChainStep   = chain.ChainStep
	ChainResult = chain.ChainResult
	StepResult  = chain.StepResult
	StepStatus  = chain.StepStatus
	ChainOption = chain.ChainOption
)

// Re-export chain step statuses
const (
	StepPending = chain.StepPending
	StepRunning = chain.StepRunning
	StepSuccess = chain.StepSuccess
	StepFailure = chain.StepFailure
	StepSkipped = chain.StepSkipped
)

// Re-export core functions
var (
	NewConfig               = core.NewConfig
	NewCommunicatorRegistry = core.NewCommunicatorRegistry
	DefaultRegistry         = core.DefaultRegistry
	Register                = core.Register
	Resolve                 = core.Resolve
	RegisterDiscoverer      = core.RegisterDiscoverer
	NewBus                  = core.NewBus
	NewInProcCommunicator   = core.NewInProcCommunicator
	NewMockCommunicator     = core.NewMockCommunicator
	NewSimpleLogger         = core.NewSimpleLogger

	// Configuration options
	WithName           = core.WithName
	WithTransport      = core.WithTransport
	WithEndpoints      = core.WithEndpoints
	WithEndpoint       = core.WithEndpoint
	WithEndpointsFile  = core.WithEndpointsFile
	WithRequestTimeout = core.WithRequestTimeout
	WithRedisURL       = core.WithRedisURL
	WithBus            = core.WithBus
	WithLogger         = core.WithLogger

	// Chain functions
	NewChain        = chain.NewChain
	LoadDefinition  = chain.LoadDefinition
	ParseDefinition = chain.ParseDefinition

	// Error sentinels
	ErrDependencyMissing = core.ErrDependencyMissing
	ErrServiceNotFound   = core.ErrServiceNotFound
	ErrMethodNotFound    = core.ErrMethodNotFound
	ErrRequestTimeout    = core.ErrRequestTimeout
	ErrCommunication     = core.ErrCommunication
)

// NewCommunicator resolves the configured transport through the default
// registry and constructs a communicator from cfg
func NewCommunicator(cfg *core.Config) (core.Communicator, error) {
	factory, err := core.Resolve(cfg.Transport)
	if err != nil {
		return nil, err
	}
	return factory(cfg)
}
