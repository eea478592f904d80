// Package core provides the transport-agnostic communication contract for
// agentwire: the Communicator interface, its error taxonomy, the request
// correlation machinery, and the registry that maps transport-type names to
// Communicator implementations.
//
// # Core Components
//
//   - Communicator: the five-operation contract every transport binding honors
//     (Start, Stop, RegisterHandler, SendRequest, SendNotification)
//   - CommunicatorRegistry: static, lazy, discovered and plugin-supplied
//     bindings keyed by transport-type name
//   - PendingTable: correlation of in-flight requests to their replies
//   - InProcCommunicator: the reference binding over a process-local bus
//   - MockCommunicator: scripted responses for tests and development
//   - RedisEndpointRegistry: optional Redis-backed endpoint map source
//
// # Usage Example
//
// Constructing a communicator through the registry:
//
//	cfg, _ := core.NewConfig(
//	    core.WithName("orders"),
//	    core.WithTransport("inproc"),
//	    core.WithEndpoint("billing", "billing"),
//	)
//	factory, err := core.Resolve(cfg.Transport)
//	if err != nil {
//	    // Unknown type or missing dependency; the error lists known types
//	    // or carries install guidance
//	}
//	comm, _ := factory(cfg)
//	_ = comm.Start(ctx)
//	defer comm.Stop(ctx)
//
//	result, err := comm.SendRequest(ctx, "billing", "invoice.create",
//	    map[string]interface{}{"order_id": "o-17"}, 5*time.Second)
//
// # Error Taxonomy
//
// Every failure a binding surfaces wraps one of the package sentinels
// (ErrDependencyMissing, ErrServiceNotFound, ErrMethodNotFound,
// ErrRequestTimeout, ErrCommunication), so callers handle outcomes with
// errors.Is and never see raw transport errors.
package core
