// Package chain provides the service chain execution engine: retryable,
// conditionally-skippable, transformable sequences of Communicator calls.
//
// A chain is built from an ordered list of ChainStep specifications and one
// Communicator. Running it walks the steps in order, deriving each step's
// parameters from a shared context, delegating the call to the
// Communicator, and folding the outcome back into the context for later
// steps to read.
//
// # Usage Example
//
//	steps := []chain.ChainStep{
//	    {Name: "order", Target: "orders", Method: "order.get",
//	        Params: map[string]interface{}{"id": 17}},
//	    {Name: "invoice", Target: "billing", Method: "invoice.create",
//	        RetryCount: 2, RetryDelay: 500 * time.Millisecond,
//	        TransformInput: func(ctx chain.Context) map[string]interface{} {
//	            return map[string]interface{}{"order": ctx["order"]}
//	        }},
//	}
//
//	ch, err := chain.NewChain(comm, steps)
//	result, err := ch.Run(ctx, chain.Context{})
//	for _, step := range result.Steps {
//	    fmt.Println(step.Name, step.Status, step.AttemptCount)
//	}
//
// Failures are data, not control flow: a failed step becomes a
// StepResult with status failure and the chain moves on, unless the step
// explicitly sets HaltOnFailure. Run itself only errors on context
// cancellation.
package chain
