package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InProcCommunicator is the reference Communicator binding. It moves
// envelopes over a process-local Bus instead of a network, which makes it
// the full correlation algorithm with none of the wire plumbing: outgoing
// requests get a unique id, inbound envelopes are classified as replies
// (recognized id) or calls/notifications (method name), and unknown methods
// get a method-not-found reply without invoking anything.
//
// It doubles as the test double for anything built on the Communicator
// contract and as the template external network bindings follow.
type InProcCommunicator struct {
	name      string
	bus       *Bus
	endpoints map[string]string
	timeout   time.Duration
	logger    Logger
	tracer    trace.Tracer

	pending *PendingTable

	handlerMu sync.RWMutex
	handlers  map[string]Handler

	stateMu  sync.Mutex
	running  bool
	inbox    chan Envelope
	stopCh   chan struct{}
	loopDone chan struct{}
	dispatch sync.WaitGroup
}

// NewInProcCommunicator creates an in-process communicator from cfg.
// When cfg.Bus is nil the instance gets a private bus and can only talk
// to itself; share one Bus across instances to connect them.
func NewInProcCommunicator(cfg *Config) *InProcCommunicator {
	bus := cfg.Bus
	if bus == nil {
		bus = NewBus()
	}
	name := cfg.Name
	if name == "" {
		name = "anonymous-" + uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}
	endpoints := make(map[string]string, len(cfg.Endpoints))
	for svc, addr := range cfg.Endpoints {
		endpoints[svc] = addr
	}

	return &InProcCommunicator{
		name:      name,
		bus:       bus,
		endpoints: endpoints,
		timeout:   cfg.RequestTimeout,
		logger:    logger,
		tracer:    otel.Tracer("agentwire/core"),
		pending:   NewPendingTable(),
		handlers:  make(map[string]Handler),
	}
}

// Start attaches the inbox and brings up the receive loop. Idempotent.
func (c *InProcCommunicator) Start(ctx context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.running {
		return nil
	}

	inbox, err := c.bus.attach(c.name)
	if err != nil {
		return NewCommunicationError(c.name, "", fmt.Errorf("%w: %v", ErrCommunication, err))
	}

	c.inbox = inbox
	c.stopCh = make(chan struct{})
	c.loopDone = make(chan struct{})
	c.running = true

	go c.receiveLoop(c.inbox, c.stopCh, c.loopDone)

	c.logger.Info("Communicator started", map[string]interface{}{
		"name":      c.name,
		"transport": "inproc",
	})
	return nil
}

// Stop detaches the inbox, waits for in-flight dispatches, and fails every
// outstanding request. Idempotent, safe before Start.
func (c *InProcCommunicator) Stop(ctx context.Context) error {
	c.stateMu.Lock()
	if !c.running {
		c.stateMu.Unlock()
		return nil
	}
	c.running = false
	c.bus.detach(c.name)
	close(c.stopCh)
	loopDone := c.loopDone
	c.stateMu.Unlock()

	<-loopDone
	c.dispatch.Wait()

	c.pending.FailAll(NewCommunicationError(c.name, "", fmt.Errorf("%w: communicator stopped", ErrCommunication)))

	c.logger.Info("Communicator stopped", map[string]interface{}{
		"name": c.name,
	})
	return nil
}

// RegisterHandler binds a handler to a method name. Takes effect for the
// next inbound call, even while running.
func (c *InProcCommunicator) RegisterHandler(method string, handler Handler) error {
	if method == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for method %q cannot be nil", method)
	}

	c.handlerMu.Lock()
	if _, exists := c.handlers[method]; exists {
		c.logger.Warn("Overwriting registered handler", map[string]interface{}{
			"method": method,
		})
	}
	c.handlers[method] = handler
	c.handlerMu.Unlock()
	return nil
}

// SendRequest issues a correlated call and suspends until reply, transport
// error, timeout, or context cancellation
func (c *InProcCommunicator) SendRequest(ctx context.Context, target, method string, params map[string]interface{}, timeout time.Duration) (interface{}, error) {
	ctx, span := c.tracer.Start(ctx, "communicator.send_request",
		trace.WithAttributes(
			attribute.String("rpc.service", target),
			attribute.String("rpc.method", method),
		))
	defer span.End()

	result, err := c.sendRequest(ctx, target, method, params, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (c *InProcCommunicator) sendRequest(ctx context.Context, target, method string, params map[string]interface{}, timeout time.Duration) (interface{}, error) {
	if !c.isRunning() {
		return nil, NewCommunicationError(target, method, fmt.Errorf("%w: %v", ErrCommunication, ErrNotStarted))
	}

	address, exists := c.endpoints[target]
	if !exists {
		// No pending request is created for an unknown target
		return nil, NewCommunicationError(target, method, ErrServiceNotFound)
	}

	if timeout <= 0 {
		timeout = c.timeout
	}

	req := c.pending.Add(target, method)
	env := Envelope{
		ID:      req.ID,
		Method:  method,
		Params:  params,
		ReplyTo: c.name,
	}

	if err := c.bus.deliver(address, env); err != nil {
		c.pending.Discard(req.ID)
		return nil, NewCommunicationError(target, method, fmt.Errorf("%w: %v", ErrCommunication, err))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-req.Done:
		if reply.Err != nil {
			// Remote error replies are built without addressing context;
			// fill it in before handing the error to the caller
			var commErr *CommunicationError
			if errors.As(reply.Err, &commErr) && commErr.Target == "" {
				commErr.Target = target
				commErr.Method = method
			}
			return nil, reply.Err
		}
		return reply.Result, nil
	case <-timer.C:
		c.pending.Discard(req.ID)
		c.logger.Warn("Request timed out", map[string]interface{}{
			"target":     target,
			"method":     method,
			"request_id": req.ID,
			"timeout":    timeout.String(),
		})
		return nil, NewCommunicationError(target, method, ErrRequestTimeout)
	case <-ctx.Done():
		c.pending.Discard(req.ID)
		return nil, ctx.Err()
	}
}

// SendNotification issues a fire-and-forget call. Never creates a pending
// request.
func (c *InProcCommunicator) SendNotification(ctx context.Context, target, method string, params map[string]interface{}) error {
	if !c.isRunning() {
		return NewCommunicationError(target, method, fmt.Errorf("%w: %v", ErrCommunication, ErrNotStarted))
	}

	address, exists := c.endpoints[target]
	if !exists {
		return NewCommunicationError(target, method, ErrServiceNotFound)
	}

	env := Envelope{
		Method: method,
		Params: params,
	}
	if err := c.bus.deliver(address, env); err != nil {
		return NewCommunicationError(target, method, fmt.Errorf("%w: %v", ErrCommunication, err))
	}
	return nil
}

// Endpoints returns a copy of the endpoint map
func (c *InProcCommunicator) Endpoints() map[string]string {
	endpoints := make(map[string]string, len(c.endpoints))
	for svc, addr := range c.endpoints {
		endpoints[svc] = addr
	}
	return endpoints
}

func (c *InProcCommunicator) isRunning() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.running
}

// receiveLoop classifies every inbound envelope: a reply resumes its
// suspended caller, a call or notification dispatches to the registered
// handler
func (c *InProcCommunicator) receiveLoop(inbox chan Envelope, stopCh, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		case env := <-inbox:
			if env.Method == "" {
				c.handleReply(env)
				continue
			}
			// Dispatch off the loop so a handler that calls back into
			// the bus cannot deadlock the receive path
			c.dispatch.Add(1)
			go func(env Envelope) {
				defer c.dispatch.Done()
				c.handleCall(env)
			}(env)
		}
	}
}

func (c *InProcCommunicator) handleReply(env Envelope) {
	var resolved bool
	if env.Error != nil {
		resolved = c.pending.Fail(env.ID, c.remoteError(env))
	} else {
		resolved = c.pending.Resolve(env.ID, env.Result)
	}
	if !resolved {
		// Late reply for a discarded request: silent no-op
		c.logger.Debug("Dropping uncorrelated reply", map[string]interface{}{
			"request_id": env.ID,
		})
	}
}

func (c *InProcCommunicator) remoteError(env Envelope) error {
	kind := ErrCommunication
	if env.Error.Code == wireCodeMethodNotFound {
		kind = ErrMethodNotFound
	}
	return &CommunicationError{
		Detail: env.Error.Detail,
		Err:    fmt.Errorf("%w: %s", kind, env.Error.Message),
	}
}

func (c *InProcCommunicator) handleCall(env Envelope) {
	c.handlerMu.RLock()
	handler, exists := c.handlers[env.Method]
	c.handlerMu.RUnlock()

	if !exists {
		c.logger.Warn("No handler registered for method", map[string]interface{}{
			"method": env.Method,
		})
		c.reply(env, Envelope{
			ID: env.ID,
			Error: &WireError{
				Code:    wireCodeMethodNotFound,
				Message: fmt.Sprintf("no handler registered for method %q", env.Method),
			},
		})
		return
	}

	result, err := c.invokeHandler(env.Method, env.Params, handler)
	if err != nil {
		c.reply(env, Envelope{
			ID: env.ID,
			Error: &WireError{
				Code:    wireCodeHandlerError,
				Message: err.Error(),
			},
		})
		return
	}
	c.reply(env, Envelope{ID: env.ID, Result: result})
}

// invokeHandler runs the handler with panic recovery so a misbehaving
// handler becomes a consistent error reply instead of taking the process down
func (c *InProcCommunicator) invokeHandler(method string, params map[string]interface{}, handler Handler) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panicked", map[string]interface{}{
				"method": method,
				"panic":  fmt.Sprintf("%v", r),
			})
			err = fmt.Errorf("handler for %q panicked: %v", method, r)
		}
	}()
	return handler(context.Background(), params)
}

// reply delivers a response envelope, if the caller asked for one
func (c *InProcCommunicator) reply(req Envelope, resp Envelope) {
	if req.ID == "" || req.ReplyTo == "" {
		// Notification: nothing to reply to
		return
	}
	if err := c.bus.deliver(req.ReplyTo, resp); err != nil {
		c.logger.Debug("Failed to deliver reply", map[string]interface{}{
			"reply_to":   req.ReplyTo,
			"request_id": req.ID,
			"error":      err.Error(),
		})
	}
}
