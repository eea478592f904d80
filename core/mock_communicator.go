package core

import (
	"context"
	"sync"
	"time"
)

// MockCall records one call made through a MockCommunicator
type MockCall struct {
	Target       string
	Method       string
	Params       map[string]interface{}
	Notification bool
}

// MockCommunicator provides an in-memory scripted communicator for
// development and testing. Responses are consumed from a queue in order;
// when the queue is empty an optional script function answers instead.
type MockCommunicator struct {
	mu        sync.Mutex
	endpoints map[string]string
	handlers  map[string]Handler
	queue     []PendingReply
	script    func(call MockCall) (interface{}, error)
	calls     []MockCall
	running   bool
	logger    Logger
}

// NewMockCommunicator creates a mock communicator from cfg.
// An empty endpoint map disables target checking entirely, which keeps
// simple tests free of addressing setup.
func NewMockCommunicator(cfg *Config) *MockCommunicator {
	logger := cfg.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}
	endpoints := make(map[string]string, len(cfg.Endpoints))
	for svc, addr := range cfg.Endpoints {
		endpoints[svc] = addr
	}
	return &MockCommunicator{
		endpoints: endpoints,
		handlers:  make(map[string]Handler),
		logger:    logger,
	}
}

// ScriptResult queues a successful response
func (m *MockCommunicator) ScriptResult(result interface{}) {
	m.mu.Lock()
	m.queue = append(m.queue, PendingReply{Result: result})
	m.mu.Unlock()
}

// ScriptError queues a failed response
func (m *MockCommunicator) ScriptError(err error) {
	m.mu.Lock()
	m.queue = append(m.queue, PendingReply{Err: err})
	m.mu.Unlock()
}

// ScriptFunc answers calls once the queue is drained
func (m *MockCommunicator) ScriptFunc(fn func(call MockCall) (interface{}, error)) {
	m.mu.Lock()
	m.script = fn
	m.mu.Unlock()
}

// Calls returns a copy of every recorded call, in order
func (m *MockCommunicator) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many request calls were made for a method
// (empty method counts every request)
func (m *MockCommunicator) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if call.Notification {
			continue
		}
		if method == "" || call.Method == method {
			count++
		}
	}
	return count
}

// Start marks the communicator running. Idempotent.
func (m *MockCommunicator) Start(ctx context.Context) error {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
	return nil
}

// Stop marks the communicator stopped. Idempotent, safe before Start.
func (m *MockCommunicator) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

// RegisterHandler records a handler, overwriting with a warning
func (m *MockCommunicator) RegisterHandler(method string, handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[method]; exists {
		m.logger.Warn("Overwriting registered handler", map[string]interface{}{
			"method": method,
		})
	}
	m.handlers[method] = handler
	return nil
}

// Invoke drives a registered handler directly, standing in for a synthetic
// inbound message
func (m *MockCommunicator) Invoke(ctx context.Context, method string, params map[string]interface{}) (interface{}, error) {
	m.mu.Lock()
	handler, exists := m.handlers[method]
	m.mu.Unlock()
	if !exists {
		return nil, NewCommunicationError("", method, ErrMethodNotFound)
	}
	return handler(ctx, params)
}

// SendRequest records the call and answers from the script
func (m *MockCommunicator) SendRequest(ctx context.Context, target, method string, params map[string]interface{}, timeout time.Duration) (interface{}, error) {
	m.mu.Lock()
	if len(m.endpoints) > 0 {
		if _, exists := m.endpoints[target]; !exists {
			m.mu.Unlock()
			return nil, NewCommunicationError(target, method, ErrServiceNotFound)
		}
	}
	m.calls = append(m.calls, MockCall{Target: target, Method: method, Params: params})

	if len(m.queue) > 0 {
		reply := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return reply.Result, reply.Err
	}
	script := m.script
	m.mu.Unlock()

	if script != nil {
		return script(MockCall{Target: target, Method: method, Params: params})
	}
	return nil, nil
}

// SendNotification records the call; unknown targets fail the same way
// SendRequest does
func (m *MockCommunicator) SendNotification(ctx context.Context, target, method string, params map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.endpoints) > 0 {
		if _, exists := m.endpoints[target]; !exists {
			return NewCommunicationError(target, method, ErrServiceNotFound)
		}
	}
	m.calls = append(m.calls, MockCall{Target: target, Method: method, Params: params, Notification: true})
	return nil
}

// Endpoints returns a copy of the endpoint map
func (m *MockCommunicator) Endpoints() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	endpoints := make(map[string]string, len(m.endpoints))
	for svc, addr := range m.endpoints {
		endpoints[svc] = addr
	}
	return endpoints
}
