package core

import (
	"fmt"
	"sync"
)

// Envelope is the message shape exchanged over the in-process bus.
// A request carries ID, Method and ReplyTo; a notification carries Method
// only; a reply carries ID plus Result or Error and no Method.
type Envelope struct {
	ID      string                 `json:"id,omitempty"`
	Method  string                 `json:"method,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Result  interface{}            `json:"result,omitempty"`
	Error   *WireError             `json:"error,omitempty"`
	ReplyTo string                 `json:"reply_to,omitempty"`
}

// WireError is an application-level error reply
type WireError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

// Error reply codes
const (
	wireCodeMethodNotFound = "method_not_found"
	wireCodeHandlerError   = "handler_error"
)

// Bus connects in-process communicators by name. Each attached instance
// owns one inbox; delivery to an unattached name fails so callers see the
// same unreachable-target behavior a network binding would give them.
type Bus struct {
	mu      sync.RWMutex
	inboxes map[string]chan Envelope
}

// NewBus creates an empty in-process bus
func NewBus() *Bus {
	return &Bus{
		inboxes: make(map[string]chan Envelope),
	}
}

func (b *Bus) attach(name string) (chan Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.inboxes[name]; exists {
		return nil, fmt.Errorf("inbox %q already attached", name)
	}
	inbox := make(chan Envelope, 64)
	b.inboxes[name] = inbox
	return inbox, nil
}

func (b *Bus) detach(name string) {
	b.mu.Lock()
	delete(b.inboxes, name)
	b.mu.Unlock()
}

func (b *Bus) deliver(address string, env Envelope) error {
	b.mu.RLock()
	inbox, exists := b.inboxes[address]
	b.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no inbox attached at %q", address)
	}
	// Never block the sender on a stopped or saturated receiver
	select {
	case inbox <- env:
		return nil
	default:
		return fmt.Errorf("inbox at %q is not accepting messages", address)
	}
}
