package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingReply carries the outcome delivered to a suspended caller
type PendingReply struct {
	Result interface{}
	Err    error
}

// PendingRequest is one in-flight call awaiting a correlated reply.
// The id is generated by the communicator, never by the caller, and is
// unique among the instance's outstanding requests.
type PendingRequest struct {
	ID        string
	Target    string
	Method    string
	CreatedAt time.Time

	// Done receives the reply exactly once. Buffered so the resolving side
	// never blocks on a caller that already gave up.
	Done chan PendingReply
}

// PendingTable tracks a communicator instance's outstanding requests.
// It is shared mutable state: concurrent SendRequest calls must never
// collide on ids or corrupt each other's correlation entry, so every
// operation holds the table lock.
type PendingTable struct {
	mu      sync.Mutex
	pending map[string]*PendingRequest
}

// NewPendingTable creates an empty pending request table
func NewPendingTable() *PendingTable {
	return &PendingTable{
		pending: make(map[string]*PendingRequest),
	}
}

// Add registers a new in-flight request and returns it with a fresh id
func (t *PendingTable) Add(target, method string) *PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.NewString()
	// uuid collisions are not a practical concern, but the contract is
	// uniqueness among outstanding ids, so check anyway
	for {
		if _, exists := t.pending[id]; !exists {
			break
		}
		id = uuid.NewString()
	}

	req := &PendingRequest{
		ID:        id,
		Target:    target,
		Method:    method,
		CreatedAt: time.Now(),
		Done:      make(chan PendingReply, 1),
	}
	t.pending[id] = req
	return req
}

// Resolve completes the request with a result. Returns false if the id is
// unknown (already resolved, timed out, or never existed) - a late reply
// is a silent no-op.
func (t *PendingTable) Resolve(id string, result interface{}) bool {
	return t.complete(id, PendingReply{Result: result})
}

// Fail completes the request with an error. Same late-reply semantics as
// Resolve.
func (t *PendingTable) Fail(id string, err error) bool {
	return t.complete(id, PendingReply{Err: err})
}

func (t *PendingTable) complete(id string, reply PendingReply) bool {
	t.mu.Lock()
	req, exists := t.pending[id]
	if exists {
		delete(t.pending, id)
	}
	t.mu.Unlock()

	if !exists {
		return false
	}
	req.Done <- reply
	return true
}

// Discard removes the request without resuming the caller. Used on timeout
// and cancellation so a reply arriving later finds no entry and the
// cancelled caller is never resumed with a stale result.
func (t *PendingTable) Discard(id string) {
	t.mu.Lock()
	delete(t.pending, id)
	t.mu.Unlock()
}

// FailAll completes every outstanding request with err. Used by Stop to
// drain the table without leaking suspended callers.
func (t *PendingTable) FailAll(err error) {
	t.mu.Lock()
	drained := make([]*PendingRequest, 0, len(t.pending))
	for id, req := range t.pending {
		drained = append(drained, req)
		delete(t.pending, id)
	}
	t.mu.Unlock()

	for _, req := range drained {
		req.Done <- PendingReply{Err: err}
	}
}

// Len returns the number of outstanding requests
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
