package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// Every failure a Communicator binding surfaces wraps exactly one of these,
// so callers can write transport-agnostic handling.
var (
	// ErrDependencyMissing indicates the library backing a transport binding
	// is not available. Distinct from a broken binding so operators get
	// install guidance instead of a stack trace.
	ErrDependencyMissing = errors.New("transport dependency missing")

	// ErrServiceNotFound indicates the target is absent from the endpoint map
	ErrServiceNotFound = errors.New("service not found")

	// ErrMethodNotFound indicates the remote side has no handler for the method
	ErrMethodNotFound = errors.New("method not found")

	// ErrRequestTimeout indicates no correlated reply arrived within budget
	ErrRequestTimeout = errors.New("request timeout")

	// ErrCommunication is the catch-all for transport-level or
	// remote-application-level failures
	ErrCommunication = errors.New("communication error")

	// Registry errors
	ErrUnknownCommunicatorType = errors.New("unknown communicator type")

	// State errors
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
)

// CommunicationError provides structured error information for a failed
// exchange with a target service. It implements the error interface and
// supports error wrapping.
type CommunicationError struct {
	Target string      // Service the exchange was addressed to
	Method string      // Method that was invoked
	Detail interface{} // Optional structured detail from the remote side
	Err    error       // Underlying sentinel or transport error
}

// Error returns the string representation of the error
func (e *CommunicationError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("communication with %s failed calling %s: %v", e.Target, e.Method, e.Err)
	}
	return fmt.Sprintf("communication with %s failed: %v", e.Target, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// NewCommunicationError creates a CommunicationError wrapping err
func NewCommunicationError(target, method string, err error) *CommunicationError {
	return &CommunicationError{
		Target: target,
		Method: method,
		Err:    err,
	}
}

// DependencyError reports a transport binding whose backing library is not
// installed. Install carries actionable guidance (typically the module path
// to `go get`).
type DependencyError struct {
	Dependency string // Name of the missing library or tool
	Install    string // How to install it
	Err        error  // Underlying load error, if any
}

// Error returns the string representation of the error
func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("dependency %q is not available", e.Dependency)
	if e.Install != "" {
		msg += fmt.Sprintf(" (install with: %s)", e.Install)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap makes DependencyError match ErrDependencyMissing via errors.Is
func (e *DependencyError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDependencyMissing
}

// Is reports whether target is ErrDependencyMissing
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// IsRetryable checks if an error is retryable
// Retryable errors are typically transient network or availability issues
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRequestTimeout) ||
		errors.Is(err, ErrCommunication)
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrMethodNotFound) ||
		errors.Is(err, ErrUnknownCommunicatorType)
}

// IsConfigurationError checks if an error is resolvable at configuration time
// (bad transport type, missing dependency) rather than at call time
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownCommunicatorType) ||
		errors.Is(err, ErrDependencyMissing)
}
