// Package errors defines the error taxonomy for the quantum network simulator.
// Every failure is recoverable by the caller; the sentinels below are matched
// with errors.Is after any amount of wrapping.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations
var (
	// ErrNotFound indicates that a node identifier is not registered
	ErrNotFound = errors.New("network: node not found")

	// ErrDuplicateID indicates an insert collided with an existing identifier
	ErrDuplicateID = errors.New("network: duplicate node id")
)

// Sentinel errors for entanglement and key distribution
var (
	// ErrNotEntangled indicates an entanglement precondition was not met
	ErrNotEntangled = errors.New("entanglement: nodes are not entangled")

	// ErrTunnelingFailed indicates the tunneling draw did not succeed
	ErrTunnelingFailed = errors.New("entanglement: quantum tunneling failed")

	// ErrNoKey indicates a node holds no key for the requested peer
	ErrNoKey = errors.New("qkd: no key on file for peer")
)

// Sentinel errors for cipher operations
var (
	// ErrInvalidKey indicates an empty or degenerate key was supplied
	ErrInvalidKey = errors.New("crypto: invalid key")

	// ErrDecodeFailed indicates decrypted bytes are not valid text.
	// It is non-fatal: the caller also receives the sentinel plaintext.
	ErrDecodeFailed = errors.New("crypto: decrypted payload is not valid text")

	// ErrMessageTooLarge indicates a plaintext exceeds MaxMessageSize
	ErrMessageTooLarge = errors.New("packet: message too large")

	// ErrInvalidPacket indicates an encoded packet could not be parsed
	ErrInvalidPacket = errors.New("packet: malformed packet")
)

// Sentinel errors for scenarios and configuration
var (
	// ErrInvalidState indicates a state literal could not be parsed
	ErrInvalidState = errors.New("state: invalid state literal")

	// ErrInvalidScenario indicates a scenario document is malformed
	ErrInvalidScenario = errors.New("scenario: invalid scenario")

	// ErrUnknownOperation indicates a scenario step names an unknown operation
	ErrUnknownOperation = errors.New("scenario: unknown operation")
)

// NodeError wraps a registry-level error with the operation and node involved
type NodeError struct {
	Op  string // Operation that failed
	ID  uint32 // Node the failure refers to
	Err error  // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s node %d: %v", e.Op, e.ID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// NewNodeError creates a new NodeError
func NewNodeError(op string, id uint32, err error) *NodeError {
	return &NodeError{Op: op, ID: id, Err: err}
}

// CryptoError wraps a cipher or randomness error with additional context
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Name returns the short taxonomy name of err, or "" when err matches no
// sentinel. Scenario files refer to expected failures by these names.
func Name(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrNotEntangled):
		return "not_entangled"
	case errors.Is(err, ErrTunnelingFailed):
		return "tunneling_failed"
	case errors.Is(err, ErrNoKey):
		return "no_key"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, ErrMessageTooLarge):
		return "message_too_large"
	case errors.Is(err, ErrInvalidPacket):
		return "invalid_packet"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidScenario):
		return "invalid_scenario"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	default:
		return ""
	}
}
