// Package fault defines the error taxonomy shared by every transport.
// The core raises fault values; each transport maps the kind to its own
// wire representation (JSON-RPC code, HTTP status) at the boundary.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed: transports switch over it.
type Kind int

const (
	// KindInternal is the default for anything uncategorized.
	KindInternal Kind = iota

	// KindInvalidRequest marks a malformed transport envelope.
	KindInvalidRequest

	// KindMethodNotFound marks an unknown method or tool name.
	KindMethodNotFound

	// KindInvalidParams marks a missing or mistyped required argument.
	KindInvalidParams

	// KindResolution marks a failure to locate an identifier at a
	// position or by name.
	KindResolution

	// KindProviderInit marks a failed source model construction.
	KindProviderInit

	// KindIO marks a storage read/write failure.
	KindIO
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindMethodNotFound:
		return "method_not_found"
	case KindInvalidParams:
		return "invalid_params"
	case KindResolution:
		return "resolution"
	case KindProviderInit:
		return "provider_init"
	case KindIO:
		return "io"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is human-readable and stable
// enough to surface to callers verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a fault of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault that carries an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from any error. Non-fault errors are
// KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}
