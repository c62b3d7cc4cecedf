package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clish254/sol-dex-pools/internal/types"
)

// Kind classifies a source adapter failure.
type Kind int

// Adapter failure kinds
const (
	// KindTransport covers connection and other low-level HTTP failures
	KindTransport Kind = iota

	// KindTimeout means the caller-imposed deadline expired mid-request
	KindTimeout

	// KindUpstream means the provider answered with a non-success status
	KindUpstream

	// KindSchema means the response shape did not match expectations
	KindSchema
)

// String returns the lowercase name of the failure kind
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindUpstream:
		return "upstream"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Error is a classified failure from a single source adapter. Failures of
// this type are source-local: they are logged as warnings and never
// propagate past the orchestrator.
type Error struct {
	Source types.Source
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// transportErr wraps a request-level failure, promoting it to a timeout
// when the context deadline is what killed the call.
func transportErr(src types.Source, err error) *Error {
	kind := KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Source: src, Kind: kind, Err: err}
}

// upstreamErr marks a non-success provider status
func upstreamErr(src types.Source, err error) *Error {
	return &Error{Source: src, Kind: KindUpstream, Err: err}
}

// schemaErr marks an unexpected response shape
func schemaErr(src types.Source, err error) *Error {
	return &Error{Source: src, Kind: KindSchema, Err: err}
}
