package tiledb

import (
	"errors"
	"fmt"
)

// Error kinds. Errors returned by this package wrap one of these, possibly
// inside a *DelegateError.
var (
	ErrDimension       = errors.New("dimension error")
	ErrDeserialization = errors.New("deserialization error")
	ErrSubarray        = errors.New("subarray error")
	ErrQuery           = errors.New("query error")
	ErrSchema          = errors.New("array schema error")
	ErrStorage         = errors.New("storage error")
)

// ErrUnsupportedDatatype is wrapped together with an error kind when an
// operation is not defined for a datatype, such as a string domain.
var ErrUnsupportedDatatype = errors.New("unsupported datatype")

// Refinements of ErrSubarray. Each also matches ErrSubarray.
var (
	ErrSubarrayOutOfBounds = fmt.Errorf("%w: subarray out of bounds", ErrSubarray)
	ErrSubarrayInverted    = fmt.Errorf("%w: subarray lower bound is larger than upper bound", ErrSubarray)
)

// Refinements of ErrQuery. Each also matches ErrQuery.
var (
	ErrNotInitialized     = fmt.Errorf("%w: query is not initialized", ErrQuery)
	ErrQueryTerminal      = fmt.Errorf("%w: query is completed or failed", ErrQuery)
	ErrBufferSizeMismatch = fmt.Errorf("%w: buffer size mismatch", ErrQuery)
	ErrNullBuffer         = fmt.Errorf("%w: null buffer", ErrQuery)
	ErrInvalidOffsets     = fmt.Errorf("%w: invalid offsets", ErrQuery)
)

// DelegateError wraps a failure reported by a read or write path. The
// original error is kept unchanged and is reachable with errors.Unwrap.
type DelegateError struct {
	Op  string // "init", "read", "write" or "finalize"
	Err error
}

func (e *DelegateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DelegateError) Unwrap() error {
	return e.Err
}

func delegateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DelegateError
	if errors.As(err, &de) {
		return err
	}
	return &DelegateError{Op: op, Err: err}
}
