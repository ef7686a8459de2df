package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrTransfer wraps a failed host transfer.
	ErrTransfer = errors.New("contract: transfer failed")
	// ErrEmit wraps a failed event emission.
	ErrEmit           = errors.New("contract: event emission failed")
	ErrIDExhausted    = errors.New("contract: campaign ids exhausted")
	ErrNoFund         = errors.New("contract: no campaign for owner")
	ErrFundCompleted  = errors.New("contract: campaign already completed")
	ErrZeroDonation   = errors.New("contract: donation carries no value")
	ErrSelfDonation   = errors.New("contract: contract account cannot donate")
	ErrExceedsNeeded  = errors.New("contract: donation exceeds amount needed")
	ErrAmountOverflow = errors.New("contract: amount overflow")
)

// Error is the single error a message returns. Message carries the
// diagnostic text surfaced to the caller; Err keeps the cause for
// errors.Is and errors.As.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func failf(cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Err: cause}
}

// hostFailure wraps an error returned by the host. The message is the
// host's own diagnostic text.
func hostFailure(kind, err error) *Error {
	return &Error{Message: fmt.Sprintf("%v", err), Err: fmt.Errorf("%w: %w", kind, err)}
}
