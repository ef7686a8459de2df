package crowdfund

import (
	"errors"
	"fmt"
)

// HaltError signals that the application cannot continue: its state
// diverges from the node's, or a block carries a value the bound
// environment cannot represent.
//
// A node receiving a HaltError from ExecuteBlock must stop and not
// proceed to Commit.
type HaltError struct {
	Reason string
	Height uint64
	Err    error
}

func (e *HaltError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HALT at height %d: %s: %v", e.Height, e.Reason, e.Err)
	}
	return fmt.Sprintf("HALT at height %d: %s", e.Height, e.Reason)
}

func (e *HaltError) Unwrap() error { return e.Err }

// NewHaltError creates a new HaltError.
func NewHaltError(height uint64, reason string) *HaltError {
	return &HaltError{Height: height, Reason: reason}
}

// WrapHalt creates a HaltError caused by err.
func WrapHalt(height uint64, reason string, err error) *HaltError {
	return &HaltError{Height: height, Reason: reason, Err: err}
}

// IsHalt checks whether an error is a HaltError and returns it.
func IsHalt(err error) (*HaltError, bool) {
	var h *HaltError
	if errors.As(err, &h) {
		return h, true
	}
	return nil, false
}
