package crowdfund

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blockberries/crowdfund/primitives"
)

func TestHaltError(t *testing.T) {
	err := NewHaltError(42, "app hash mismatch")
	if err.Height != 42 {
		t.Errorf("expected height 42, got %d", err.Height)
	}

	expected := "HALT at height 42: app hash mismatch"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestWrapHalt(t *testing.T) {
	err := WrapHalt(1<<32, "block number", primitives.ErrOverflow)
	if !errors.Is(err, primitives.ErrOverflow) {
		t.Fatal("expected cause to be unwrapped")
	}
	expected := fmt.Sprintf("HALT at height %d: block number: %v", uint64(1<<32), primitives.ErrOverflow)
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestIsHalt(t *testing.T) {
	haltErr := NewHaltError(10, "divergence")

	// Direct.
	h, ok := IsHalt(haltErr)
	if !ok || h.Height != 10 {
		t.Fatal("expected IsHalt to return the halt error")
	}

	// Wrapped.
	h2, ok2 := IsHalt(fmt.Errorf("wrapped: %w", haltErr))
	if !ok2 || h2.Height != 10 {
		t.Fatal("expected IsHalt to unwrap wrapped error")
	}

	// Non-halt error.
	if _, ok := IsHalt(fmt.Errorf("just a regular error")); ok {
		t.Fatal("expected IsHalt to return false for non-halt error")
	}

	// Nil.
	if _, ok := IsHalt(nil); ok {
		t.Fatal("expected IsHalt to return false for nil")
	}
}
