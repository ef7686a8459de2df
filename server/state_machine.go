// Package server wraps a contract host application, enforcing the
// node call-order state machine and routing capability-gated calls.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// lifecycleState is a state of the call-order state machine.
type lifecycleState uint32

const (
	// stateInit: waiting for Handshake. No other calls allowed.
	stateInit lifecycleState = iota
	// stateReady: waiting for the next finalized block. CheckTx,
	// Query and Simulate may run concurrently.
	stateReady
	// stateExecuting: ExecuteBlock is running.
	stateExecuting
	// stateExecuted: ExecuteBlock returned. Commit is the only valid
	// next sequential call.
	stateExecuted
	// stateCommitting: Commit is running.
	stateCommitting
	// stateHalted: the application asked to halt. No further blocks
	// are executed or committed; reads stay available.
	stateHalted
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateReady:
		return "Ready"
	case stateExecuting:
		return "Executing"
	case stateExecuted:
		return "Executed"
	case stateCommitting:
		return "Committing"
	case stateHalted:
		return "Halted"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces the call-order state machine.
type LifecycleGuard struct {
	state atomic.Uint32
	// Serializes ExecuteBlock and Commit.
	seqMu sync.Mutex
	// Gates concurrent calls until Handshake completes.
	handshakeDone atomic.Bool
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

// enter moves from one state to another, panicking with the name of
// the offending call if the guard is elsewhere.
func (g *LifecycleGuard) enter(call string, from, to lifecycleState) {
	if !g.state.CompareAndSwap(uint32(from), uint32(to)) {
		panic(fmt.Sprintf("crowdfund: %s called in state %s (expected %s)",
			call, lifecycleState(g.state.Load()), from))
	}
}

// leave stores the state reached when a sequential call returns and
// releases the sequencing lock.
func (g *LifecycleGuard) leave(to lifecycleState) {
	g.state.Store(uint32(to))
	g.seqMu.Unlock()
}

// AcquireHandshake moves Init to Ready.
func (g *LifecycleGuard) AcquireHandshake() { g.enter("Handshake", stateInit, stateReady) }

// CompleteHandshake enables concurrent calls.
func (g *LifecycleGuard) CompleteHandshake() { g.handshakeDone.Store(true) }

// FailHandshake returns to Init so the handshake can be retried.
func (g *LifecycleGuard) FailHandshake() { g.state.Store(uint32(stateInit)) }

// AcquireExecute moves Ready to Executing, waiting for a running
// Commit to finish.
func (g *LifecycleGuard) AcquireExecute() {
	g.seqMu.Lock()
	defer func() {
		if r := recover(); r != nil {
			g.seqMu.Unlock()
			panic(r)
		}
	}()
	g.enter("ExecuteBlock", stateReady, stateExecuting)
}

// CompleteExecute moves Executing to Executed.
func (g *LifecycleGuard) CompleteExecute() { g.leave(stateExecuted) }

// FailExecute returns to Ready so the block can be retried.
func (g *LifecycleGuard) FailExecute() { g.leave(stateReady) }

// HaltExecute moves Executing to the terminal Halted state.
func (g *LifecycleGuard) HaltExecute() { g.leave(stateHalted) }

// AcquireCommit moves Executed to Committing.
func (g *LifecycleGuard) AcquireCommit() {
	g.seqMu.Lock()
	defer func() {
		if r := recover(); r != nil {
			g.seqMu.Unlock()
			panic(r)
		}
	}()
	g.enter("Commit", stateExecuted, stateCommitting)
}

// CompleteCommit moves Committing to Ready.
func (g *LifecycleGuard) CompleteCommit() { g.leave(stateReady) }

// CheckConcurrent panics unless Handshake has completed. CheckTx,
// Query and Simulate may run in any later state.
func (g *LifecycleGuard) CheckConcurrent() {
	if !g.handshakeDone.Load() {
		panic("crowdfund: concurrent call before Handshake completed")
	}
}

// IsReady reports whether the next block may be executed.
func (g *LifecycleGuard) IsReady() bool {
	return lifecycleState(g.state.Load()) == stateReady
}

// IsHalted reports whether an execution halted.
func (g *LifecycleGuard) IsHalted() bool {
	return lifecycleState(g.state.Load()) == stateHalted
}
