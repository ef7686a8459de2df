package server

import (
	"strings"
	"testing"
)

// ready returns a guard that has completed its handshake.
func ready() *LifecycleGuard {
	g := NewLifecycleGuard()
	g.AcquireHandshake()
	g.CompleteHandshake()
	return g
}

// panicMessage runs fn and returns what it panicked with, or "".
func panicMessage(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg, _ = r.(string)
			if msg == "" {
				msg = "panic"
			}
		}
	}()
	fn()
	return ""
}

func TestLifecycleGuard_BlockCycles(t *testing.T) {
	g := ready()
	for i := 0; i < 3; i++ {
		if !g.IsReady() {
			t.Fatalf("cycle %d: expected Ready, got %s", i, g.State())
		}
		g.AcquireExecute()
		if g.State() != "Executing" {
			t.Fatalf("cycle %d: state %s during execute", i, g.State())
		}
		g.CompleteExecute()
		g.AcquireCommit()
		if g.State() != "Committing" {
			t.Fatalf("cycle %d: state %s during commit", i, g.State())
		}
		g.CompleteCommit()
	}
}

func TestLifecycleGuard_IllegalCalls(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *LifecycleGuard
		call  func(*LifecycleGuard)
		want  string
	}{
		{
			name:  "read before handshake",
			setup: NewLifecycleGuard,
			call:  (*LifecycleGuard).CheckConcurrent,
			want:  "before Handshake",
		},
		{
			name:  "second handshake",
			setup: ready,
			call:  (*LifecycleGuard).AcquireHandshake,
			want:  "Handshake called in state Ready",
		},
		{
			name:  "execute before handshake",
			setup: NewLifecycleGuard,
			call:  (*LifecycleGuard).AcquireExecute,
			want:  "ExecuteBlock called in state Init",
		},
		{
			name:  "commit without execute",
			setup: ready,
			call:  (*LifecycleGuard).AcquireCommit,
			want:  "Commit called in state Ready",
		},
		{
			name: "execute twice",
			setup: func() *LifecycleGuard {
				g := ready()
				g.AcquireExecute()
				g.CompleteExecute()
				return g
			},
			call: (*LifecycleGuard).AcquireExecute,
			want: "ExecuteBlock called in state Executed",
		},
		{
			name: "execute after halt",
			setup: func() *LifecycleGuard {
				g := ready()
				g.AcquireExecute()
				g.HaltExecute()
				return g
			},
			call: (*LifecycleGuard).AcquireExecute,
			want: "ExecuteBlock called in state Halted",
		},
		{
			name: "commit after halt",
			setup: func() *LifecycleGuard {
				g := ready()
				g.AcquireExecute()
				g.HaltExecute()
				return g
			},
			call: (*LifecycleGuard).AcquireCommit,
			want: "Commit called in state Halted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.setup()
			msg := panicMessage(func() { tt.call(g) })
			if !strings.Contains(msg, tt.want) {
				t.Fatalf("panic %q, want it to mention %q", msg, tt.want)
			}
		})
	}
}

func TestLifecycleGuard_PanicReleasesSequencing(t *testing.T) {
	g := ready()
	if panicMessage(g.AcquireCommit) == "" {
		t.Fatal("expected panic")
	}
	// A leaked lock would deadlock here.
	g.AcquireExecute()
	g.CompleteExecute()
	g.AcquireCommit()
	g.CompleteCommit()
}

func TestLifecycleGuard_Retries(t *testing.T) {
	g := NewLifecycleGuard()
	g.AcquireHandshake()
	g.FailHandshake()
	if g.State() != "Init" {
		t.Fatalf("expected Init after failed handshake, got %s", g.State())
	}
	g.AcquireHandshake()
	g.CompleteHandshake()

	g.AcquireExecute()
	g.FailExecute()
	if !g.IsReady() {
		t.Fatalf("expected Ready after failed execute, got %s", g.State())
	}
	g.AcquireExecute()
	g.CompleteExecute()
}

func TestLifecycleGuard_HaltKeepsReads(t *testing.T) {
	g := ready()
	g.AcquireExecute()
	g.HaltExecute()

	if !g.IsHalted() || g.IsReady() {
		t.Fatalf("expected Halted, got %s", g.State())
	}
	if msg := panicMessage(g.CheckConcurrent); msg != "" {
		t.Fatalf("reads after halt panicked: %s", msg)
	}
}
