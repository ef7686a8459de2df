package server

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/types"
)

var (
	ErrStateSyncUnsupported = errors.New("crowdfund: StateSync not supported")
	ErrSimulatorUnsupported = errors.New("crowdfund: Simulator not supported")
	ErrMissingStateSync     = errors.New("crowdfund: app declared CapStateSync but does not implement StateSync")
	ErrMissingSimulator     = errors.New("crowdfund: app declared CapSimulation but does not implement Simulator")
)

// Server wraps an application with lifecycle enforcement and
// capability routing. The node talks to the application only through
// this server.
type Server struct {
	app   crowdfund.Lifecycle
	guard *LifecycleGuard
	caps  types.Capabilities
	log   *zap.Logger

	// Optional interfaces (nil if not supported).
	stateSync crowdfund.StateSync
	simulator crowdfund.Simulator

	mu          sync.Mutex
	lastOutcome *types.BlockOutcome
	halt        *crowdfund.HaltError
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a Server wrapping the given application.
func New(app crowdfund.Lifecycle, opts ...Option) *Server {
	s := &Server{
		app:   app,
		guard: NewLifecycleGuard(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// Pre-discover optional interfaces (validated after handshake).
	s.stateSync, _ = app.(crowdfund.StateSync)
	s.simulator, _ = app.(crowdfund.Simulator)
	return s
}

// Handshake performs the startup handshake, validates capability
// declarations, and transitions the state machine to Ready.
func (s *Server) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	s.guard.AcquireHandshake()

	resp, err := s.app.Handshake(ctx, req)
	if err != nil {
		s.guard.FailHandshake()
		return resp, err
	}

	if err := s.discoverCapabilities(resp.Capabilities); err != nil {
		s.guard.FailHandshake()
		return resp, err
	}

	s.caps = resp.Capabilities
	s.guard.CompleteHandshake()
	s.log.Info("handshake complete",
		zap.Bool("genesis", req.LastCommitted == nil),
		zap.Stringer("capabilities", resp.Capabilities),
	)
	return resp, nil
}

// CheckTx gate-checks a transaction for mempool admission.
// Safe for concurrent use.
func (s *Server) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	s.guard.CheckConcurrent()
	return s.app.CheckTx(ctx, tx, mctx)
}

// ExecuteBlock executes a finalized block. Once the application has
// returned a HaltError, every later call returns it again.
func (s *Server) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	if h := s.Halted(); h != nil {
		return types.BlockOutcome{}, h
	}
	s.guard.AcquireExecute()

	outcome, err := s.app.ExecuteBlock(ctx, block)
	if err != nil {
		if h, ok := crowdfund.IsHalt(err); ok {
			s.mu.Lock()
			s.halt = h
			s.mu.Unlock()
			s.guard.HaltExecute()
			s.log.Error("application halted", zap.Uint64("height", h.Height), zap.Error(err))
			return outcome, err
		}
		s.guard.FailExecute()
		return outcome, err
	}

	s.mu.Lock()
	s.lastOutcome = &outcome
	s.mu.Unlock()

	s.guard.CompleteExecute()
	return outcome, nil
}

// Commit makes the last executed block's state the committed state.
func (s *Server) Commit(ctx context.Context) (types.CommitResult, error) {
	s.guard.AcquireCommit()

	result, err := s.app.Commit(ctx)

	s.mu.Lock()
	s.lastOutcome = nil
	s.mu.Unlock()

	s.guard.CompleteCommit()
	return result, err
}

// Query reads application state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	s.guard.CheckConcurrent()
	return s.app.Query(ctx, req)
}

// Capabilities returns the application's declared capabilities.
// Only valid after Handshake completes.
func (s *Server) Capabilities() types.Capabilities {
	return s.caps
}

// Logger returns the server's logger.
func (s *Server) Logger() *zap.Logger { return s.log }

// Halted returns the HaltError that stopped execution, or nil.
func (s *Server) Halted() *crowdfund.HaltError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halt
}

// --- Capability-gated optional methods ---

// AvailableSnapshots delegates to StateSync if supported.
func (s *Server) AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	if s.stateSync == nil {
		return nil, ErrStateSyncUnsupported
	}
	return s.stateSync.AvailableSnapshots(ctx)
}

// ExportSnapshot delegates to StateSync if supported.
func (s *Server) ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	if s.stateSync == nil {
		return nil, nil, ErrStateSyncUnsupported
	}
	return s.stateSync.ExportSnapshot(ctx, height, format)
}

// ImportSnapshot delegates to StateSync if supported.
func (s *Server) ImportSnapshot(ctx context.Context, desc types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	if s.stateSync == nil {
		return types.ImportResult{}, ErrStateSyncUnsupported
	}
	return s.stateSync.ImportSnapshot(ctx, desc, chunks)
}

// Simulate delegates to Simulator if supported.
// Safe for concurrent use.
func (s *Server) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	if s.simulator == nil {
		return types.TxOutcome{}, ErrSimulatorUnsupported
	}
	s.guard.CheckConcurrent()
	return s.simulator.Simulate(ctx, tx)
}

// AsStateSync returns the StateSync interface or nil.
func (s *Server) AsStateSync() crowdfund.StateSync {
	if s.caps.Has(types.CapStateSync) {
		return s.stateSync
	}
	return nil
}

// AsSimulator returns the Simulator interface or nil.
func (s *Server) AsSimulator() crowdfund.Simulator {
	if s.caps.Has(types.CapSimulation) {
		return s.simulator
	}
	return nil
}

// LastOutcome returns the most recent BlockOutcome (between
// ExecuteBlock and Commit). Returns nil if no outcome is pending.
func (s *Server) LastOutcome() *types.BlockOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }

// discoverCapabilities checks which optional interfaces the app
// implements and verifies consistency with declared capabilities.
func (s *Server) discoverCapabilities(declared types.Capabilities) error {
	_, hasStateSync := s.app.(crowdfund.StateSync)
	_, hasSimulator := s.app.(crowdfund.Simulator)

	if declared.Has(types.CapStateSync) && !hasStateSync {
		return ErrMissingStateSync
	}
	if declared.Has(types.CapSimulation) && !hasSimulator {
		return ErrMissingSimulator
	}

	// Warn (but don't error) if the app implements an interface but didn't declare it.
	if !declared.Has(types.CapStateSync) && hasStateSync {
		s.log.Warn("app implements StateSync but did not declare it; capability will not be used")
	}
	if !declared.Has(types.CapSimulation) && hasSimulator {
		s.log.Warn("app implements Simulator but did not declare it; capability will not be used")
	}
	return nil
}
