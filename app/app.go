// Package app hosts one crowdfund contract behind the node boundary.
//
// The application keeps the contract's registry together with a
// balance ledger. Every transaction is one contract message executed
// through a per-invocation host: a message that fails leaves no trace
// in the registry, the ledger, or the emitted events.
//
// Transaction format: a cramberry-encoded types.Message.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"go.uber.org/zap"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/contract"
	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/internal/metrics"
	"github.com/blockberries/crowdfund/primitives"
	"github.com/blockberries/crowdfund/types"
)

// Outcome and verdict codes.
const (
	CodeOK uint32 = iota
	// The transaction does not decode or carries values the binding
	// rejects.
	CodeInvalidTx
	// The contract returned an error.
	CodeContractError
	// An event declared more topics than the binding or host allows.
	CodeTopicOverflow
	// The caller cannot pay the value attached to a payable message.
	CodeInsufficientFunds
)

// ErrNotInitialized is returned by calls that need state before a
// genesis handshake or snapshot import provided it.
var ErrNotInitialized = errors.New("app: not initialized")

type (
	DefaultApp = App[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U32]
	CustomApp  = App[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U64]
	CompactApp = App[primitives.ShortAccountID, primitives.U64, primitives.Hash, primitives.U64, primitives.U64]
)

// Compile-time interface checks.
var (
	_ crowdfund.Application = (*DefaultApp)(nil)
	_ crowdfund.Application = (*CompactApp)(nil)
)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	profile *env.HostProfile
}

// Option configures an App.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithProfile sets the host profile the binding is instantiated
// against. The default is env.SubstrateProfile.
func WithProfile(p env.HostProfile) Option {
	return func(o *options) { o.profile = &p }
}

// App hosts a crowdfund contract under binding e.
type App[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]] struct {
	env     env.Environment[A, B, H, T, N]
	profile env.HostProfile
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	current *state[A, B, H, T, N]
	staged  *state[A, B, H, T, N]
}

// New creates an application for binding e. It fails if the binding is
// internally inconsistent; host compatibility is checked at genesis.
func New[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]](
	e env.Environment[A, B, H, T, N], opts ...Option,
) (*App[A, B, H, T, N], error) {
	if err := env.Validate(e); err != nil {
		return nil, err
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	profile := env.SubstrateProfile
	if o.profile != nil {
		profile = *o.profile
	}
	return &App[A, B, H, T, N]{
		env:     e,
		profile: profile,
		log:     o.logger.With(zap.String("environment", e.Name())),
		metrics: o.metrics,
	}, nil
}

// NewDefault hosts the contract under env.Default.
func NewDefault(opts ...Option) (*DefaultApp, error) { return New(env.NewDefault(), opts...) }

// NewCustom hosts the contract under env.Custom.
func NewCustom(opts ...Option) (*CustomApp, error) { return New(env.NewCustom(), opts...) }

// NewCompact hosts the contract under env.Compact. Its narrow
// accounts and balances do not fit the substrate host, so the default
// profile is one built for the binding.
func NewCompact(opts ...Option) (*CompactApp, error) {
	e := env.NewCompact()
	return New(e, append([]Option{WithProfile(env.ProfileFor(e))}, opts...)...)
}

// NewByName hosts the contract under the named binding
// ("default", "custom" or "compact").
func NewByName(name string, opts ...Option) (crowdfund.Application, error) {
	switch name {
	case "default":
		return NewDefault(opts...)
	case "custom":
		return NewCustom(opts...)
	case "compact":
		return NewCompact(opts...)
	default:
		return nil, fmt.Errorf("app: unknown environment %q", name)
	}
}

// Environment returns the binding.
func (app *App[A, B, H, T, N]) Environment() env.Environment[A, B, H, T, N] { return app.env }

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

const capabilities = types.CapStateSync | types.CapSimulation

func (app *App[A, B, H, T, N]) Handshake(_ context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	if req.LastCommitted == nil {
		if req.Genesis == nil {
			return types.HandshakeResponse{}, errors.New("app: genesis handshake without genesis document")
		}
		s, err := app.instantiate(*req.Genesis)
		if err != nil {
			return types.HandshakeResponse{}, err
		}
		h, err := s.appHash()
		if err != nil {
			return types.HandshakeResponse{}, err
		}

		app.mu.Lock()
		app.current = s
		app.mu.Unlock()

		app.log.Info("contract instantiated",
			zap.String("chain_id", req.Genesis.ChainID),
			zap.Stringer("contract", s.self),
			zap.Int("accounts", len(s.ledger.balances)),
		)
		return types.HandshakeResponse{
			AppHash:      &h,
			Capabilities: capabilities,
		}, nil
	}

	// Restart.
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.current == nil {
		return types.HandshakeResponse{Capabilities: capabilities}, nil
	}
	if req.LastCommitted.Height > app.current.height {
		return types.HandshakeResponse{}, crowdfund.NewHaltError(req.LastCommitted.Height,
			fmt.Sprintf("node is ahead of contract state (app height %d)", app.current.height))
	}
	h, err := app.current.appHash()
	if err != nil {
		return types.HandshakeResponse{}, err
	}
	return types.HandshakeResponse{
		LastBlock: &types.BlockID{
			Height: app.current.height,
		},
		AppHash:      &h,
		Capabilities: capabilities,
	}, nil
}

// instantiate checks the binding against the host profile and builds
// the genesis state.
func (app *App[A, B, H, T, N]) instantiate(doc types.GenesisDoc) (*state[A, B, H, T, N], error) {
	if err := env.CheckCompatibility(app.env, app.profile); err != nil {
		return nil, fmt.Errorf("app: instantiate on %s: %w", app.profile.Name, err)
	}
	var gs types.GenesisState
	if len(doc.AppState) > 0 {
		if err := cramberry.Unmarshal(doc.AppState, &gs); err != nil {
			return nil, fmt.Errorf("app: genesis state: %w", err)
		}
	}

	var self A
	if len(gs.ContractAccount) > 0 {
		var err error
		if self, err = app.env.AccountID(gs.ContractAccount); err != nil {
			return nil, fmt.Errorf("app: genesis contract account: %w", err)
		}
	}
	c, err := contract.New(app.env)
	if err != nil {
		return nil, err
	}

	l := newLedger[A, B]()
	seen := make(map[A]struct{}, len(gs.Accounts))
	for _, acc := range gs.Accounts {
		a, err := app.env.AccountID(acc.Account)
		if err != nil {
			return nil, fmt.Errorf("app: genesis account: %w", err)
		}
		if _, dup := seen[a]; dup {
			return nil, fmt.Errorf("app: genesis account %s listed twice", a)
		}
		seen[a] = struct{}{}
		amount, err := app.env.Balance(acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("app: genesis balance of %s: %w", a, err)
		}
		if err := l.mint(a, amount); err != nil {
			return nil, err
		}
	}
	l.commit()

	return &state[A, B, H, T, N]{
		height:   0,
		lastTime: doc.GenesisTime,
		self:     self,
		contract: c,
		ledger:   l,
	}, nil
}

func (app *App[A, B, H, T, N]) CheckTx(_ context.Context, tx types.Tx, _ types.MempoolContext) (types.GateVerdict, error) {
	msg, err := DecodeMessage(tx)
	if err != nil {
		return types.GateVerdict{Code: CodeInvalidTx, Info: err.Error()}, nil
	}
	caller, err := app.env.AccountID(msg.Caller)
	if err != nil {
		return types.GateVerdict{Code: CodeInvalidTx, Info: fmt.Sprintf("caller: %v", err)}, nil
	}

	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.current == nil {
		return types.GateVerdict{Code: CodeInvalidTx, Info: ErrNotInitialized.Error()}, nil
	}

	if msg.Kind == types.MsgDonate {
		owner, err := app.env.AccountID(msg.Owner)
		if err != nil {
			return types.GateVerdict{Code: CodeInvalidTx, Info: fmt.Sprintf("owner: %v", err)}, nil
		}
		if caller == app.current.self {
			return types.GateVerdict{Code: CodeContractError, Info: contract.ErrSelfDonation.Error()}, nil
		}
		if msg.Value == 0 {
			return types.GateVerdict{Code: CodeContractError, Info: contract.ErrZeroDonation.Error()}, nil
		}
		rec, ok := app.current.contract.Fund(owner)
		switch {
		case !ok:
			return types.GateVerdict{Code: CodeContractError, Info: contract.ErrNoFund.Error()}, nil
		case rec.Completed:
			return types.GateVerdict{Code: CodeContractError, Info: contract.ErrFundCompleted.Error()}, nil
		}
		value, err := app.env.Balance(msg.Value)
		if err != nil {
			return types.GateVerdict{Code: CodeInvalidTx, Info: fmt.Sprintf("value: %v", err)}, nil
		}
		if app.current.ledger.balance(caller).Cmp(value) < 0 {
			return types.GateVerdict{Code: CodeInsufficientFunds, Info: ErrInsufficientBalance.Error()}, nil
		}
	}
	return types.GateVerdict{Code: CodeOK, Sender: caller.String()}, nil
}

func (app *App[A, B, H, T, N]) ExecuteBlock(_ context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	app.mu.RLock()
	if app.current == nil {
		app.mu.RUnlock()
		return types.BlockOutcome{}, ErrNotInitialized
	}
	s := app.current.clone()
	app.mu.RUnlock()

	num, err := app.env.BlockNumber(block.Height)
	if err != nil {
		app.log.Warn("halting", zap.Uint64("height", block.Height), zap.Error(err))
		return types.BlockOutcome{}, crowdfund.WrapHalt(block.Height, "block number not representable", err)
	}
	ts, err := app.env.Timestamp(block.Time.UnixMilli())
	if err != nil {
		app.log.Warn("halting", zap.Uint64("height", block.Height), zap.Error(err))
		return types.BlockOutcome{}, crowdfund.WrapHalt(block.Height, "block timestamp not representable", err)
	}

	s.height = block.Height
	s.lastTime = block.Time

	outcomes := make([]types.TxOutcome, len(block.Txs))
	for i, tx := range block.Txs {
		outcomes[i] = app.execute(s, uint32(i), tx, num, ts)
	}

	h, err := s.appHash()
	if err != nil {
		return types.BlockOutcome{}, err
	}
	app.mu.Lock()
	app.staged = s
	app.mu.Unlock()
	app.metrics.ObserveBlock()
	app.log.Debug("block executed",
		zap.Uint64("height", block.Height),
		zap.Int("txs", len(block.Txs)),
		zap.Uint64("next_id", s.contract.NextID()),
	)

	return types.BlockOutcome{
		TxOutcomes: outcomes,
		AppHash:    h,
	}, nil
}

func (app *App[A, B, H, T, N]) Commit(_ context.Context) (types.CommitResult, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.staged == nil {
		return types.CommitResult{}, errors.New("app: commit without executed block")
	}
	app.current = app.staged
	app.staged = nil
	app.metrics.SetCampaigns(app.current.contract.Len())

	return types.CommitResult{RetainHeight: 0}, nil
}

// ---------------------------------------------------------------------------
// Simulator
// ---------------------------------------------------------------------------

// Simulate runs tx as if it were the only transaction of the next
// block, carrying the last block's time.
func (app *App[A, B, H, T, N]) Simulate(_ context.Context, tx types.Tx) (types.TxOutcome, error) {
	app.mu.RLock()
	if app.current == nil {
		app.mu.RUnlock()
		return types.TxOutcome{}, ErrNotInitialized
	}
	s := app.current.clone()
	app.mu.RUnlock()

	num, err := app.env.BlockNumber(s.height + 1)
	if err != nil {
		return types.TxOutcome{}, fmt.Errorf("app: simulate at height %d: %w", s.height+1, err)
	}
	ts, err := app.env.Timestamp(s.lastTime.UnixMilli())
	if err != nil {
		return types.TxOutcome{}, fmt.Errorf("app: simulate: %w", err)
	}
	return app.run(s, 0, tx, num, ts), nil
}
