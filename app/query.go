package app

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/crowdfund/types"
)

// Query paths.
const (
	// Data = owner account. Value = cramberry types.FundView.
	PathFund types.QueryPath = "/fund"
	// Value = cramberry types.FundList of every campaign, oldest first.
	PathFunds types.QueryPath = "/funds"
	// Value = cramberry types.FundList of completed campaigns.
	PathSuccessful types.QueryPath = "/successful"
	// Value = 8 bytes, big-endian next campaign id.
	PathNextID types.QueryPath = "/next_id"
	// Data = account. Value = the binding's balance encoding.
	PathBalance types.QueryPath = "/balance"
)

func (app *App[A, B, H, T, N]) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	s := app.current
	if s == nil {
		return types.StateQueryResult{Code: 1, Info: ErrNotInitialized.Error()}, nil
	}
	if req.Height != nil && *req.Height != s.height {
		return types.StateQueryResult{
			Code:   1,
			Info:   fmt.Sprintf("height %d not retained (latest %d)", *req.Height, s.height),
			Height: s.height,
		}, nil
	}
	fail := func(format string, args ...any) (types.StateQueryResult, error) {
		return types.StateQueryResult{Code: 1, Info: fmt.Sprintf(format, args...), Height: s.height}, nil
	}

	var value []byte
	switch req.Path {
	case PathFund:
		owner, err := app.env.AccountID(req.Data)
		if err != nil {
			return fail("owner: %v", err)
		}
		rec, ok := s.contract.Fund(owner)
		if !ok {
			return fail("no campaign for %s", owner)
		}
		if value, err = cramberry.Marshal(fundView(rec)); err != nil {
			return types.StateQueryResult{}, fmt.Errorf("cramberry marshal: %w", err)
		}

	case PathFunds, PathSuccessful:
		recs := s.contract.Funds()
		if req.Path == PathSuccessful {
			recs = s.contract.Successful()
		}
		var err error
		if value, err = cramberry.Marshal(types.FundList{Funds: fundViews(recs)}); err != nil {
			return types.StateQueryResult{}, fmt.Errorf("cramberry marshal: %w", err)
		}

	case PathNextID:
		value = binary.BigEndian.AppendUint64(nil, s.contract.NextID())

	case PathBalance:
		a, err := app.env.AccountID(req.Data)
		if err != nil {
			return fail("account: %v", err)
		}
		value = s.ledger.balance(a).Encode()

	default:
		return fail("unknown query path %q", req.Path)
	}

	return types.StateQueryResult{
		Code:   0,
		Key:    req.Data,
		Value:  value,
		Height: s.height,
	}, nil
}
