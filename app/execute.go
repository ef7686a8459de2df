package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/internal/metrics"
	"github.com/blockberries/crowdfund/primitives"
	"github.com/blockberries/crowdfund/types"
)

// execute runs one transaction of a block and records it.
func (app *App[A, B, H, T, N]) execute(s *state[A, B, H, T, N], index uint32, tx types.Tx, num N, ts T) types.TxOutcome {
	out := app.run(s, index, tx, num, ts)

	kind := "unknown"
	if msg, err := DecodeMessage(tx); err == nil {
		kind = msg.Kind.String()
	}
	result := metrics.ResultOK
	switch out.Code {
	case CodeOK:
	case CodeInvalidTx:
		result = metrics.ResultInvalid
	default:
		result = metrics.ResultRejected
	}
	app.metrics.ObserveInvocation(kind, result, len(out.Events))
	if !out.OK() {
		app.log.Debug("invocation failed",
			zap.Uint32("index", index),
			zap.String("message", kind),
			zap.Uint32("code", out.Code),
			zap.String("info", out.Info),
		)
	}
	return out
}

// run executes tx as one invocation against s. On failure every ledger
// write made during the invocation is undone.
func (app *App[A, B, H, T, N]) run(s *state[A, B, H, T, N], index uint32, tx types.Tx, num N, ts T) types.TxOutcome {
	fail := func(code uint32, format string, args ...any) types.TxOutcome {
		return types.TxOutcome{Index: index, Code: code, Info: fmt.Sprintf(format, args...)}
	}

	msg, err := DecodeMessage(tx)
	if err != nil {
		return fail(CodeInvalidTx, "%v", err)
	}
	caller, err := app.env.AccountID(msg.Caller)
	if err != nil {
		return fail(CodeInvalidTx, "caller: %v", err)
	}

	inv := &invocation[A, B, H, T, N]{
		caller:    caller,
		self:      s.self,
		block:     num,
		time:      ts,
		maxTopics: app.profile.MaxEventTopics,
		ledger:    s.ledger,
	}
	mark := s.ledger.mark()

	var data []byte
	switch msg.Kind {
	case types.MsgCreateCrowdfund:
		amount, err := app.env.Balance(msg.Amount)
		if err != nil {
			return fail(CodeInvalidTx, "amount: %v", err)
		}
		id := s.contract.NextID()
		err = s.contract.CreateCrowdfund(inv, msg.Name, msg.Reason, amount)
		if err != nil {
			s.ledger.rollback(mark)
			return fail(contractCode(err), "%v", err)
		}
		data = primitives.U64(id).Encode()

	case types.MsgDonate:
		owner, err := app.env.AccountID(msg.Owner)
		if err != nil {
			return fail(CodeInvalidTx, "owner: %v", err)
		}
		value, err := app.env.Balance(msg.Value)
		if err != nil {
			return fail(CodeInvalidTx, "value: %v", err)
		}
		// Payable: the value reaches the contract before it runs.
		if err := s.ledger.transfer(caller, s.self, value); err != nil {
			s.ledger.rollback(mark)
			return fail(CodeInsufficientFunds, "%v", err)
		}
		inv.value = value
		if err := s.contract.Donate(inv, owner); err != nil {
			s.ledger.rollback(mark)
			return fail(contractCode(err), "%v", err)
		}
		rec, _ := s.contract.Fund(owner)
		data = rec.AmountGotten.Encode()

	default:
		return fail(CodeInvalidTx, "unknown message kind %d", msg.Kind)
	}

	s.ledger.commit()
	return types.TxOutcome{
		Index:  index,
		Code:   CodeOK,
		Data:   data,
		Events: inv.events,
	}
}

func contractCode(err error) uint32 {
	if errors.Is(err, env.ErrTopicOverflow) {
		return CodeTopicOverflow
	}
	return CodeContractError
}
