package app

import (
	"github.com/blockberries/crowdfund/contract"
	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/primitives"
	"github.com/blockberries/crowdfund/types"
)

// invocation is the contract.Host for one message. Transfers go to the
// staged ledger and are undone by the caller if the message fails;
// events are buffered and only surface on success.
type invocation[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]] struct {
	caller    A
	self      A
	block     N
	time      T
	value     B
	maxTopics int
	ledger    *ledger[A, B]
	events    []types.Event
}

var _ contract.Host[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U32] = (*invocation[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U32])(nil)

func (inv *invocation[A, B, H, T, N]) Caller() A           { return inv.caller }
func (inv *invocation[A, B, H, T, N]) AccountID() A        { return inv.self }
func (inv *invocation[A, B, H, T, N]) BlockNumber() N      { return inv.block }
func (inv *invocation[A, B, H, T, N]) BlockTimestamp() T   { return inv.time }
func (inv *invocation[A, B, H, T, N]) TransferredValue() B { return inv.value }

func (inv *invocation[A, B, H, T, N]) Transfer(to A, value B) error {
	return inv.ledger.transfer(inv.self, to, value)
}

// EmitEvent enforces the host's own topic limit, which may be lower
// than the binding's.
func (inv *invocation[A, B, H, T, N]) EmitEvent(ev env.Event[H]) error {
	if err := env.CheckTopics(ev.Kind, len(ev.Topics), inv.maxTopics); err != nil {
		return err
	}
	inv.events = append(inv.events, ev.Wire())
	return nil
}
