// Package contract implements the crowdfund contract: campaign
// creation and donation against a registry, executed through a Host
// supplied by the runtime and typed by an environment binding.
//
// Every message performs its fallible steps (id allocation, event
// construction, host transfer, emission) before it touches the
// registry, so a failed message leaves the registry unchanged.
package contract

import (
	"fmt"
	"math"

	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/primitives"
)

// ProbeAmount is transferred from the contract to itself on every
// campaign creation. A host that cannot move it fails the message.
const ProbeAmount uint64 = 1000

const (
	EventFundCreated = "FundCreated"
	EventDonated     = "Donated"
)

// Contract is one instance of the crowdfund contract.
type Contract[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]] struct {
	env   env.Environment[A, B, H, T, N]
	reg   *Registry[A, B]
	probe B
}

// New instantiates the contract with an empty registry. It fails if
// the binding is internally inconsistent.
func New[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]](
	e env.Environment[A, B, H, T, N],
) (*Contract[A, B, H, T, N], error) {
	if err := env.Validate(e); err != nil {
		return nil, err
	}
	probe, err := e.Balance(ProbeAmount)
	if err != nil {
		return nil, fmt.Errorf("contract: probe amount: %w", err)
	}
	return &Contract[A, B, H, T, N]{env: e, reg: NewRegistry[A, B](), probe: probe}, nil
}

// Environment returns the binding the contract was instantiated with.
func (c *Contract[A, B, H, T, N]) Environment() env.Environment[A, B, H, T, N] { return c.env }

// Clone returns an independent copy of the contract and its registry.
func (c *Contract[A, B, H, T, N]) Clone() *Contract[A, B, H, T, N] {
	return &Contract[A, B, H, T, N]{env: c.env, reg: c.reg.Clone(), probe: c.probe}
}

// State exports the registry.
func (c *Contract[A, B, H, T, N]) State() RegistryState[A, B] { return c.reg.State() }

// Restore replaces the registry with st.
func (c *Contract[A, B, H, T, N]) Restore(st RegistryState[A, B]) error {
	reg, err := RestoreRegistry(st)
	if err != nil {
		return err
	}
	c.reg = reg
	return nil
}

func (c *Contract[A, B, H, T, N]) Fund(owner A) (FundRecord[A, B], bool) { return c.reg.Fund(owner) }
func (c *Contract[A, B, H, T, N]) Funds() []FundRecord[A, B]             { return c.reg.Funds() }
func (c *Contract[A, B, H, T, N]) Successful() []FundRecord[A, B]        { return c.reg.Successful() }
func (c *Contract[A, B, H, T, N]) NextID() uint64                        { return c.reg.NextID() }

// Owners is the number of accounts with a campaign.
func (c *Contract[A, B, H, T, N]) Owners() int { return c.reg.Owners() }

// Len is the number of campaigns ever created.
func (c *Contract[A, B, H, T, N]) Len() int { return c.reg.Len() }

// CreateCrowdfund opens a campaign owned by the caller. A caller that
// already owns a campaign has it replaced in the owner mapping; the
// earlier campaign stays in the log.
//
// The caller receives the FundCreated event: topics are the block
// number, the block timestamp, the campaign id and a zero balance;
// data is the amount needed.
func (c *Contract[A, B, H, T, N]) CreateCrowdfund(host Host[A, B, H, T, N], name, reason string, amountNeeded B) error {
	id := c.reg.NextID()
	if id == math.MaxUint64 {
		return failf(ErrIDExhausted, "campaign ids exhausted")
	}
	var zero B
	rec := FundRecord[A, B]{
		Owner:        host.Caller(),
		ID:           id,
		Name:         name,
		Reason:       reason,
		AmountNeeded: amountNeeded,
		AmountGotten: zero,
	}

	ev, err := env.NewEvent(c.env, EventFundCreated,
		[]env.Topic{host.BlockNumber(), host.BlockTimestamp(), primitives.U64(id), zero},
		amountNeeded,
	)
	if err != nil {
		return failf(err, "%v", err)
	}

	if err := host.Transfer(host.AccountID(), c.probe); err != nil {
		return hostFailure(ErrTransfer, err)
	}
	if err := host.EmitEvent(ev); err != nil {
		return hostFailure(ErrEmit, err)
	}

	c.reg.insert(rec)
	return nil
}

// Donate credits the transferred value to the campaign owned by owner.
// The campaign completes when the amount gotten reaches the amount
// needed; a donation that would overshoot is rejected.
//
// Donated topics are the block number, the block timestamp, the
// campaign id and the donor; data is the donated value followed by
// the new amount gotten.
func (c *Contract[A, B, H, T, N]) Donate(host Host[A, B, H, T, N], owner A) error {
	if host.Caller() == host.AccountID() {
		return failf(ErrSelfDonation, "contract account %s cannot donate to its own campaigns", host.Caller())
	}
	value := host.TransferredValue()
	if value.IsZero() {
		return failf(ErrZeroDonation, "donation carries no value")
	}
	rec, ok := c.reg.Fund(owner)
	if !ok {
		return failf(ErrNoFund, "no campaign for %s", owner)
	}
	if rec.Completed {
		return failf(ErrFundCompleted, "campaign %d already completed", rec.ID)
	}
	gotten, err := rec.AmountGotten.Add(value)
	if err != nil {
		return failf(fmt.Errorf("%w: %w", ErrAmountOverflow, err), "campaign %d: %v", rec.ID, err)
	}
	if gotten.Cmp(rec.AmountNeeded) > 0 {
		return failf(ErrExceedsNeeded, "campaign %d needs %s more, got %s", rec.ID, rec.Remaining(), value)
	}

	donor := host.Caller()
	ev, err := env.NewEvent(c.env, EventDonated,
		[]env.Topic{host.BlockNumber(), host.BlockTimestamp(), primitives.U64(rec.ID), donor},
		value, gotten,
	)
	if err != nil {
		return failf(err, "%v", err)
	}
	if err := host.EmitEvent(ev); err != nil {
		return hostFailure(ErrEmit, err)
	}

	rec.AmountGotten = gotten
	rec.Donors = append(rec.Donors, donor)
	rec.Completed = gotten.Cmp(rec.AmountNeeded) == 0
	c.reg.update(rec)
	return nil
}
