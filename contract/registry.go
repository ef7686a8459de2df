package contract

import (
	"errors"
	"fmt"
	"slices"

	"github.com/blockberries/crowdfund/env"
)

// FirstCampaignID is the id handed to the first campaign created.
const FirstCampaignID uint64 = 1

// ErrInvalidState is returned when restoring an inconsistent registry.
var ErrInvalidState = errors.New("contract: invalid registry state")

// Registry is the contract's storage: the latest campaign per owner,
// an append-only log of every campaign, the completed campaigns, and
// the next campaign id.
//
// Accessors return copies; the registry is only mutated by Contract.
type Registry[A env.Identifier[A], B env.Balance[B]] struct {
	byOwner    map[A]FundRecord[A, B]
	all        []FundRecord[A, B]
	successful []FundRecord[A, B]
	nextID     uint64
}

// NewRegistry returns an empty registry.
func NewRegistry[A env.Identifier[A], B env.Balance[B]]() *Registry[A, B] {
	return &Registry[A, B]{
		byOwner: make(map[A]FundRecord[A, B]),
		nextID:  FirstCampaignID,
	}
}

// Fund returns the latest campaign created by owner.
func (r *Registry[A, B]) Fund(owner A) (FundRecord[A, B], bool) {
	rec, ok := r.byOwner[owner]
	if !ok {
		return FundRecord[A, B]{}, false
	}
	return rec.clone(), true
}

// Funds returns every campaign ever created, oldest first.
func (r *Registry[A, B]) Funds() []FundRecord[A, B] { return cloneRecords(r.all) }

// Successful returns the completed campaigns in completion order.
func (r *Registry[A, B]) Successful() []FundRecord[A, B] { return cloneRecords(r.successful) }

// NextID is the id the next campaign will receive.
func (r *Registry[A, B]) NextID() uint64 { return r.nextID }

// Owners is the number of accounts with a campaign.
func (r *Registry[A, B]) Owners() int { return len(r.byOwner) }

// Len is the number of campaigns in the log.
func (r *Registry[A, B]) Len() int { return len(r.all) }

// Clone returns a deep copy.
func (r *Registry[A, B]) Clone() *Registry[A, B] {
	c := &Registry[A, B]{
		byOwner:    make(map[A]FundRecord[A, B], len(r.byOwner)),
		all:        cloneRecords(r.all),
		successful: cloneRecords(r.successful),
		nextID:     r.nextID,
	}
	for k, v := range r.byOwner {
		c.byOwner[k] = v.clone()
	}
	return c
}

// RegistryState is the canonical, order-stable form of a registry.
// Owners is sorted by owner account.
type RegistryState[A env.Identifier[A], B env.Balance[B]] struct {
	NextID     uint64
	Owners     []FundRecord[A, B]
	All        []FundRecord[A, B]
	Successful []FundRecord[A, B]
}

// State exports the registry.
func (r *Registry[A, B]) State() RegistryState[A, B] {
	owners := make([]FundRecord[A, B], 0, len(r.byOwner))
	for _, rec := range r.byOwner {
		owners = append(owners, rec.clone())
	}
	slices.SortFunc(owners, func(a, b FundRecord[A, B]) int { return a.Owner.Compare(b.Owner) })
	return RegistryState[A, B]{
		NextID:     r.nextID,
		Owners:     owners,
		All:        cloneRecords(r.all),
		Successful: cloneRecords(r.successful),
	}
}

// RestoreRegistry rebuilds a registry from an exported state.
func RestoreRegistry[A env.Identifier[A], B env.Balance[B]](st RegistryState[A, B]) (*Registry[A, B], error) {
	if st.NextID < FirstCampaignID {
		return nil, fmt.Errorf("%w: next id %d", ErrInvalidState, st.NextID)
	}
	r := &Registry[A, B]{
		byOwner:    make(map[A]FundRecord[A, B], len(st.Owners)),
		all:        cloneRecords(st.All),
		successful: cloneRecords(st.Successful),
		nextID:     st.NextID,
	}
	for _, rec := range st.All {
		if rec.ID >= st.NextID {
			return nil, fmt.Errorf("%w: campaign %d not below next id %d", ErrInvalidState, rec.ID, st.NextID)
		}
	}
	for _, rec := range st.Owners {
		if _, dup := r.byOwner[rec.Owner]; dup {
			return nil, fmt.Errorf("%w: duplicate owner %s", ErrInvalidState, rec.Owner)
		}
		r.byOwner[rec.Owner] = rec.clone()
	}
	return r, nil
}

func (r *Registry[A, B]) insert(rec FundRecord[A, B]) {
	r.byOwner[rec.Owner] = rec.clone()
	r.all = append(r.all, rec.clone())
	r.nextID++
}

// update replaces the owner's latest campaign and its log entry.
func (r *Registry[A, B]) update(rec FundRecord[A, B]) {
	r.byOwner[rec.Owner] = rec.clone()
	for i := len(r.all) - 1; i >= 0; i-- {
		if r.all[i].ID == rec.ID {
			r.all[i] = rec.clone()
			break
		}
	}
	if rec.Completed {
		r.successful = append(r.successful, rec.clone())
	}
}

func cloneRecords[A env.Identifier[A], B env.Balance[B]](in []FundRecord[A, B]) []FundRecord[A, B] {
	out := make([]FundRecord[A, B], len(in))
	for i, rec := range in {
		out[i] = rec.clone()
	}
	return out
}
