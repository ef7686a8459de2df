package app

import (
	"crypto/sha256"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/crowdfund/contract"
	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/types"
)

// state is everything the host keeps for one contract instance.
type state[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]] struct {
	height   uint64
	lastTime types.Timestamp
	self     A
	contract *contract.Contract[A, B, H, T, N]
	ledger   *ledger[A, B]
}

func (s *state[A, B, H, T, N]) clone() *state[A, B, H, T, N] {
	return &state[A, B, H, T, N]{
		height:   s.height,
		lastTime: s.lastTime,
		self:     s.self,
		contract: s.contract.Clone(),
		ledger:   s.ledger.clone(),
	}
}

// wire returns the canonical serializable form of s.
func (s *state[A, B, H, T, N]) wire() types.ContractState {
	reg := s.contract.State()
	ws := types.ContractState{
		Height:          s.height,
		ContractAccount: s.self.Encode(),
		NextID:          reg.NextID,
		Owners:          fundViews(reg.Owners),
		All:             fundViews(reg.All),
		Successful:      fundViews(reg.Successful),
		Time:            s.lastTime,
	}
	for _, a := range s.ledger.accounts() {
		ws.Ledger = append(ws.Ledger, types.LedgerEntry{
			Account: a.Encode(),
			Amount:  s.ledger.balance(a).Encode(),
		})
	}
	return ws
}

func (s *state[A, B, H, T, N]) marshal() ([]byte, error) {
	data, err := cramberry.Marshal(s.wire())
	if err != nil {
		return nil, fmt.Errorf("cramberry marshal: %w", err)
	}
	return data, nil
}

// appHash is the sha256 of the serialized state.
func (s *state[A, B, H, T, N]) appHash() (types.AppHash, error) {
	data, err := s.marshal()
	if err != nil {
		return types.AppHash{}, err
	}
	return types.AppHash(sha256.Sum256(data)), nil
}

// restoreState rebuilds a state from its serialized form, validating
// every identifier and balance against the binding.
func restoreState[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]](
	e env.Environment[A, B, H, T, N], data []byte,
) (*state[A, B, H, T, N], error) {
	var ws types.ContractState
	if err := cramberry.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("cramberry unmarshal: %w", err)
	}
	self, err := e.AccountID(ws.ContractAccount)
	if err != nil {
		return nil, fmt.Errorf("contract account: %w", err)
	}
	c, err := contract.New(e)
	if err != nil {
		return nil, err
	}

	reg := contract.RegistryState[A, B]{NextID: ws.NextID}
	for _, set := range []struct {
		dst *[]contract.FundRecord[A, B]
		src []types.FundView
	}{
		{&reg.Owners, ws.Owners},
		{&reg.All, ws.All},
		{&reg.Successful, ws.Successful},
	} {
		for _, v := range set.src {
			rec, err := fundRecord(e, v)
			if err != nil {
				return nil, err
			}
			*set.dst = append(*set.dst, rec)
		}
	}
	if err := c.Restore(reg); err != nil {
		return nil, err
	}

	l := newLedger[A, B]()
	for _, entry := range ws.Ledger {
		a, err := e.AccountID(entry.Account)
		if err != nil {
			return nil, fmt.Errorf("ledger account: %w", err)
		}
		amount, err := e.DecodeBalance(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("ledger balance of %s: %w", a, err)
		}
		l.set(a, amount)
	}
	l.commit()

	return &state[A, B, H, T, N]{
		height:   ws.Height,
		lastTime: ws.Time,
		self:     self,
		contract: c,
		ledger:   l,
	}, nil
}

func fundView[A env.Identifier[A], B env.Balance[B]](rec contract.FundRecord[A, B]) types.FundView {
	v := types.FundView{
		Owner:        rec.Owner.Encode(),
		ID:           rec.ID,
		Name:         rec.Name,
		Reason:       rec.Reason,
		AmountNeeded: rec.AmountNeeded.Encode(),
		AmountGotten: rec.AmountGotten.Encode(),
		Completed:    rec.Completed,
	}
	for _, d := range rec.Donors {
		v.Donors = append(v.Donors, d.Encode())
	}
	return v
}

func fundViews[A env.Identifier[A], B env.Balance[B]](recs []contract.FundRecord[A, B]) []types.FundView {
	out := make([]types.FundView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fundView(rec))
	}
	return out
}

func fundRecord[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]](
	e env.Environment[A, B, H, T, N], v types.FundView,
) (contract.FundRecord[A, B], error) {
	var rec contract.FundRecord[A, B]
	owner, err := e.AccountID(v.Owner)
	if err != nil {
		return rec, fmt.Errorf("campaign %d owner: %w", v.ID, err)
	}
	needed, err := e.DecodeBalance(v.AmountNeeded)
	if err != nil {
		return rec, fmt.Errorf("campaign %d amount needed: %w", v.ID, err)
	}
	gotten, err := e.DecodeBalance(v.AmountGotten)
	if err != nil {
		return rec, fmt.Errorf("campaign %d amount gotten: %w", v.ID, err)
	}
	rec = contract.FundRecord[A, B]{
		Owner:        owner,
		ID:           v.ID,
		Name:         v.Name,
		Reason:       v.Reason,
		AmountNeeded: needed,
		AmountGotten: gotten,
		Completed:    v.Completed,
	}
	for _, d := range v.Donors {
		donor, err := e.AccountID(d)
		if err != nil {
			return rec, fmt.Errorf("campaign %d donor: %w", v.ID, err)
		}
		rec.Donors = append(rec.Donors, donor)
	}
	return rec, nil
}
