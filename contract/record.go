package contract

import (
	"slices"

	"github.com/blockberries/crowdfund/env"
)

// FundRecord is one crowdfunding campaign.
type FundRecord[A env.Identifier[A], B env.Balance[B]] struct {
	Owner        A
	ID           uint64
	Name         string
	Reason       string
	AmountNeeded B
	AmountGotten B
	Completed    bool
	// Donors in donation order. An account donating twice appears twice.
	Donors []A
}

func (r FundRecord[A, B]) clone() FundRecord[A, B] {
	r.Donors = slices.Clone(r.Donors)
	return r
}

// Remaining is the amount still needed to complete the campaign.
func (r FundRecord[A, B]) Remaining() B {
	rem, err := r.AmountNeeded.Sub(r.AmountGotten)
	if err != nil {
		var zero B
		return zero
	}
	return rem
}
