package contract

import "github.com/blockberries/crowdfund/env"

// Host is the execution context the hosting runtime provides for one
// invocation. Transfers and events take effect only if the invocation
// succeeds; the host discards them otherwise.
type Host[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]] interface {
	// Caller is the account that sent the message.
	Caller() A
	// AccountID is the contract's own account.
	AccountID() A
	BlockNumber() N
	BlockTimestamp() T
	// TransferredValue is the value sent along with a payable message.
	// It is already credited to the contract.
	TransferredValue() B
	// Transfer moves value from the contract's account to another.
	Transfer(to A, value B) error
	EmitEvent(ev env.Event[H]) error
}
