package app

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/blockberries/crowdfund/env"
)

// ErrInsufficientBalance is matched by InsufficientBalanceError.
var ErrInsufficientBalance = errors.New("app: insufficient balance")

// InsufficientBalanceError reports a transfer the payer cannot cover.
type InsufficientBalanceError struct {
	Account string
	Have    string
	Want    string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("InsufficientBalance { account: %s, have: %s, want: %s }", e.Account, e.Have, e.Want)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

type journalEntry[A env.Identifier[A], B env.Balance[B]] struct {
	account A
	prev    B
	existed bool
}

// ledger holds account balances. Writes are journaled so that one
// invocation's effects can be undone.
type ledger[A env.Identifier[A], B env.Balance[B]] struct {
	balances map[A]B
	journal  []journalEntry[A, B]
}

func newLedger[A env.Identifier[A], B env.Balance[B]]() *ledger[A, B] {
	return &ledger[A, B]{balances: make(map[A]B)}
}

func (l *ledger[A, B]) clone() *ledger[A, B] {
	return &ledger[A, B]{balances: maps.Clone(l.balances)}
}

func (l *ledger[A, B]) balance(a A) B { return l.balances[a] }

func (l *ledger[A, B]) set(a A, v B) {
	prev, existed := l.balances[a]
	l.journal = append(l.journal, journalEntry[A, B]{account: a, prev: prev, existed: existed})
	l.balances[a] = v
}

// mint credits v to a, used for genesis allocation.
func (l *ledger[A, B]) mint(a A, v B) error {
	sum, err := l.balance(a).Add(v)
	if err != nil {
		return fmt.Errorf("app: credit %s: %w", a, err)
	}
	l.set(a, sum)
	return nil
}

func (l *ledger[A, B]) transfer(from, to A, v B) error {
	have := l.balance(from)
	rest, err := have.Sub(v)
	if err != nil {
		return &InsufficientBalanceError{Account: from.String(), Have: have.String(), Want: v.String()}
	}
	if from == to {
		return nil
	}
	credited, err := l.balance(to).Add(v)
	if err != nil {
		return fmt.Errorf("app: credit %s: %w", to, err)
	}
	l.set(from, rest)
	l.set(to, credited)
	return nil
}

// mark returns a journal position for rollback.
func (l *ledger[A, B]) mark() int { return len(l.journal) }

// rollback undoes every write after mark.
func (l *ledger[A, B]) rollback(mark int) {
	for i := len(l.journal) - 1; i >= mark; i-- {
		e := l.journal[i]
		if e.existed {
			l.balances[e.account] = e.prev
		} else {
			delete(l.balances, e.account)
		}
	}
	l.journal = l.journal[:mark]
}

// commit forgets the journal.
func (l *ledger[A, B]) commit() { l.journal = l.journal[:0] }

// accounts returns the accounts with a balance entry, sorted.
func (l *ledger[A, B]) accounts() []A {
	return slices.SortedFunc(maps.Keys(l.balances), func(a, b A) int { return a.Compare(b) })
}
