package env

import (
	"errors"
	"fmt"
)

// ErrIncompatible is matched by every error returned from
// CheckCompatibility.
var ErrIncompatible = errors.New("env: binding incompatible with host")

// HostProfile describes what a host runtime expects of the contracts it
// instantiates. Widths are in bytes.
//
// The host's topic limit is deliberately not part of compatibility: a
// contract whose binding allows more topics still instantiates and runs,
// and fails only when it emits an event the host cannot accept.
type HostProfile struct {
	Name                 string
	AccountIDLength      int
	HashLength           int
	BalanceLength        int
	MinTimestampLength   int
	MinBlockNumberLength int
	MaxEventTopics       int
	ChainExtensionID     uint16
}

// SubstrateProfile is the profile of the reference host.
var SubstrateProfile = HostProfile{
	Name:                 "substrate",
	AccountIDLength:      32,
	HashLength:           32,
	BalanceLength:        16,
	MinTimestampLength:   4,
	MinBlockNumberLength: 4,
	MaxEventTopics:       4,
	ChainExtensionID:     0,
}

// MismatchError is one incompatibility between a binding and a host.
type MismatchError struct {
	Field string
	Host  int
	Env   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("env: %s: host expects %d, binding has %d", e.Field, e.Host, e.Env)
}

func (e *MismatchError) Is(target error) bool { return target == ErrIncompatible }

// CheckCompatibility reports every way the binding would fail to
// instantiate on a host with profile p.
func CheckCompatibility[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]](
	e Environment[A, B, H, T, N], p HostProfile,
) error {
	d := Describe(e)
	var errs []error
	exact := func(field string, host, got int) {
		if host != got {
			errs = append(errs, &MismatchError{Field: field, Host: host, Env: got})
		}
	}
	atLeast := func(field string, host, got int) {
		if got < host {
			errs = append(errs, &MismatchError{Field: field, Host: host, Env: got})
		}
	}
	exact("account id width", p.AccountIDLength, d.AccountIDLength)
	exact("hash width", p.HashLength, d.HashLength)
	exact("balance width", p.BalanceLength, d.BalanceLength)
	atLeast("timestamp width", p.MinTimestampLength, d.TimestampLength)
	atLeast("block number width", p.MinBlockNumberLength, d.BlockNumLength)
	exact("chain extension id", int(p.ChainExtensionID), int(d.ChainExtensionID))
	return errors.Join(errs...)
}

// ProfileFor returns the profile of a host built for binding e: every
// width and the topic limit match exactly.
func ProfileFor[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]](
	e Environment[A, B, H, T, N],
) HostProfile {
	d := Describe(e)
	return HostProfile{
		Name:                 d.Name,
		AccountIDLength:      d.AccountIDLength,
		HashLength:           d.HashLength,
		BalanceLength:        d.BalanceLength,
		MinTimestampLength:   d.TimestampLength,
		MinBlockNumberLength: d.BlockNumLength,
		MaxEventTopics:       d.MaxEventTopics,
		ChainExtensionID:     d.ChainExtensionID,
	}
}
