// Package env defines the execution-environment abstraction a contract
// is compiled against.
//
// An Environment binds five concrete types (account identifier, balance,
// hash, timestamp, block number) and two constants (maximum indexed
// event topics, chain-extension capability). The binding is fixed by
// type parameters; contract logic written against Environment does not
// change when a binding swaps a type, only its binary layout and the
// validation applied when values enter the contract.
package env

import (
	"errors"
	"fmt"
)

// TopicDigestLength is the width of the blake2b-256 digest used for
// topics whose encoding exceeds the hash width. A binding's hash type
// must have exactly this width.
const TopicDigestLength = 32

// Identifier is a fixed-width byte-array value type.
type Identifier[T any] interface {
	comparable
	Bytes() []byte
	Encode() []byte
	Len() int
	Compare(T) int
	Sum64() uint64
	String() string
}

// ClearableHash is an Identifier with a designated all-zero sentinel.
type ClearableHash[T any] interface {
	Identifier[T]
	IsClear() bool
}

// Numeric is a fixed-width unsigned integer. The zero value of a
// Numeric type must be the number zero.
type Numeric[T any] interface {
	comparable
	Cmp(T) int
	IsZero() bool
	Len() int
	Encode() []byte
	Uint64() (uint64, bool)
	String() string
}

// Balance is a Numeric with checked arithmetic.
type Balance[T any] interface {
	Numeric[T]
	Add(T) (T, error)
	Sub(T) (T, error)
}

// Environment is the binding a contract is parameterized over.
//
// Conversions are the only way values enter a contract, so they carry
// the binding's validation rules: a 16-byte account binding rejects
// 32-byte input, a 32-bit block-number binding rejects heights that do
// not fit, and so on.
type Environment[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]] interface {
	Name() string

	// MaxEventTopics bounds the number of indexed fields an event may
	// declare.
	MaxEventTopics() int

	// ChainExtension returns the environment-specific host call hook.
	// Bindings without one return NoChainExtension.
	ChainExtension() ChainExtension

	AccountID(b []byte) (A, error)
	Hash(b []byte) (H, error)
	Balance(v uint64) (B, error)
	DecodeBalance(b []byte) (B, error)
	// Timestamp converts milliseconds since the Unix epoch.
	Timestamp(unixMillis uint64) (T, error)
	BlockNumber(height uint64) (N, error)
}

// ErrInvalidBinding is matched by every error returned from Validate.
var ErrInvalidBinding = errors.New("env: invalid binding")

// Validate checks that a binding is internally consistent. All
// violations are reported together.
func Validate[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]](e Environment[A, B, H, T, N]) error {
	var (
		errs []error
		a    A
		h    H
		b    B
	)
	if a.Len() <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s: account identifier has zero width", ErrInvalidBinding, e.Name()))
	}
	if h.Len() != TopicDigestLength {
		errs = append(errs, fmt.Errorf("%w: %s: hash width %d, topic encoder requires %d",
			ErrInvalidBinding, e.Name(), h.Len(), TopicDigestLength))
	}
	if !h.IsClear() {
		errs = append(errs, fmt.Errorf("%w: %s: zero hash value is not the clear sentinel", ErrInvalidBinding, e.Name()))
	}
	if !b.IsZero() {
		errs = append(errs, fmt.Errorf("%w: %s: zero balance value is not zero", ErrInvalidBinding, e.Name()))
	}
	if e.MaxEventTopics() < 0 {
		errs = append(errs, fmt.Errorf("%w: %s: negative topic limit %d", ErrInvalidBinding, e.Name(), e.MaxEventTopics()))
	}
	if e.ChainExtension() == nil {
		errs = append(errs, fmt.Errorf("%w: %s: nil chain extension (use NoChainExtension)", ErrInvalidBinding, e.Name()))
	}
	return errors.Join(errs...)
}

// Description summarizes a binding's type widths, in bytes.
type Description struct {
	Name             string
	AccountIDLength  int
	BalanceLength    int
	HashLength       int
	TimestampLength  int
	BlockNumLength   int
	MaxEventTopics   int
	ChainExtensionID uint16
}

// Describe reports the widths bound by e.
func Describe[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]](e Environment[A, B, H, T, N]) Description {
	var (
		a A
		b B
		h H
		t T
		n N
	)
	d := Description{
		Name:            e.Name(),
		AccountIDLength: a.Len(),
		BalanceLength:   b.Len(),
		HashLength:      h.Len(),
		TimestampLength: t.Len(),
		BlockNumLength:  n.Len(),
		MaxEventTopics:  e.MaxEventTopics(),
	}
	if ext := e.ChainExtension(); ext != nil {
		d.ChainExtensionID = ext.ID()
	}
	return d
}
