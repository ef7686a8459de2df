package env

import "github.com/blockberries/crowdfund/primitives"

// Interface types of the shipped bindings. Passing a binding as one of
// these lets generic constructors infer the bound types.
type (
	DefaultEnvironment = Environment[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U32]
	CustomEnvironment  = Environment[primitives.AccountID, primitives.U128, primitives.Hash, primitives.U64, primitives.U64]
	CompactEnvironment = Environment[primitives.ShortAccountID, primitives.U64, primitives.Hash, primitives.U64, primitives.U64]
)

// DefaultMaxEventTopics is the topic limit of every shipped binding.
const DefaultMaxEventTopics = 4

var (
	_ DefaultEnvironment = Default{}
	_ CustomEnvironment  = Custom{}
	_ CompactEnvironment = Compact{}
)

// Default is the reference binding: 32-byte accounts, u128 balances,
// 32-byte hashes, u64 millisecond timestamps and u32 block numbers.
type Default struct{}

// NewDefault returns the Default binding as its interface type.
func NewDefault() DefaultEnvironment { return Default{} }

func (Default) Name() string                   { return "default" }
func (Default) MaxEventTopics() int            { return DefaultMaxEventTopics }
func (Default) ChainExtension() ChainExtension { return NoChainExtension{} }

func (Default) AccountID(b []byte) (primitives.AccountID, error) {
	return primitives.AccountIDFromBytes(b)
}

func (Default) Hash(b []byte) (primitives.Hash, error) { return primitives.HashFromBytes(b) }

func (Default) Balance(v uint64) (primitives.U128, error) { return primitives.U128FromUint64(v), nil }

func (Default) DecodeBalance(b []byte) (primitives.U128, error) { return primitives.U128FromBytes(b) }

func (Default) Timestamp(ms uint64) (primitives.U64, error) { return primitives.U64(ms), nil }

func (Default) BlockNumber(h uint64) (primitives.U32, error) { return primitives.U32FromUint64(h) }

// Custom widens block numbers to u64; everything else matches Default.
type Custom struct{}

// NewCustom returns the Custom binding as its interface type.
func NewCustom() CustomEnvironment { return Custom{} }

func (Custom) Name() string                   { return "custom" }
func (Custom) MaxEventTopics() int            { return DefaultMaxEventTopics }
func (Custom) ChainExtension() ChainExtension { return NoChainExtension{} }

func (Custom) AccountID(b []byte) (primitives.AccountID, error) {
	return primitives.AccountIDFromBytes(b)
}

func (Custom) Hash(b []byte) (primitives.Hash, error) { return primitives.HashFromBytes(b) }

func (Custom) Balance(v uint64) (primitives.U128, error) { return primitives.U128FromUint64(v), nil }

func (Custom) DecodeBalance(b []byte) (primitives.U128, error) { return primitives.U128FromBytes(b) }

func (Custom) Timestamp(ms uint64) (primitives.U64, error) { return primitives.U64(ms), nil }

func (Custom) BlockNumber(h uint64) (primitives.U64, error) { return primitives.U64(h), nil }

// Compact binds 16-byte accounts and u64 balances. It is internally
// consistent but is not accepted by hosts that expect SubstrateProfile
// widths.
type Compact struct{}

// NewCompact returns the Compact binding as its interface type.
func NewCompact() CompactEnvironment { return Compact{} }

func (Compact) Name() string                   { return "compact" }
func (Compact) MaxEventTopics() int            { return DefaultMaxEventTopics }
func (Compact) ChainExtension() ChainExtension { return NoChainExtension{} }

func (Compact) AccountID(b []byte) (primitives.ShortAccountID, error) {
	return primitives.ShortAccountIDFromBytes(b)
}

func (Compact) Hash(b []byte) (primitives.Hash, error) { return primitives.HashFromBytes(b) }

func (Compact) Balance(v uint64) (primitives.U64, error) { return primitives.U64(v), nil }

func (Compact) DecodeBalance(b []byte) (primitives.U64, error) { return primitives.U64FromBytes(b) }

func (Compact) Timestamp(ms uint64) (primitives.U64, error) { return primitives.U64(ms), nil }

func (Compact) BlockNumber(h uint64) (primitives.U64, error) { return primitives.U64(h), nil }
