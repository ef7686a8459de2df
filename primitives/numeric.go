package primitives

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a value does not fit the target width.
	ErrOverflow = errors.New("primitives: integer overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("primitives: integer underflow")
)

// Encoded widths, in bytes.
const (
	U32Length  = 4
	U64Length  = 8
	U128Length = 16
	U256Length = 32
)

// U32 is an unsigned 32-bit integer with a 4-byte little-endian encoding.
type U32 uint32

// U64 is an unsigned 64-bit integer with an 8-byte little-endian encoding.
type U64 uint64

// U128 is an unsigned 128-bit integer stored as little-endian limbs.
type U128 [2]uint64

// U256 is an unsigned 256-bit integer stored as little-endian limbs,
// layout-compatible with uint256.Int.
type U256 [4]uint64

// U32FromUint64 narrows v, failing with ErrOverflow if it does not fit.
func U32FromUint64(v uint64) (U32, error) {
	if v > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%w: %d exceeds u32", ErrOverflow, v)
	}
	return U32(v), nil
}

func (v U32) Cmp(o U32) int {
	switch {
	case v < o:
		return -1
	case v > o:
		return 1
	}
	return 0
}

func (v U32) IsZero() bool { return v == 0 }
func (v U32) Len() int     { return U32Length }

func (v U32) Encode() []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, U32Length), uint32(v))
}

func (v U32) Uint64() (uint64, bool) { return uint64(v), true }
func (v U32) String() string         { return strconv.FormatUint(uint64(v), 10) }

func (v U32) Add(o U32) (U32, error) {
	s := v + o
	if s < v {
		return 0, ErrOverflow
	}
	return s, nil
}

func (v U32) Sub(o U32) (U32, error) {
	if o > v {
		return 0, ErrUnderflow
	}
	return v - o, nil
}

// U32FromBytes decodes a 4-byte little-endian value.
func U32FromBytes(b []byte) (U32, error) {
	var buf [U32Length]byte
	if err := copyExact("U32", buf[:], b); err != nil {
		return 0, err
	}
	return U32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (v U64) Cmp(o U64) int {
	switch {
	case v < o:
		return -1
	case v > o:
		return 1
	}
	return 0
}

func (v U64) IsZero() bool { return v == 0 }
func (v U64) Len() int     { return U64Length }

func (v U64) Encode() []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, U64Length), uint64(v))
}

func (v U64) Uint64() (uint64, bool) { return uint64(v), true }
func (v U64) String() string         { return strconv.FormatUint(uint64(v), 10) }

func (v U64) Add(o U64) (U64, error) {
	s := v + o
	if s < v {
		return 0, ErrOverflow
	}
	return s, nil
}

func (v U64) Sub(o U64) (U64, error) {
	if o > v {
		return 0, ErrUnderflow
	}
	return v - o, nil
}

// U64FromBytes decodes an 8-byte little-endian value.
func U64FromBytes(b []byte) (U64, error) {
	var buf [U64Length]byte
	if err := copyExact("U64", buf[:], b); err != nil {
		return 0, err
	}
	return U64(binary.LittleEndian.Uint64(buf[:])), nil
}

// U128FromUint64 widens v.
func U128FromUint64(v uint64) U128 { return U128{v, 0} }

// ParseU128 parses a base-10 string.
func ParseU128(s string) (U128, error) {
	var n uint256.Int
	if err := n.SetFromDecimal(s); err != nil {
		return U128{}, fmt.Errorf("primitives: parse u128 %q: %w", s, err)
	}
	if n.BitLen() > 128 {
		return U128{}, fmt.Errorf("%w: %s exceeds u128", ErrOverflow, s)
	}
	return U128{n[0], n[1]}, nil
}

func (v U128) wide() *uint256.Int { return &uint256.Int{v[0], v[1], 0, 0} }

func (v U128) Cmp(o U128) int { return v.wide().Cmp(o.wide()) }
func (v U128) IsZero() bool   { return v == U128{} }
func (v U128) Len() int       { return U128Length }

func (v U128) Encode() []byte {
	buf := make([]byte, 0, U128Length)
	buf = binary.LittleEndian.AppendUint64(buf, v[0])
	return binary.LittleEndian.AppendUint64(buf, v[1])
}

func (v U128) Uint64() (uint64, bool) { return v[0], v[1] == 0 }
func (v U128) String() string         { return v.wide().Dec() }

func (v U128) Add(o U128) (U128, error) {
	var s uint256.Int
	s.Add(v.wide(), o.wide())
	if s.BitLen() > 128 {
		return U128{}, ErrOverflow
	}
	return U128{s[0], s[1]}, nil
}

func (v U128) Sub(o U128) (U128, error) {
	var d uint256.Int
	if _, underflow := d.SubOverflow(v.wide(), o.wide()); underflow {
		return U128{}, ErrUnderflow
	}
	return U128{d[0], d[1]}, nil
}

// U128FromBytes decodes a 16-byte little-endian value.
func U128FromBytes(b []byte) (U128, error) {
	var buf [U128Length]byte
	if err := copyExact("U128", buf[:], b); err != nil {
		return U128{}, err
	}
	return U128{
		binary.LittleEndian.Uint64(buf[0:8]),
		binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// U256FromUint64 widens v.
func U256FromUint64(v uint64) U256 { return U256{v, 0, 0, 0} }

func (v U256) limbs() *uint256.Int { return (*uint256.Int)(&v) }

func (v U256) Cmp(o U256) int { return v.limbs().Cmp(o.limbs()) }
func (v U256) IsZero() bool   { return v == U256{} }
func (v U256) Len() int       { return U256Length }

func (v U256) Encode() []byte {
	buf := make([]byte, 0, U256Length)
	for _, limb := range v {
		buf = binary.LittleEndian.AppendUint64(buf, limb)
	}
	return buf
}

func (v U256) Uint64() (uint64, bool) { return v[0], v.limbs().IsUint64() }
func (v U256) String() string         { return v.limbs().Dec() }

func (v U256) Add(o U256) (U256, error) {
	var s uint256.Int
	if _, overflow := s.AddOverflow(v.limbs(), o.limbs()); overflow {
		return U256{}, ErrOverflow
	}
	return U256(s), nil
}

func (v U256) Sub(o U256) (U256, error) {
	var d uint256.Int
	if _, underflow := d.SubOverflow(v.limbs(), o.limbs()); underflow {
		return U256{}, ErrUnderflow
	}
	return U256(d), nil
}

// U256FromBytes decodes a 32-byte little-endian value.
func U256FromBytes(b []byte) (U256, error) {
	var buf [U256Length]byte
	if err := copyExact("U256", buf[:], b); err != nil {
		return U256{}, err
	}
	var v U256
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
	}
	return v, nil
}
