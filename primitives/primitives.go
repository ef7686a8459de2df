// Package primitives defines the fixed-width value types a contract
// environment is built from: account identifiers, content hashes and
// unsigned integers of fixed encoded width.
//
// Identifier types wrap a byte array. They are comparable, so Go's ==
// and map keys work byte-wise, and they are only ever constructed from
// variable-length input through an explicit, length-checked conversion.
package primitives

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrLengthMismatch is matched by every conversion that rejects a byte
// slice of the wrong length.
var ErrLengthMismatch = errors.New("primitives: length mismatch")

// LengthMismatchError reports a failed slice-to-array conversion.
type LengthMismatchError struct {
	Type string
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("primitives: %s requires %d bytes, got %d", e.Type, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrLengthMismatch) succeed.
func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// copyExact copies src into dst iff the lengths match exactly.
func copyExact(typ string, dst, src []byte) error {
	if len(src) != len(dst) {
		return &LengthMismatchError{Type: typ, Want: len(dst), Got: len(src)}
	}
	copy(dst, src)
	return nil
}

func compareBytes(a, b []byte) int { return bytes.Compare(a, b) }

func sum64(b []byte) uint64 { return xxhash.Sum64(b) }

func hexString(b []byte) string { return "0x" + hex.EncodeToString(b) }

// parseHex decodes an optionally 0x-prefixed hex string into dst.
func parseHex(typ string, dst []byte, text []byte) error {
	s := text
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw := make([]byte, hex.DecodedLen(len(s)))
	n, err := hex.Decode(raw, s)
	if err != nil {
		return fmt.Errorf("primitives: decode %s: %w", typ, err)
	}
	return copyExact(typ, dst, raw[:n])
}
