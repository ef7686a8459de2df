package primitives

// AccountIDLength is the width of the default account identifier.
const AccountIDLength = 32

// ShortAccountIDLength is the width of the compact account identifier.
const ShortAccountIDLength = 16

// AccountID is the default 32-byte account identifier.
type AccountID [AccountIDLength]byte

// ShortAccountID is a 16-byte account identifier for environments that
// bind a narrower address space.
type ShortAccountID [ShortAccountIDLength]byte

// AccountIDFromBytes converts b into an AccountID. It fails unless b is
// exactly AccountIDLength bytes long; the bytes are copied.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if err := copyExact("AccountID", id[:], b); err != nil {
		return AccountID{}, err
	}
	return id, nil
}

// ShortAccountIDFromBytes converts b into a ShortAccountID. It fails
// unless b is exactly ShortAccountIDLength bytes long.
func ShortAccountIDFromBytes(b []byte) (ShortAccountID, error) {
	var id ShortAccountID
	if err := copyExact("ShortAccountID", id[:], b); err != nil {
		return ShortAccountID{}, err
	}
	return id, nil
}

// Bytes returns the identifier's bytes.
func (id AccountID) Bytes() []byte { return id[:] }

// MutableBytes exposes the underlying buffer for in-place writes.
// The returned slice must not be resized.
func (id *AccountID) MutableBytes() []byte { return id[:] }

// Encode returns the binary encoding, the raw fixed-width bytes.
func (id AccountID) Encode() []byte { return id[:] }

func (id AccountID) Len() int { return AccountIDLength }

func (id AccountID) Equal(o AccountID) bool { return id == o }

// Compare orders identifiers lexicographically by byte.
func (id AccountID) Compare(o AccountID) int { return compareBytes(id[:], o[:]) }

// Sum64 is a byte-wise hash, stable across processes.
func (id AccountID) Sum64() uint64 { return sum64(id[:]) }

func (id AccountID) IsZero() bool { return id == AccountID{} }

func (id AccountID) String() string { return hexString(id[:]) }

func (id AccountID) MarshalBinary() ([]byte, error) { return id.Bytes(), nil }

func (id *AccountID) UnmarshalBinary(data []byte) error {
	return copyExact("AccountID", id[:], data)
}

func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AccountID) UnmarshalText(text []byte) error {
	return parseHex("AccountID", id[:], text)
}

// Bytes returns the identifier's bytes.
func (id ShortAccountID) Bytes() []byte { return id[:] }

// MutableBytes exposes the underlying buffer for in-place writes.
func (id *ShortAccountID) MutableBytes() []byte { return id[:] }

func (id ShortAccountID) Encode() []byte { return id[:] }

func (id ShortAccountID) Len() int { return ShortAccountIDLength }

func (id ShortAccountID) Equal(o ShortAccountID) bool { return id == o }

func (id ShortAccountID) Compare(o ShortAccountID) int { return compareBytes(id[:], o[:]) }

func (id ShortAccountID) Sum64() uint64 { return sum64(id[:]) }

func (id ShortAccountID) IsZero() bool { return id == ShortAccountID{} }

func (id ShortAccountID) String() string { return hexString(id[:]) }

func (id ShortAccountID) MarshalBinary() ([]byte, error) { return id.Bytes(), nil }

func (id *ShortAccountID) UnmarshalBinary(data []byte) error {
	return copyExact("ShortAccountID", id[:], data)
}

func (id ShortAccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ShortAccountID) UnmarshalText(text []byte) error {
	return parseHex("ShortAccountID", id[:], text)
}
