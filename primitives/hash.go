package primitives

// HashLength is the width of a content hash.
const HashLength = 32

// Hash is a 32-byte content hash. The all-zero value is the clear
// sentinel: environments use it for "no hash set" instead of an
// optional wrapper, so code that depends on presence must call IsClear.
type Hash [HashLength]byte

// ClearHash returns the all-zero sentinel.
func ClearHash() Hash { return Hash{} }

// HashFromBytes converts b into a Hash. It fails unless b is exactly
// HashLength bytes long.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if err := copyExact("Hash", h[:], b); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// IsClear reports whether h is the clear sentinel.
func (h Hash) IsClear() bool { return h == ClearHash() }

func (h Hash) Bytes() []byte { return h[:] }

// MutableBytes exposes the underlying buffer for in-place writes.
func (h *Hash) MutableBytes() []byte { return h[:] }

func (h Hash) Encode() []byte { return h[:] }

func (h Hash) Len() int { return HashLength }

func (h Hash) Equal(o Hash) bool { return h == o }

func (h Hash) Compare(o Hash) int { return compareBytes(h[:], o[:]) }

func (h Hash) Sum64() uint64 { return sum64(h[:]) }

func (h Hash) String() string { return hexString(h[:]) }

func (h Hash) MarshalBinary() ([]byte, error) { return h.Bytes(), nil }

func (h *Hash) UnmarshalBinary(data []byte) error {
	return copyExact("Hash", h[:], data)
}

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	return parseHex("Hash", h[:], text)
}
