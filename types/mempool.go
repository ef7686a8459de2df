package types

// MempoolContext tells the application whether a transaction is
// being seen for the first time or re-validated.
type MempoolContext uint8

const (
	MempoolFirstSeen    MempoolContext = 1
	MempoolRevalidation MempoolContext = 2
)

// GateVerdict is the application's mempool admission decision.
type GateVerdict struct {
	// 0 = admitted. Non-zero = rejected.
	Code uint32 `cramberry:"1"`
	Info string `cramberry:"2"`
	// Higher = first.
	Priority int64 `cramberry:"3"`
	// Caller account, hex-encoded.
	Sender string `cramberry:"4"`
}

// Accepted returns true if the transaction was admitted.
func (v GateVerdict) Accepted() bool { return v.Code == 0 }
