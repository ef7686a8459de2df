package types

// Event is a contract-emitted event. Topics are the indexed fields,
// each already encoded into the environment's hash width; Data holds
// the concatenated non-indexed fields.
type Event struct {
	Kind   string   `cramberry:"1"`
	Topics [][]byte `cramberry:"2"`
	Data   []byte   `cramberry:"3"`
}
