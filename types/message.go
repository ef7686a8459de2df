package types

// MessageKind selects the contract message a transaction invokes.
type MessageKind uint8

const (
	MsgCreateCrowdfund MessageKind = 1
	MsgDonate          MessageKind = 2
)

func (k MessageKind) String() string {
	switch k {
	case MsgCreateCrowdfund:
		return "create_crowdfund"
	case MsgDonate:
		return "donate"
	default:
		return "unknown"
	}
}

// Message is the decoded form of a Tx. Account fields carry raw
// identifier bytes and are validated against the environment binding.
type Message struct {
	Kind   MessageKind `cramberry:"1"`
	Caller []byte      `cramberry:"2"`
	// create_crowdfund
	Name   string `cramberry:"3"`
	Reason string `cramberry:"4"`
	Amount uint64 `cramberry:"5"`
	// donate: campaign owner and transferred value.
	Owner []byte `cramberry:"6"`
	Value uint64 `cramberry:"7"`
}

// FundView is the wire form of a campaign record. Balances carry the
// environment's fixed-width little-endian encoding.
type FundView struct {
	Owner        []byte   `cramberry:"1"`
	ID           uint64   `cramberry:"2"`
	Name         string   `cramberry:"3"`
	Reason       string   `cramberry:"4"`
	AmountNeeded []byte   `cramberry:"5"`
	AmountGotten []byte   `cramberry:"6"`
	Completed    bool     `cramberry:"7"`
	Donors       [][]byte `cramberry:"8"`
}

// FundList is the result of list queries.
type FundList struct {
	Funds []FundView `cramberry:"1"`
}

// LedgerEntry is one account balance.
type LedgerEntry struct {
	Account []byte `cramberry:"1"`
	Amount  []byte `cramberry:"2"`
}

// ContractState is the full, canonically ordered state of a contract
// host. It is the app-hash preimage and the snapshot payload.
type ContractState struct {
	Height          uint64        `cramberry:"1"`
	ContractAccount []byte        `cramberry:"2"`
	NextID          uint64        `cramberry:"3"`
	Owners          []FundView    `cramberry:"4"`
	All             []FundView    `cramberry:"5"`
	Successful      []FundView    `cramberry:"6"`
	Ledger          []LedgerEntry `cramberry:"7"`
	// Time of the block at Height.
	Time Timestamp `cramberry:"8"`
}
