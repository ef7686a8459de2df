package types

// GenesisDoc is the raw genesis document.
type GenesisDoc struct {
	ChainID       string    `cramberry:"1"`
	GenesisTime   Timestamp `cramberry:"2"`
	InitialHeight uint64    `cramberry:"3"`
	// Cramberry-encoded GenesisState. Empty = no endowment.
	AppState []byte `cramberry:"4"`
}

// GenesisAccount is an initial ledger balance.
type GenesisAccount struct {
	Account []byte `cramberry:"1"`
	Balance uint64 `cramberry:"2"`
}

// GenesisState seeds the contract host: the contract's own account
// and the initial balances (the contract's endowment included).
type GenesisState struct {
	ContractAccount []byte           `cramberry:"1"`
	Accounts        []GenesisAccount `cramberry:"2"`
}
