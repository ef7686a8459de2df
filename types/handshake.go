package types

// HandshakeRequest is sent by the host node on every startup.
type HandshakeRequest struct {
	// The last block the node committed. Nil = genesis.
	LastCommitted *BlockID `cramberry:"1"`
	// Only set when LastCommitted is nil.
	Genesis *GenesisDoc `cramberry:"2"`
}

// HandshakeResponse reports the application's state and capabilities.
type HandshakeResponse struct {
	// The last block the application committed. Nil = no state.
	LastBlock *BlockID `cramberry:"1"`
	AppHash   *AppHash `cramberry:"2"`
	// Capabilities this application supports.
	Capabilities Capabilities `cramberry:"3"`
}
