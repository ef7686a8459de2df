package env

import "errors"

// ErrNoChainExtension is returned by NoChainExtension.Call.
var ErrNoChainExtension = errors.New("env: no chain extension bound")

// ChainExtension is an optional hook for environment-specific host
// calls. The ID must match the extension the host runtime registers.
type ChainExtension interface {
	ID() uint16
	Call(funcID uint32, input []byte) ([]byte, error)
}

// NoChainExtension is the absent capability.
type NoChainExtension struct{}

func (NoChainExtension) ID() uint16 { return 0 }

func (NoChainExtension) Call(uint32, []byte) ([]byte, error) {
	return nil, ErrNoChainExtension
}
