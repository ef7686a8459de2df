// Package config loads crowdfundd settings from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings. Command-line flags override them.
type Config struct {
	ListenAddr  string `env:"CROWDFUND_LISTEN_ADDR" envDefault:"127.0.0.1:26658"`
	MetricsAddr string `env:"CROWDFUND_METRICS_ADDR" envDefault:"127.0.0.1:9464"`
	Environment string `env:"CROWDFUND_ENVIRONMENT" envDefault:"default"`
	LogLevel    string `env:"CROWDFUND_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"CROWDFUND_LOG_FORMAT" envDefault:"json"`

	// Genesis balance of the contract account.
	Endowment uint64 `env:"CROWDFUND_ENDOWMENT" envDefault:"1000000"`
	// Hex-encoded contract account; its width must match the binding.
	ContractAccount string `env:"CROWDFUND_CONTRACT_ACCOUNT"`
}

// Parse loads Config from environment variables.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ContractAccountBytes decodes ContractAccount, accepting an optional
// 0x prefix.
func (c Config) ContractAccountBytes() ([]byte, error) {
	s := strings.TrimPrefix(c.ContractAccount, "0x")
	if s == "" {
		return nil, fmt.Errorf("contract account not set")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("contract account: %w", err)
	}
	return b, nil
}
