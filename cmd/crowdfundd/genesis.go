package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/spf13/cobra"

	"github.com/blockberries/crowdfund/internal/config"
	"github.com/blockberries/crowdfund/types"
)

func newGenesisCmd(cfg *config.Config) *cobra.Command {
	var accounts []string
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Print the hex-encoded genesis app state",
		Long: `Prints the cramberry-encoded app state to place in the node's genesis
document. The contract account receives the endowment; each --account
0x<hex>=<amount> adds a funded account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gs, err := genesisState(*cfg, accounts)
			if err != nil {
				return err
			}
			data, err := cramberry.Marshal(gs)
			if err != nil {
				return fmt.Errorf("cramberry marshal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ContractAccount, "contract-account", cfg.ContractAccount, "hex contract account")
	cmd.Flags().Uint64Var(&cfg.Endowment, "endowment", cfg.Endowment, "contract account genesis balance")
	cmd.Flags().StringSliceVar(&accounts, "account", nil, "funded account as 0x<hex>=<amount> (repeatable)")
	return cmd
}

func genesisState(cfg config.Config, accounts []string) (types.GenesisState, error) {
	self, err := cfg.ContractAccountBytes()
	if err != nil {
		return types.GenesisState{}, err
	}
	gs := types.GenesisState{
		ContractAccount: self,
		Accounts:        []types.GenesisAccount{{Account: self, Balance: cfg.Endowment}},
	}
	seen := map[string]string{hex.EncodeToString(self): "the contract account (use --endowment)"}
	for _, entry := range accounts {
		acct, amount, ok := strings.Cut(entry, "=")
		if !ok {
			return types.GenesisState{}, fmt.Errorf("account %q: want 0x<hex>=<amount>", entry)
		}
		b, err := hex.DecodeString(strings.TrimPrefix(acct, "0x"))
		if err != nil {
			return types.GenesisState{}, fmt.Errorf("account %q: %w", entry, err)
		}
		if prev, dup := seen[hex.EncodeToString(b)]; dup {
			return types.GenesisState{}, fmt.Errorf("account %q: already funded as %s", entry, prev)
		}
		seen[hex.EncodeToString(b)] = fmt.Sprintf("%q", entry)
		n, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return types.GenesisState{}, fmt.Errorf("account %q: %w", entry, err)
		}
		gs.Accounts = append(gs.Accounts, types.GenesisAccount{Account: b, Balance: n})
	}
	return gs, nil
}
