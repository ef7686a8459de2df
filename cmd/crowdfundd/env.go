package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/internal/config"
)

func newEnvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the environment binding and its host compatibility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch cfg.Environment {
			case "default":
				return describe(w, env.NewDefault())
			case "custom":
				return describe(w, env.NewCustom())
			case "compact":
				return describe(w, env.NewCompact())
			default:
				return fmt.Errorf("unknown environment %q", cfg.Environment)
			}
		},
	}
}

func describe[A env.Identifier[A], B env.Balance[B], H env.ClearableHash[H], T env.Numeric[T], N env.Numeric[N]](
	w io.Writer, e env.Environment[A, B, H, T, N],
) error {
	if err := env.Validate(e); err != nil {
		return err
	}
	d := env.Describe(e)
	fmt.Fprintf(w, "environment      %s\n", d.Name)
	fmt.Fprintf(w, "account id       %d bytes\n", d.AccountIDLength)
	fmt.Fprintf(w, "balance          %d bytes\n", d.BalanceLength)
	fmt.Fprintf(w, "hash             %d bytes\n", d.HashLength)
	fmt.Fprintf(w, "timestamp        %d bytes\n", d.TimestampLength)
	fmt.Fprintf(w, "block number     %d bytes\n", d.BlockNumLength)
	fmt.Fprintf(w, "max topics       %d\n", d.MaxEventTopics)
	fmt.Fprintf(w, "chain extension  %d\n", d.ChainExtensionID)

	p := env.SubstrateProfile
	if err := env.CheckCompatibility(e, p); err != nil {
		fmt.Fprintf(w, "%s host       incompatible: %v\n", p.Name, err)
	} else {
		fmt.Fprintf(w, "%s host       compatible\n", p.Name)
	}
	return nil
}
