// Command crowdfundd hosts the crowdfund contract behind the gRPC
// ContractHost service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockberries/crowdfund/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, cfgErr := config.Parse()

	root := &cobra.Command{
		Use:           "crowdfundd",
		Short:         "Crowdfund contract host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cfgErr
		},
	}
	root.PersistentFlags().StringVar(&cfg.Environment, "environment", cfg.Environment, "environment binding: default|custom|compact")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json|console")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newEnvCmd(&cfg))
	root.AddCommand(newGenesisCmd(&cfg))
	return root
}
