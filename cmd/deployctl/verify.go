package main

import (
	"errors"

	"github.com/spf13/cobra"

	"lending-deploy/chain"
	"lending-deploy/connpool"
	"lending-deploy/display"
)

var ErrVerifyFailed = errors.New("address book does not match the chain")

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "verify",
		Short:   "Checks that every address in the book has contract code",
		Example: "deployctl verify -c bsc_mainnet.json --rpc https://bsc-dataseed.binance.org",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			url, err := rpcURL(cmd)
			if err != nil {
				return err
			}

			logger := newLogger(cmd)
			registry := connpool.NewRegistry(cmd.Context(), maxConnections, connpool.WithLogger(logger))
			defer registry.Close()

			report, err := chain.NewVerifier(registry.Get(url), logger).Verify(cmd.Context(), conf)
			if err != nil {
				return err
			}

			display.Report(cmd.OutOrStdout(), report)
			if !report.OK() {
				return ErrVerifyFailed
			}

			return nil
		},
	}

	cmd.Flags().String(flagRPC, "", "JSON-RPC url of the network node.")

	return cmd
}
