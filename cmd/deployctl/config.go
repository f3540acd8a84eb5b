package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lending-deploy/display"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		Short:   "Validates the deployment address book",
		Example: "deployctl validate -c bsc_mainnet.json --strict",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			display.Success(cmd.OutOrStdout(), "configuration is valid: %d addresses, %d markets, %d pools",
				len(conf.Addresses()), len(conf.MoneyMarket.Markets), len(conf.MiniFL.Pools))

			return nil
		},
	}
}

func newTiersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Lists the asset tiers and their numeric codes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			display.Tiers(cmd.OutOrStdout())
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show [market]",
		Short:   "Prints the address book, or a single market",
		Example: "deployctl show -c bsc_mainnet.json WBNB",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				display.Config(cmd.OutOrStdout(), conf)

				return nil
			}

			m, ok := conf.MoneyMarket.Market(args[0])
			if !ok {
				return fmt.Errorf("market %q not found", args[0])
			}
			// tier 是自由文本，只有标准标签才显示编码
			tierLabel := m.Tier
			if tier, err := m.AssetTier(); err == nil {
				tierLabel = fmt.Sprintf("%s (%d)", tier, tier)
			}

			display.Section(cmd.OutOrStdout(), "market "+m.Name)
			display.Fields(cmd.OutOrStdout(),
				[2]string{"tier", tierLabel},
				[2]string{"token", m.Token},
				[2]string{"ibToken", m.IBToken},
				[2]string{"debtToken", m.DebtToken},
				[2]string{"interestModel", m.InterestModel},
			)

			return nil
		},
	}
}
