package cmd

import (
	"github.com/spf13/cobra"
	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/pkg/airdrop"
	"github.com/staketoken/airdrop/pkg/ledger/ledgerClient"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the airdrop against the local ledger database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRuntime("")
		if err != nil {
			return err
		}
		defer r.close()
		ctx := cmd.Context()

		tkn, s, _, err := openLedger(r)
		if err != nil {
			return err
		}
		defer s.Close()

		accounts, err := configuredAccounts(ctx, r.cfg, r.logger)
		if err != nil {
			return err
		}
		client := ledgerClient.NewLedgerClient(tkn, accounts, r.logger)

		req, err := airdropRequest(r.cfg, &config.NetworkConfig{Name: "ledger"})
		if err != nil {
			return err
		}
		req.Network = "ledger"

		_, err = airdrop.NewService(client, client, client, cmd.OutOrStdout(), r.metrics, r.logger).Run(ctx, req)
		return err
	},
}
