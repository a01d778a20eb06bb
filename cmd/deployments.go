package cmd

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"github.com/staketoken/airdrop/pkg/manifest"
)

var deploymentsCmd = &cobra.Command{
	Use:   "deployments [network]",
	Short: "List the proxies recorded in the network manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network := config.DefaultNetwork
		if len(args) > 0 {
			network = args[0]
		}
		r, err := newRuntime(network)
		if err != nil {
			return err
		}
		defer r.close()

		n, err := r.cfg.GetNetwork(r.cfg.Network)
		if err != nil {
			return err
		}
		client := ethereum.NewClient(&ethereum.EthereumClientConfig{BaseUrl: r.cfg.GetRpcUrl(n)}, r.logger)

		m, err := manifest.Load(cmd.Context(), r.cfg.ProjectConfig.File, n, client)
		if err != nil {
			return err
		}

		deployments := m.Proxies()
		if len(deployments) == 0 {
			return manifest.ErrNoDeployment
		}
		return renderDeployments(cmd.OutOrStdout(), deployments)
	},
}

func renderDeployments(w io.Writer, deployments []*manifest.Deployment) error {
	table := tablewriter.NewWriter(w)
	table.Header("Contract", "Address", "Version", "Kind", "Implementation")
	for _, d := range deployments {
		if err := table.Append([]string{d.ContractName, d.Address, d.Version, d.Kind, d.Implementation}); err != nil {
			return err
		}
	}
	return table.Render()
}
