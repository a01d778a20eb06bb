package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/internal/shutdown"
	"github.com/staketoken/airdrop/pkg/airdrop"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"github.com/staketoken/airdrop/pkg/contracts/token"
	"github.com/staketoken/airdrop/pkg/manifest"
	"github.com/staketoken/airdrop/pkg/types/numbers"
	"github.com/staketoken/airdrop/pkg/wallet"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run [network]",
	Short: "Send one airdrop transaction to every recipient in the recipients file",
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

		ctx, stop := shutdown.WithGracefulShutdown(cmd.Context(), r.logger)
		defer stop()

		return runAirdrop(ctx, r, cmd)
	},
}

type chainBinder struct {
	client *ethereum.Client
	wallet wallet.Wallet
	logger *zap.Logger
}

func (b *chainBinder) Bind(address common.Address) (airdrop.TokenClient, error) {
	return token.NewToken(address, b.client, b.wallet, b.client, b.logger)
}

func checkNetworkId(ctx context.Context, network *config.NetworkConfig, client *ethereum.Client) error {
	if network.AcceptsAnyNetworkId() {
		return nil
	}
	id, err := client.NetVersion(ctx)
	if err != nil {
		return err
	}
	if id != network.NetworkId {
		return fmt.Errorf("network '%s' expects network id %s but the node reports %s", network.Name, network.NetworkId, id)
	}
	return nil
}

func gasPrice(cfg *config.Config, network *config.NetworkConfig) (*big.Int, error) {
	if cfg.AirdropConfig.GasPrice != "" {
		return numbers.ParseBaseUnits(cfg.AirdropConfig.GasPrice)
	}
	if network.GasPrice > 0 {
		return new(big.Int).SetUint64(network.GasPrice), nil
	}
	return nil, nil
}

// airdropRequest builds the service request from the configuration.
func airdropRequest(cfg *config.Config, network *config.NetworkConfig) (*airdrop.Request, error) {
	amount, err := numbers.ParseBaseUnits(cfg.AirdropConfig.Amount)
	if err != nil {
		return nil, err
	}
	price, err := gasPrice(cfg, network)
	if err != nil {
		return nil, err
	}
	return &airdrop.Request{
		Network:             cfg.Network,
		ContractName:        cfg.ProjectConfig.ContractName,
		RecipientsFile:      cfg.AirdropConfig.RecipientsFile,
		AccountId:           cfg.AirdropConfig.AccountId,
		Amount:              amount,
		GasLimit:            cfg.AirdropConfig.GasLimit,
		GasPrice:            price,
		StrictBalanceCheck:  cfg.AirdropConfig.StrictBalanceCheck,
		ReceiptTimeout:      cfg.AirdropConfig.ReceiptTimeout,
		ReceiptPollInterval: cfg.AirdropConfig.ReceiptPollInterval,
		ReportFile:          cfg.AirdropConfig.ReportFile,
	}, nil
}

func runAirdrop(ctx context.Context, r *runtime, cmd *cobra.Command) error {
	network, err := r.cfg.GetNetwork(r.cfg.Network)
	if err != nil {
		return err
	}
	rpcUrl := r.cfg.GetRpcUrl(network)
	r.logger.Sugar().Debugw("Using network",
		zap.String("network", network.Name),
		zap.String("rpcUrl", rpcUrl),
	)

	client := ethereum.NewClient(&ethereum.EthereumClientConfig{BaseUrl: rpcUrl}, r.logger)
	if err := checkNetworkId(ctx, network, client); err != nil {
		return err
	}

	w, err := wallet.NewWalletForNetwork(network, &r.cfg.WalletConfig, client, r.logger)
	if err != nil {
		return err
	}

	req, err := airdropRequest(r.cfg, network)
	if err != nil {
		return err
	}

	resolver := manifest.NewResolver(r.cfg.ProjectConfig.File, network, client, r.logger)
	service := airdrop.NewService(
		resolver,
		&chainBinder{client: client, wallet: w, logger: r.logger},
		w,
		cmd.OutOrStdout(),
		r.metrics,
		r.logger,
	)
	service.EnableSpinner(os.Stderr)

	_, err = service.Run(ctx, req)
	return err
}
