package wallet

import (
	"fmt"

	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"go.uber.org/zap"
)

// NewWalletForNetwork picks the account provider of a network. Explicit private keys win over
// the wallet kind of the network.
func NewWalletForNetwork(network *config.NetworkConfig, cfg *config.WalletConfig, client *ethereum.Client, l *zap.Logger) (Wallet, error) {
	if len(cfg.PrivateKeys) > 0 {
		l.Sugar().Debugw("Using private key wallet", zap.Int("keys", len(cfg.PrivateKeys)))
		return NewKeyWalletFromHex(client, cfg.PrivateKeys, l)
	}

	switch network.GetWalletKind() {
	case config.WalletKind_Node:
		return NewNodeWallet(client, l), nil
	case config.WalletKind_HDWallet:
		if cfg.Mnemonic == "" {
			return nil, fmt.Errorf("MNEMONIC is required for network '%s'", network.Name)
		}
		l.Sugar().Debugw("Using HD wallet", zap.Int("accounts", cfg.AccountCount))
		return NewHDWallet(client, cfg.Mnemonic, cfg.AccountCount, l)
	default:
		return nil, fmt.Errorf("unsupported wallet kind '%s' for network '%s'", network.Wallet, network.Name)
	}
}
