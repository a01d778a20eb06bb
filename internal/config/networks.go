package config

import (
	"fmt"
	"strings"
)

type WalletKind string

const (
	// WalletKind_Node uses the unlocked accounts managed by the node itself
	WalletKind_Node WalletKind = "node"
	// WalletKind_HDWallet derives accounts from MNEMONIC and signs locally
	WalletKind_HDWallet WalletKind = "hdwallet"
)

// AnyNetworkId accepts whatever network the node reports.
const AnyNetworkId = "*"

const infuraProjectIdPlaceholder = "${INFURA_PROJECT_ID}"

type NetworkConfig struct {
	Name      string     `mapstructure:"-"`
	Protocol  string     `mapstructure:"protocol"`
	Host      string     `mapstructure:"host"`
	Port      int        `mapstructure:"port"`
	Url       string     `mapstructure:"url"`
	Gas       uint64     `mapstructure:"gas"`
	GasPrice  uint64     `mapstructure:"gas_price"`
	NetworkId string     `mapstructure:"network_id"`
	Wallet    WalletKind `mapstructure:"wallet"`
}

func DefaultNetworks() map[string]*NetworkConfig {
	return map[string]*NetworkConfig{
		"development": {
			Name:      "development",
			Protocol:  "http",
			Host:      "localhost",
			Port:      8545,
			Gas:       5000000,
			GasPrice:  5e9,
			NetworkId: AnyNetworkId,
			Wallet:    WalletKind_Node,
		},
		"rinkeby": {
			Name:      "rinkeby",
			Url:       "https://rinkeby.infura.io/v3/" + infuraProjectIdPlaceholder,
			GasPrice:  10e9,
			NetworkId: "4",
			Wallet:    WalletKind_HDWallet,
		},
		"mainnet": {
			Name:      "mainnet",
			Url:       "https://mainnet.infura.io/v3/" + infuraProjectIdPlaceholder,
			NetworkId: "1",
			Wallet:    WalletKind_HDWallet,
		},
	}
}

func (n *NetworkConfig) RpcUrl(infuraProjectId string) string {
	if n.Url != "" {
		return strings.ReplaceAll(n.Url, infuraProjectIdPlaceholder, infuraProjectId)
	}
	protocol := n.Protocol
	if protocol == "" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s:%d", protocol, n.Host, n.Port)
}

func (n *NetworkConfig) AcceptsAnyNetworkId() bool {
	return n.NetworkId == "" || n.NetworkId == AnyNetworkId
}

func (n *NetworkConfig) GetWalletKind() WalletKind {
	if n.Wallet == "" {
		return WalletKind_Node
	}
	return n.Wallet
}
