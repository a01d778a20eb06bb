package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
)

var ErrUnknownAccount = errors.New("account is not managed by this wallet")

// TransactionRequest describes a contract call to be signed and submitted. A nil GasPrice
// leaves the price to the node.
type TransactionRequest struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// Wallet provides operator accounts and submits transactions on their behalf.
type Wallet interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req *TransactionRequest) (common.Hash, error)
}

// NodeClient is the part of the JSON-RPC client used by node-managed accounts.
type NodeClient interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, args *ethereum.TransactionArgs) (common.Hash, error)
}

// SignerClient is the part of the JSON-RPC client used when signing locally.
type SignerClient interface {
	ChainId(ctx context.Context) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	GetTransactionCount(ctx context.Context, address common.Address, block string) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error)
}
