package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"go.uber.org/zap"
)

// NodeWallet relies on accounts unlocked on the node, e.g. a local development chain.
type NodeWallet struct {
	client NodeClient
	logger *zap.Logger
}

func NewNodeWallet(client NodeClient, l *zap.Logger) *NodeWallet {
	return &NodeWallet{
		client: client,
		logger: l,
	}
}

func (nw *NodeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return nw.client.Accounts(ctx)
}

func (nw *NodeWallet) SendTransaction(ctx context.Context, req *TransactionRequest) (common.Hash, error) {
	from := req.From
	to := req.To
	args := &ethereum.TransactionArgs{
		From: &from,
		To:   &to,
		Data: req.Data,
	}
	if req.GasLimit > 0 {
		gas := hexutil.Uint64(req.GasLimit)
		args.Gas = &gas
	}
	if req.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(req.GasPrice)
	}
	if req.Value != nil {
		args.Value = (*hexutil.Big)(req.Value)
	}

	nw.logger.Sugar().Debugw("Sending transaction through node account",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("gas", req.GasLimit),
	)
	return nw.client.SendTransaction(ctx, args)
}
