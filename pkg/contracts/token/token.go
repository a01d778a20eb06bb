package token

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"github.com/staketoken/airdrop/pkg/wallet"
	"go.uber.org/zap"
)

var ErrTransactionReverted = errors.New("transaction reverted")

type Caller interface {
	EthCall(ctx context.Context, args *ethereum.TransactionArgs) ([]byte, error)
}

type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, txHash string, interval time.Duration, timeout time.Duration, onPoll func()) (*ethereum.EthereumTransactionReceipt, error)
}

type AirdropTx struct {
	From       common.Address
	Amount     *big.Int
	Recipients []common.Address
	GasLimit   uint64
	GasPrice   *big.Int

	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	// OnPending is invoked while the transaction waits to be mined
	OnPending func()
}

type AirdropReceipt struct {
	TransactionHash string
	BlockNumber     uint64
	Transfers       []*TransferEvent
}

// Token is a typed client of a deployed token contract.
type Token struct {
	address  common.Address
	abi      abi.ABI
	caller   Caller
	wallet   wallet.Wallet
	receipts ReceiptWaiter
	logger   *zap.Logger
}

func NewToken(address common.Address, caller Caller, w wallet.Wallet, receipts ReceiptWaiter, l *zap.Logger) (*Token, error) {
	tokenABI, err := ParsedABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token abi")
	}
	return &Token{
		address:  address,
		abi:      tokenABI,
		caller:   caller,
		wallet:   w,
		receipts: receipts,
		logger:   l,
	}, nil
}

func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}
	to := t.address
	res, err := t.caller.EthCall(ctx, &ethereum.TransactionArgs{
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, err
	}
	values, err := t.abi.Unpack(method, res)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func (t *Token) callBigInt(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := t.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s return type %T", method, values[0])
	}
	return v, nil
}

func (t *Token) callString(ctx context.Context, method string) (string, error) {
	values, err := t.call(ctx, method)
	if err != nil {
		return "", err
	}
	v, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s return type %T", method, values[0])
	}
	return v, nil
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBigInt(ctx, "balanceOf", account)
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBigInt(ctx, "totalSupply")
}

func (t *Token) StakeOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBigInt(ctx, "stakeOf", account)
}

func (t *Token) RewardOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBigInt(ctx, "rewardOf", account)
}

func (t *Token) Name(ctx context.Context) (string, error) {
	return t.callString(ctx, "name")
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	values, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals return type %T", values[0])
	}
	return v, nil
}

// Airdrop sends amount to every recipient in one transaction, waits until it is mined and
// returns the Transfer events it emitted.
func (t *Token) Airdrop(ctx context.Context, tx *AirdropTx) (*AirdropReceipt, error) {
	data, err := t.abi.Pack("airdrop", tx.Amount, tx.Recipients)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack airdrop")
	}

	hash, err := t.wallet.SendTransaction(ctx, &wallet.TransactionRequest{
		From:     tx.From,
		To:       t.address,
		Data:     data,
		GasLimit: tx.GasLimit,
		GasPrice: tx.GasPrice,
	})
	if err != nil {
		return nil, err
	}
	t.logger.Sugar().Infow("Airdrop transaction submitted",
		zap.String("hash", hash.Hex()),
		zap.Int("recipients", len(tx.Recipients)),
	)

	receipt, err := t.receipts.WaitForReceipt(ctx, hash.Hex(), tx.ReceiptPollInterval, tx.ReceiptTimeout, tx.OnPending)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, errors.Wrap(ErrTransactionReverted, hash.Hex())
	}

	transfers, err := ParseTransferEvents(t.address, receipt.Logs)
	if err != nil {
		return nil, err
	}
	return &AirdropReceipt{
		TransactionHash: hash.Hex(),
		BlockNumber:     receipt.BlockNumber.Value(),
		Transfers:       transfers,
	}, nil
}
