package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
	"go.uber.org/zap"
)

// KeyWallet signs legacy transactions locally and submits them with eth_sendRawTransaction.
type KeyWallet struct {
	client    SignerClient
	logger    *zap.Logger
	keys      map[common.Address]*ecdsa.PrivateKey
	addresses []common.Address
}

func NewKeyWallet(client SignerClient, keys []*ecdsa.PrivateKey, l *zap.Logger) *KeyWallet {
	kw := &KeyWallet{
		client:    client,
		logger:    l,
		keys:      make(map[common.Address]*ecdsa.PrivateKey, len(keys)),
		addresses: make([]common.Address, 0, len(keys)),
	}
	for _, key := range keys {
		addr := crypto.PubkeyToAddress(key.PublicKey)
		if _, ok := kw.keys[addr]; ok {
			continue
		}
		kw.keys[addr] = key
		kw.addresses = append(kw.addresses, addr)
	}
	return kw
}

// NewKeyWalletFromHex parses hex encoded private keys, with or without the 0x prefix.
func NewKeyWalletFromHex(client SignerClient, hexKeys []string, l *zap.Logger) (*KeyWallet, error) {
	keys := make([]*ecdsa.PrivateKey, 0, len(hexKeys))
	for i, hexKey := range hexKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid private key at index %d", i)
		}
		keys = append(keys, key)
	}
	return NewKeyWallet(client, keys, l), nil
}

func (kw *KeyWallet) Accounts(_ context.Context) ([]common.Address, error) {
	accounts := make([]common.Address, len(kw.addresses))
	copy(accounts, kw.addresses)
	return accounts, nil
}

func (kw *KeyWallet) SendTransaction(ctx context.Context, req *TransactionRequest) (common.Hash, error) {
	key, ok := kw.keys[req.From]
	if !ok {
		return common.Hash{}, errors.Wrap(ErrUnknownAccount, req.From.Hex())
	}

	chainId, err := kw.client.ChainId(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get chain id")
	}
	nonce, err := kw.client.GetTransactionCount(ctx, req.From, ethereum.BlockPending)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to get nonce")
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		gasPrice, err = kw.client.GasPrice(ctx)
		if err != nil {
			return common.Hash{}, errors.Wrap(err, "failed to get gas price")
		}
	}
	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	to := req.To
	unsignedTx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      req.GasLimit,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})
	signedTx, err := types.SignTx(unsignedTx, types.LatestSignerForChainID(chainId), key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to sign transaction")
	}
	rawTx, err := signedTx.MarshalBinary()
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode transaction")
	}

	kw.logger.Sugar().Debugw("Sending signed transaction",
		zap.String("from", req.From.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("chainId", chainId.String()),
		zap.String("hash", signedTx.Hash().Hex()),
	)

	hash, err := kw.client.SendRawTransaction(ctx, rawTx)
	if err != nil {
		return common.Hash{}, err
	}
	if hash != signedTx.Hash() {
		kw.logger.Sugar().Warnw("Node returned an unexpected transaction hash",
			zap.String("expected", signedTx.Hash().Hex()),
			zap.String("actual", hash.Hex()),
		)
	}
	return hash, nil
}
