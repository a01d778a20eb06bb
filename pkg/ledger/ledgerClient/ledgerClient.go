package ledgerClient

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/airdrop"
	"github.com/staketoken/airdrop/pkg/contracts/token"
	"github.com/staketoken/airdrop/pkg/ledger"
	"go.uber.org/zap"
)

// LedgerClient runs the airdrop flow against a local ledger. It resolves deployments, binds
// the token and lists accounts the way the chain backed implementations do.
type LedgerClient struct {
	token    *ledger.Token
	accounts []common.Address
	logger   *zap.Logger
}

// NewLedgerClient returns a client over t. When accounts is empty the token owner is the only
// account.
func NewLedgerClient(t *ledger.Token, accounts []common.Address, l *zap.Logger) *LedgerClient {
	return &LedgerClient{
		token:    t,
		accounts: accounts,
		logger:   l,
	}
}

// Address is the address the ledger token is reported at: the contract address the owner
// would get for its first deployment.
func (lc *LedgerClient) Address(ctx context.Context) (common.Address, error) {
	owner, err := lc.token.Owner(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrNotInitialized) {
			return common.Address{}, airdrop.ErrNoDeployment
		}
		return common.Address{}, err
	}
	return crypto.CreateAddress(owner, 0), nil
}

func (lc *LedgerClient) ResolveContract(ctx context.Context, name string) (common.Address, error) {
	address, err := lc.Address(ctx)
	if err != nil {
		return common.Address{}, err
	}
	lc.logger.Sugar().Debugw("Resolved ledger token",
		zap.String("contract", name),
		zap.String("address", address.Hex()),
	)
	return address, nil
}

func (lc *LedgerClient) Bind(address common.Address) (airdrop.TokenClient, error) {
	expected, err := lc.Address(context.Background())
	if err != nil {
		return nil, err
	}
	if expected != address {
		return nil, fmt.Errorf("no ledger token at %s", address.Hex())
	}
	return lc, nil
}

func (lc *LedgerClient) Accounts(ctx context.Context) ([]common.Address, error) {
	if len(lc.accounts) > 0 {
		return lc.accounts, nil
	}
	owner, err := lc.token.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return []common.Address{owner}, nil
}

func (lc *LedgerClient) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return lc.token.BalanceOf(ctx, account)
}

// Airdrop applies the airdrop to the ledger. The transaction hash is the keccak256 of the
// sender, the airdrop calldata and the submission time.
func (lc *LedgerClient) Airdrop(ctx context.Context, tx *token.AirdropTx) (*token.AirdropReceipt, error) {
	tokenABI, err := token.ParsedABI()
	if err != nil {
		return nil, err
	}
	data, err := tokenABI.Pack("airdrop", tx.Amount, tx.Recipients)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack airdrop")
	}
	hash := crypto.Keccak256Hash(
		tx.From.Bytes(),
		data,
		binary.BigEndian.AppendUint64([]byte{}, uint64(time.Now().UnixNano())),
	)

	if tx.OnPending != nil {
		tx.OnPending()
	}
	receipt, err := lc.token.Airdrop(ctx, tx.From, tx.Amount, tx.Recipients)
	if err != nil {
		return nil, err
	}

	transfers := make([]*token.TransferEvent, 0, len(receipt.Events))
	for i, transfer := range receipt.Transfers() {
		transfers = append(transfers, &token.TransferEvent{
			From:     transfer.From,
			To:       transfer.To,
			Value:    transfer.Value,
			LogIndex: uint64(i),
		})
	}
	lc.logger.Sugar().Infow("Ledger airdrop applied",
		zap.String("hash", hash.Hex()),
		zap.Int("transfers", len(transfers)),
	)
	return &token.AirdropReceipt{
		TransactionHash: hash.Hex(),
		Transfers:       transfers,
	}, nil
}
