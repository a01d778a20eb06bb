package ledgerClient

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/staketoken/airdrop/pkg/airdrop"
	"github.com/staketoken/airdrop/pkg/ledger"
	"github.com/staketoken/airdrop/pkg/ledger/store"
	"github.com/staketoken/airdrop/pkg/types/numbers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")
	alice = common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")
	bob   = common.HexToAddress("0x22d491Bde2303f2f43325b2108D26f1eAbA1e32b")
)

func setup(t *testing.T, initialize bool) (*ledger.Token, *LedgerClient) {
	l := tests.GetLogger()
	tkn := ledger.NewToken(store.NewMemoryStore(), ledger.NewManualClock(1700000000), nil, nil, l)
	if initialize {
		_, err := tkn.Initialize(context.Background(), &ledger.InitializeParams{
			Name:          "Token",
			Symbol:        "TKN",
			Decimals:      18,
			InitialSupply: numbers.Tokens(1000, 18),
			Owner:         owner,
			HoldPeriod:    120,
			AnnualPercent: 12,
			AnnualPeriod:  600,
		})
		require.Nil(t, err)
	}
	return tkn, NewLedgerClient(tkn, nil, l)
}

func Test_LedgerClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report no deployment before initialization", func(t *testing.T) {
		_, client := setup(t, false)
		_, err := client.ResolveContract(ctx, "Token")
		assert.ErrorIs(t, err, airdrop.ErrNoDeployment)
	})
	t.Run("Should resolve and bind the ledger token", func(t *testing.T) {
		_, client := setup(t, true)
		address, err := client.ResolveContract(ctx, "Token")
		require.Nil(t, err)
		assert.Equal(t, crypto.CreateAddress(owner, 0), address)

		_, err = client.Bind(address)
		assert.Nil(t, err)
		_, err = client.Bind(alice)
		assert.NotNil(t, err)

		accounts, err := client.Accounts(ctx)
		require.Nil(t, err)
		assert.Equal(t, []common.Address{owner}, accounts)
	})
	t.Run("Should run the airdrop flow against the ledger", func(t *testing.T) {
		tkn, client := setup(t, true)
		path := filepath.Join(t.TempDir(), "recipients.txt")
		require.Nil(t, os.WriteFile(path, []byte(alice.Hex()+"\ninvalid\n"+bob.Hex()+"\n"), 0644))

		out := &bytes.Buffer{}
		service := airdrop.NewService(client, client, client, out, nil, tests.GetLogger())
		result, err := service.Run(ctx, &airdrop.Request{
			Network:        "ledger",
			ContractName:   "Token",
			RecipientsFile: path,
			Amount:         numbers.Tokens(10, 18),
		})
		require.Nil(t, err)
		assert.Equal(t, 2, result.TransferCount)
		assert.Len(t, result.TransactionHash, 66)
		assert.Contains(t, out.String(), "Tokens transferred to 2 recipients\n")

		balance, err := tkn.BalanceOf(ctx, bob)
		require.Nil(t, err)
		assert.Equal(t, 0, numbers.Tokens(10, 18).Cmp(balance))
	})
	t.Run("Should leave the ledger untouched when the airdrop reverts", func(t *testing.T) {
		tkn, client := setup(t, true)
		path := filepath.Join(t.TempDir(), "recipients.txt")
		require.Nil(t, os.WriteFile(path, []byte(alice.Hex()+"\n"+bob.Hex()+"\n"), 0644))

		service := airdrop.NewService(client, client, client, &bytes.Buffer{}, nil, tests.GetLogger())
		_, err := service.Run(ctx, &airdrop.Request{
			RecipientsFile: path,
			Amount:         numbers.Tokens(600, 18),
		})
		assert.ErrorIs(t, err, ledger.ErrTransferExceedsBalance)

		balance, err := tkn.BalanceOf(ctx, alice)
		require.Nil(t, err)
		assert.Equal(t, 0, balance.Cmp(big.NewInt(0)))
	})
}
