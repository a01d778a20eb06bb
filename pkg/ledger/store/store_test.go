package store

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	internalSqlite "github.com/staketoken/airdrop/internal/sqlite"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/staketoken/airdrop/internal/tests/sqlite"
	"github.com/staketoken/airdrop/pkg/ledger/store/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	bob   = common.HexToAddress("0x0bbb000000000000000000000000000000000002")
)

func getStores(t *testing.T) map[string]Store {
	l := tests.GetLogger()
	grm, err := sqlite.GetInMemorySqliteDatabaseConnection(l)
	require.Nil(t, err)

	gs, err := NewGormStore(grm, l)
	require.Nil(t, err)
	t.Cleanup(func() { _ = gs.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   gs,
	}
}

func Test_Stores(t *testing.T) {
	ctx := context.Background()

	for name, s := range getStores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			t.Run("Should return zero values for unknown accounts", func(t *testing.T) {
				err := s.View(ctx, func(tx Tx) error {
					params, err := tx.GetParams()
					require.Nil(t, err)
					assert.Nil(t, params)

					balance, err := tx.GetBalance(alice)
					require.Nil(t, err)
					assert.Equal(t, 0, balance.Sign())

					stake, err := tx.GetStake(alice)
					require.Nil(t, err)
					assert.Nil(t, stake)

					minter, err := tx.IsMinter(alice)
					require.Nil(t, err)
					assert.False(t, minter)
					return nil
				})
				require.Nil(t, err)
			})
			t.Run("Should persist committed writes", func(t *testing.T) {
				err := s.Update(ctx, func(tx Tx) error {
					require.Nil(t, tx.PutParams(&TokenParams{
						Name:          "Token",
						Symbol:        "TKN",
						Decimals:      18,
						Owner:         alice,
						TotalSupply:   big.NewInt(1000),
						BasePeriod:    30,
						HoldPeriod:    120,
						AnnualPercent: 12,
						AnnualPeriod:  600,
					}))
					require.Nil(t, tx.SetBalance(alice, big.NewInt(900)))
					require.Nil(t, tx.SetBalance(bob, big.NewInt(100)))
					require.Nil(t, tx.SetAllowance(alice, bob, big.NewInt(5)))
					require.Nil(t, tx.SetMinter(alice, true))
					require.Nil(t, tx.SetMinter(alice, true))
					return tx.PutStake(&Stake{Staker: bob, Amount: big.NewInt(50), StartTime: 10, Reward: big.NewInt(0)})
				})
				require.Nil(t, err)

				err = s.View(ctx, func(tx Tx) error {
					params, err := tx.GetParams()
					require.Nil(t, err)
					require.NotNil(t, params)
					assert.Equal(t, "TKN", params.Symbol)
					assert.Equal(t, uint8(18), params.Decimals)
					assert.Equal(t, alice, params.Owner)
					assert.Equal(t, big.NewInt(1000), params.TotalSupply)
					assert.Equal(t, uint64(600), params.AnnualPeriod)

					balance, _ := tx.GetBalance(alice)
					assert.Equal(t, big.NewInt(900), balance)
					allowance, _ := tx.GetAllowance(alice, bob)
					assert.Equal(t, big.NewInt(5), allowance)
					minter, _ := tx.IsMinter(alice)
					assert.True(t, minter)

					stake, err := tx.GetStake(bob)
					require.Nil(t, err)
					require.NotNil(t, stake)
					assert.Equal(t, big.NewInt(50), stake.Amount)
					assert.Equal(t, uint64(10), stake.StartTime)
					assert.False(t, stake.Cancelled())
					return nil
				})
				require.Nil(t, err)
			})
			t.Run("Should roll back when the update fails", func(t *testing.T) {
				boom := errors.New("boom")
				err := s.Update(ctx, func(tx Tx) error {
					require.Nil(t, tx.SetBalance(alice, big.NewInt(1)))
					require.Nil(t, tx.DeleteStake(bob))
					return boom
				})
				assert.True(t, errors.Is(err, boom))

				err = s.View(ctx, func(tx Tx) error {
					balance, _ := tx.GetBalance(alice)
					assert.Equal(t, big.NewInt(900), balance)
					stake, _ := tx.GetStake(bob)
					assert.NotNil(t, stake)
					return nil
				})
				require.Nil(t, err)
			})
			t.Run("Should refuse writes in a view", func(t *testing.T) {
				err := s.View(ctx, func(tx Tx) error {
					return tx.SetBalance(alice, big.NewInt(1))
				})
				assert.True(t, errors.Is(err, ErrReadOnly))
			})
			t.Run("Should list entries ordered by address", func(t *testing.T) {
				err := s.Update(ctx, func(tx Tx) error {
					require.Nil(t, tx.SetAllowance(alice, bob, big.NewInt(0)))
					return tx.SetMinter(bob, true)
				})
				require.Nil(t, err)

				err = s.View(ctx, func(tx Tx) error {
					balances, err := tx.ListBalances()
					require.Nil(t, err)
					require.Len(t, balances, 2)
					assert.Equal(t, bob, balances[0].Address)
					assert.Equal(t, alice, balances[1].Address)

					allowances, err := tx.ListAllowances()
					require.Nil(t, err)
					assert.Len(t, allowances, 0)

					minters, err := tx.ListMinters()
					require.Nil(t, err)
					assert.Equal(t, []common.Address{bob, alice}, minters)

					stakes, err := tx.ListStakes()
					require.Nil(t, err)
					require.Len(t, stakes, 1)
					assert.Equal(t, bob, stakes[0].Staker)
					return nil
				})
				require.Nil(t, err)
			})
			t.Run("Should drop zero balances", func(t *testing.T) {
				err := s.Update(ctx, func(tx Tx) error {
					return tx.SetBalance(bob, big.NewInt(0))
				})
				require.Nil(t, err)
				err = s.View(ctx, func(tx Tx) error {
					balances, _ := tx.ListBalances()
					assert.Len(t, balances, 1)
					return nil
				})
				require.Nil(t, err)
			})
		})
	}
}

func Test_Migrations(t *testing.T) {
	l := tests.GetLogger()

	t.Run("Should record every migration once on sqlite", func(t *testing.T) {
		grm, err := sqlite.GetInMemorySqliteDatabaseConnection(l)
		require.Nil(t, err)

		_, err = NewGormStore(grm, l)
		require.Nil(t, err)
		// a second run finds the recorded migrations
		_, err = NewGormStore(grm, l)
		require.Nil(t, err)

		records := make([]*migrations.Migrations, 0)
		require.Nil(t, grm.Order("name asc").Find(&records).Error)
		require.Len(t, records, 2)
		assert.Equal(t, "202501141200_ledgerTables", records[0].Name)
		assert.Equal(t, "202501141230_ledgerStakes", records[1].Name)
		for _, r := range records {
			assert.False(t, r.CreatedAt.IsZero())
		}
	})
	t.Run("Should reopen a file database and keep its state", func(t *testing.T) {
		path, grm, err := sqlite.GetFileBasedSqliteDatabaseConnection(l)
		require.Nil(t, err)
		t.Cleanup(func() { sqlite.DeleteTestSqliteDB(path) })

		gs, err := NewGormStore(grm, l)
		require.Nil(t, err)
		err = gs.Update(context.Background(), func(tx Tx) error {
			return tx.SetBalance(alice, big.NewInt(42))
		})
		require.Nil(t, err)
		require.Nil(t, gs.Close())

		reopened, err := internalSqlite.NewGormSqliteFromSqlite(internalSqlite.NewSqlite(&internalSqlite.SqliteConfig{Path: path}, l))
		require.Nil(t, err)
		gs, err = NewGormStore(reopened, l)
		require.Nil(t, err)
		defer gs.Close()

		err = gs.View(context.Background(), func(tx Tx) error {
			balance, err := tx.GetBalance(alice)
			require.Nil(t, err)
			assert.Equal(t, "42", balance.String())
			return nil
		})
		require.Nil(t, err)
	})
}
