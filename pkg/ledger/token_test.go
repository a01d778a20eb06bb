package ledger

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/staketoken/airdrop/internal/tests/sqlite"
	"github.com/staketoken/airdrop/pkg/eventBus"
	"github.com/staketoken/airdrop/pkg/eventBus/eventBusTypes"
	"github.com/staketoken/airdrop/pkg/ledger/store"
	"github.com/staketoken/airdrop/pkg/types/numbers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	decimals      = 18
	basePeriod    = 30
	holdPeriod    = 120
	annualPercent = 12
	annualPeriod  = 600
	startTime     = 1700000000
)

var (
	owner   = common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1")
	alice   = common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")
	bob     = common.HexToAddress("0x22d491Bde2303f2f43325b2108D26f1eAbA1e32b")
	charles = common.HexToAddress("0xE11BA2b4D45Eaed5996Cd0823791E0C93114882d")
	zero    = common.Address{}

	initialSupply = numbers.Tokens(1000, decimals)
	value1        = numbers.Tokens(10, decimals)
	value2        = numbers.Tokens(20, decimals)
	value3        = numbers.Tokens(30, decimals)
)

type storeFactory func(t *testing.T) store.Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) store.Store {
			return store.NewMemoryStore()
		},
		"gorm": func(t *testing.T) store.Store {
			l := tests.GetLogger()
			grm, err := sqlite.GetInMemorySqliteDatabaseConnection(l)
			require.Nil(t, err)
			s, err := store.NewGormStore(grm, l)
			require.Nil(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

type fixture struct {
	token *Token
	clock *ManualClock
	bus   *eventBus.EventBus
}

func newToken(t *testing.T, factory storeFactory) *fixture {
	l := tests.GetLogger()
	clock := NewManualClock(startTime)
	bus := eventBus.NewEventBus(l)
	return &fixture{
		token: NewToken(factory(t), clock, bus, nil, l),
		clock: clock,
		bus:   bus,
	}
}

// setup initializes the token and funds alice, bob and charles from the owner.
func setup(t *testing.T, factory storeFactory) *fixture {
	ctx := context.Background()
	f := newToken(t, factory)
	_, err := f.token.Initialize(ctx, &InitializeParams{
		Name:          "Token",
		Symbol:        "TKN",
		Decimals:      decimals,
		InitialSupply: initialSupply,
		Owner:         owner,
		BasePeriod:    basePeriod,
		HoldPeriod:    holdPeriod,
		AnnualPercent: annualPercent,
		AnnualPeriod:  annualPeriod,
	})
	require.Nil(t, err)

	for _, funding := range []struct {
		to    common.Address
		value *big.Int
	}{{alice, value1}, {bob, value2}, {charles, value3}} {
		_, err := f.token.Transfer(ctx, owner, funding.to, funding.value)
		require.Nil(t, err)
	}
	return f
}

func balanceOf(t *testing.T, token *Token, account common.Address) *big.Int {
	balance, err := token.BalanceOf(context.Background(), account)
	require.Nil(t, err)
	return balance
}

func totalSupply(t *testing.T, token *Token) *big.Int {
	supply, err := token.TotalSupply(context.Background())
	require.Nil(t, err)
	return supply
}

func assertBigEqual(t *testing.T, expected *big.Int, actual *big.Int) {
	t.Helper()
	assert.Equal(t, 0, expected.Cmp(actual), "expected %s, got %s", expected, actual)
}

func assertRevert(t *testing.T, err error, expected *RevertError) {
	t.Helper()
	require.NotNil(t, err)
	assert.ErrorIs(t, err, expected)
	assert.Equal(t, expected.Reason, err.Error())
}

func Test_Token(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories() {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Run("Should report the owner and the initial supply", func(t *testing.T) {
				f := setup(t, factory)
				o, err := f.token.Owner(ctx)
				require.Nil(t, err)
				assert.Equal(t, owner, o)
				assertBigEqual(t, initialSupply, totalSupply(t, f.token))

				minter, err := f.token.IsMinter(ctx, owner)
				require.Nil(t, err)
				assert.True(t, minter)
			})
			t.Run("Should report the token details and stake parameters", func(t *testing.T) {
				f := setup(t, factory)
				name, err := f.token.Name(ctx)
				require.Nil(t, err)
				assert.Equal(t, "Token", name)

				symbol, err := f.token.Symbol(ctx)
				require.Nil(t, err)
				assert.Equal(t, "TKN", symbol)

				d, err := f.token.Decimals(ctx)
				require.Nil(t, err)
				assert.Equal(t, uint8(decimals), d)

				bp, err := f.token.BasePeriod(ctx)
				require.Nil(t, err)
				assert.Equal(t, uint64(basePeriod), bp)

				hp, err := f.token.HoldPeriod(ctx)
				require.Nil(t, err)
				assert.Equal(t, uint64(holdPeriod), hp)

				ap, err := f.token.AnnualPercent(ctx)
				require.Nil(t, err)
				assert.Equal(t, uint64(annualPercent), ap)

				period, err := f.token.AnnualPeriod(ctx)
				require.Nil(t, err)
				assert.Equal(t, uint64(annualPeriod), period)
			})
			t.Run("Should refuse a second initialization", func(t *testing.T) {
				f := setup(t, factory)
				_, err := f.token.Initialize(ctx, &InitializeParams{
					Name:          "Other",
					Symbol:        "OTH",
					InitialSupply: big.NewInt(1),
					Owner:         alice,
					AnnualPeriod:  1,
				})
				assertRevert(t, err, ErrAlreadyInitialized)
				assertBigEqual(t, initialSupply, totalSupply(t, f.token))
			})
			t.Run("Should fail reads before initialization", func(t *testing.T) {
				f := newToken(t, factory)
				_, err := f.token.BalanceOf(ctx, alice)
				assert.ErrorIs(t, err, ErrNotInitialized)
				_, err = f.token.Transfer(ctx, alice, bob, value1)
				assert.ErrorIs(t, err, ErrNotInitialized)
			})

			t.Run("transfer", func(t *testing.T) {
				t.Run("Should revert when transferring to the zero address", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Transfer(ctx, alice, zero, value1)
					assertRevert(t, err, ErrTransferToZeroAddress)
				})
				t.Run("Should revert when transferring more than the balance", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Transfer(ctx, alice, bob, value3)
					assertRevert(t, err, ErrTransferExceedsBalance)
					assertBigEqual(t, value1, balanceOf(t, f.token, alice))
					assertBigEqual(t, value2, balanceOf(t, f.token, bob))
				})
				t.Run("Should move the balance and emit a Transfer event", func(t *testing.T) {
					f := setup(t, factory)
					receipt, err := f.token.Transfer(ctx, charles, alice, value2)
					require.Nil(t, err)

					assertBigEqual(t, new(big.Int).Add(value1, value2), balanceOf(t, f.token, alice))
					assertBigEqual(t, new(big.Int).Sub(value3, value2), balanceOf(t, f.token, charles))
					transfers := receipt.Transfers()
					require.Len(t, transfers, 1)
					assert.Equal(t, charles, transfers[0].From)
					assert.Equal(t, alice, transfers[0].To)
					assertBigEqual(t, value2, transfers[0].Value)
				})
				t.Run("Should reject negative amounts", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Transfer(ctx, alice, bob, big.NewInt(-1))
					assert.ErrorIs(t, err, ErrNegativeAmount)
				})
			})

			t.Run("mint and burn", func(t *testing.T) {
				t.Run("Should fail to mint without the minter role", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Mint(ctx, alice, alice, value1)
					assertRevert(t, err, ErrNotMinter)
				})
				t.Run("Should fail to burn without rights or above the balance", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Burn(ctx, alice, alice, value1)
					assertRevert(t, err, ErrNotMinter)

					_, err = f.token.Burn(ctx, owner, alice, value2)
					assertRevert(t, err, ErrBurnExceedsBalance)
				})
				t.Run("Should fail to mint to the zero address", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Mint(ctx, owner, zero, value1)
					assertRevert(t, err, ErrMintToZeroAddress)
				})
				t.Run("Should mint, update the balance and the total supply", func(t *testing.T) {
					f := setup(t, factory)
					receipt, err := f.token.Mint(ctx, owner, alice, value1)
					require.Nil(t, err)

					assertBigEqual(t, value2, balanceOf(t, f.token, alice))
					assertBigEqual(t, new(big.Int).Add(initialSupply, value1), totalSupply(t, f.token))
					transfers := receipt.Transfers()
					require.Len(t, transfers, 1)
					assert.Equal(t, zero, transfers[0].From)
					assert.Equal(t, alice, transfers[0].To)
					assertBigEqual(t, value1, transfers[0].Value)
				})
				t.Run("Should burn, update the balance and the total supply", func(t *testing.T) {
					f := setup(t, factory)
					receipt, err := f.token.Burn(ctx, owner, alice, value1)
					require.Nil(t, err)

					assert.Equal(t, 0, balanceOf(t, f.token, alice).Sign())
					assertBigEqual(t, new(big.Int).Sub(initialSupply, value1), totalSupply(t, f.token))
					transfers := receipt.Transfers()
					require.Len(t, transfers, 1)
					assert.Equal(t, alice, transfers[0].From)
					assert.Equal(t, zero, transfers[0].To)
				})
			})

			t.Run("allowances", func(t *testing.T) {
				t.Run("Should set the allowance and emit an Approval event", func(t *testing.T) {
					f := setup(t, factory)
					receipt, err := f.token.Approve(ctx, charles, bob, value1)
					require.Nil(t, err)

					allowance, err := f.token.Allowance(ctx, charles, bob)
					require.Nil(t, err)
					assertBigEqual(t, value1, allowance)

					approvals := receipt.EventsByName(EventName_Approval)
					require.Len(t, approvals, 1)
					approval := approvals[0].(*ApprovalEvent)
					assert.Equal(t, charles, approval.Owner)
					assert.Equal(t, bob, approval.Spender)
					assertBigEqual(t, value1, approval.Value)
				})
				t.Run("Should revert approving the zero address", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Approve(ctx, charles, zero, value1)
					assertRevert(t, err, ErrApproveToZeroAddress)
				})
				t.Run("Should increase and decrease the allowance", func(t *testing.T) {
					f := setup(t, factory)
					receipt, err := f.token.IncreaseAllowance(ctx, charles, bob, value1)
					require.Nil(t, err)
					assertBigEqual(t, value1, receipt.EventsByName(EventName_Approval)[0].(*ApprovalEvent).Value)

					receipt, err = f.token.DecreaseAllowance(ctx, charles, bob, value1)
					require.Nil(t, err)
					approval := receipt.EventsByName(EventName_Approval)[0].(*ApprovalEvent)
					assert.Equal(t, 0, approval.Value.Sign())

					allowance, err := f.token.Allowance(ctx, charles, bob)
					require.Nil(t, err)
					assert.Equal(t, 0, allowance.Sign())
				})
				t.Run("Should revert decreasing below zero", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.DecreaseAllowance(ctx, charles, bob, value1)
					assertRevert(t, err, ErrDecreasedBelowZero)
				})
			})

			t.Run("transferFrom", func(t *testing.T) {
				t.Run("Should revert without approval and leave balances untouched", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.TransferFrom(ctx, alice, charles, alice, value1)
					assertRevert(t, err, ErrTransferExceedsAllowance)
					assertBigEqual(t, value3, balanceOf(t, f.token, charles))
					assertBigEqual(t, value1, balanceOf(t, f.token, alice))
				})
				t.Run("Should transfer the approved amount and consume the allowance", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Approve(ctx, charles, bob, value1)
					require.Nil(t, err)

					receipt, err := f.token.TransferFrom(ctx, bob, charles, bob, value1)
					require.Nil(t, err)
					assertBigEqual(t, new(big.Int).Sub(value3, value1), balanceOf(t, f.token, charles))
					assertBigEqual(t, new(big.Int).Add(value2, value1), balanceOf(t, f.token, bob))

					allowance, err := f.token.Allowance(ctx, charles, bob)
					require.Nil(t, err)
					assert.Equal(t, 0, allowance.Sign())

					transfers := receipt.Transfers()
					require.Len(t, transfers, 1)
					assert.Equal(t, charles, transfers[0].From)
					assert.Equal(t, bob, transfers[0].To)

					_, err = f.token.TransferFrom(ctx, bob, charles, bob, value1)
					assertRevert(t, err, ErrTransferExceedsAllowance)
				})
			})

			t.Run("airdrop", func(t *testing.T) {
				t.Run("Should transfer the amount to every recipient", func(t *testing.T) {
					f := setup(t, factory)
					recipients := []common.Address{alice, bob, charles, alice}
					receipt, err := f.token.Airdrop(ctx, owner, value1, recipients)
					require.Nil(t, err)

					assert.Len(t, receipt.Transfers(), len(recipients))
					assertBigEqual(t, numbers.Tokens(30, decimals), balanceOf(t, f.token, alice))
					assertBigEqual(t, numbers.Tokens(30, decimals), balanceOf(t, f.token, bob))
					assertBigEqual(t, numbers.Tokens(40, decimals), balanceOf(t, f.token, charles))
					assertBigEqual(t, numbers.Tokens(900, decimals), balanceOf(t, f.token, owner))
				})
				t.Run("Should credit nobody when one transfer fails", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.Airdrop(ctx, alice, value1, []common.Address{bob, charles})
					assertRevert(t, err, ErrTransferExceedsBalance)
					assertBigEqual(t, value1, balanceOf(t, f.token, alice))
					assertBigEqual(t, value2, balanceOf(t, f.token, bob))
					assertBigEqual(t, value3, balanceOf(t, f.token, charles))
				})
			})

			t.Run("ownership and roles", func(t *testing.T) {
				t.Run("Should only let the owner transfer ownership", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.TransferOwnership(ctx, alice, alice)
					assertRevert(t, err, ErrNotOwner)

					_, err = f.token.TransferOwnership(ctx, owner, zero)
					assertRevert(t, err, ErrNewOwnerZeroAddress)

					receipt, err := f.token.TransferOwnership(ctx, owner, alice)
					require.Nil(t, err)
					event := receipt.EventsByName(EventName_OwnershipTransferred)[0].(*OwnershipTransferredEvent)
					assert.Equal(t, owner, event.PreviousOwner)
					assert.Equal(t, alice, event.NewOwner)

					o, err := f.token.Owner(ctx)
					require.Nil(t, err)
					assert.Equal(t, alice, o)

					_, err = f.token.RenounceOwnership(ctx, alice)
					require.Nil(t, err)
					o, err = f.token.Owner(ctx)
					require.Nil(t, err)
					assert.Equal(t, zero, o)
				})
				t.Run("Should add and renounce minters", func(t *testing.T) {
					f := setup(t, factory)
					_, err := f.token.AddMinter(ctx, alice, bob)
					assertRevert(t, err, ErrNotMinter)

					_, err = f.token.AddMinter(ctx, owner, alice)
					require.Nil(t, err)
					_, err = f.token.AddMinter(ctx, owner, alice)
					assertRevert(t, err, ErrAlreadyHasRole)

					_, err = f.token.Mint(ctx, alice, bob, value1)
					require.Nil(t, err)

					receipt, err := f.token.RenounceMinter(ctx, alice)
					require.Nil(t, err)
					assert.Len(t, receipt.EventsByName(EventName_MinterRemoved), 1)

					minter, err := f.token.IsMinter(ctx, alice)
					require.Nil(t, err)
					assert.False(t, minter)
				})
			})

			t.Run("Should publish events after commit only", func(t *testing.T) {
				f := setup(t, factory)
				consumer := &eventBusTypes.Consumer{
					Id:      "test",
					Context: context.Background(),
					Channel: make(chan *eventBusTypes.Event, 10),
				}
				f.bus.Subscribe(consumer)

				_, err := f.token.Transfer(ctx, alice, bob, value3)
				require.NotNil(t, err)
				assert.Len(t, consumer.Channel, 0)

				_, err = f.token.Transfer(ctx, alice, bob, value1)
				require.Nil(t, err)
				require.Len(t, consumer.Channel, 1)
				event := <-consumer.Channel
				assert.Equal(t, EventName_Transfer, event.Name)
				assert.Equal(t, alice, event.Data.(*TransferEvent).From)
			})

			t.Run("Should list holders in address order", func(t *testing.T) {
				f := setup(t, factory)
				holders, err := f.token.Holders(ctx)
				require.Nil(t, err)
				require.Len(t, holders, 4)
				assert.Equal(t, []common.Address{bob, owner, charles, alice}, []common.Address{
					holders[0].Address, holders[1].Address, holders[2].Address, holders[3].Address,
				})
			})
		})
	}
}

func Test_StateRoot(t *testing.T) {
	ctx := context.Background()

	roots := make(map[string]string)
	for name, factory := range storeFactories() {
		f := setup(t, factory)
		_, err := f.token.Approve(ctx, charles, bob, value1)
		require.Nil(t, err)
		_, err = f.token.CreateStake(ctx, bob, value2)
		require.Nil(t, err)

		root, err := f.token.StateRoot(ctx)
		require.Nil(t, err)
		assert.Len(t, root, 66)

		again, err := f.token.StateRoot(ctx)
		require.Nil(t, err)
		assert.Equal(t, root, again)

		f.clock.Advance(time.Hour)
		later, err := f.token.StateRoot(ctx)
		require.Nil(t, err)
		assert.Equal(t, root, later)

		_, err = f.token.Transfer(ctx, alice, charles, big.NewInt(1))
		require.Nil(t, err)
		changed, err := f.token.StateRoot(ctx)
		require.Nil(t, err)
		assert.NotEqual(t, root, changed)

		roots[name] = root
	}
	assert.Equal(t, roots["memory"], roots["gorm"])
}
