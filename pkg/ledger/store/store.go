package store

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var ErrReadOnly = errors.New("store: write in a read-only transaction")

type TokenParams struct {
	Name          string
	Symbol        string
	Decimals      uint8
	Owner         common.Address
	TotalSupply   *big.Int
	BasePeriod    uint64
	HoldPeriod    uint64
	AnnualPercent uint64
	AnnualPeriod  uint64
}

// Stake is the stake record of one account. CancelTime is zero while the stake is active.
type Stake struct {
	Staker     common.Address
	Amount     *big.Int
	StartTime  uint64
	CancelTime uint64
	Reward     *big.Int
}

func (s *Stake) Cancelled() bool {
	return s.CancelTime != 0
}

type Balance struct {
	Address common.Address
	Amount  *big.Int
}

type Allowance struct {
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// Tx is a view of the ledger state inside a transaction. Getters return zero values for
// unknown accounts: a zero balance, a nil stake, nil params before initialization.
type Tx interface {
	GetParams() (*TokenParams, error)
	PutParams(params *TokenParams) error

	GetBalance(address common.Address) (*big.Int, error)
	SetBalance(address common.Address, amount *big.Int) error

	GetAllowance(owner common.Address, spender common.Address) (*big.Int, error)
	SetAllowance(owner common.Address, spender common.Address, amount *big.Int) error

	IsMinter(address common.Address) (bool, error)
	SetMinter(address common.Address, minter bool) error

	GetStake(staker common.Address) (*Stake, error)
	PutStake(stake *Stake) error
	DeleteStake(staker common.Address) error

	// The List functions return non-zero entries ordered by address.
	ListBalances() ([]*Balance, error)
	ListAllowances() ([]*Allowance, error)
	ListMinters() ([]common.Address, error)
	ListStakes() ([]*Stake, error)
}

// Store runs functions atomically against the ledger state. When the function passed to
// Update returns an error no change is persisted.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func copyParams(p *TokenParams) *TokenParams {
	if p == nil {
		return nil
	}
	c := *p
	c.TotalSupply = copyInt(p.TotalSupply)
	return &c
}

func copyStake(s *Stake) *Stake {
	if s == nil {
		return nil
	}
	c := *s
	c.Amount = copyInt(s.Amount)
	c.Reward = copyInt(s.Reward)
	return &c
}
