package store

import (
	"bytes"
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type memoryState struct {
	params     *TokenParams
	balances   map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	minters    map[common.Address]bool
	stakes     map[common.Address]*Stake
}

func newMemoryState() *memoryState {
	return &memoryState{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		minters:    make(map[common.Address]bool),
		stakes:     make(map[common.Address]*Stake),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.params = copyParams(s.params)
	for k, v := range s.balances {
		c.balances[k] = copyInt(v)
	}
	for k, v := range s.allowances {
		c.allowances[k] = copyInt(v)
	}
	for k, v := range s.minters {
		c.minters[k] = v
	}
	for k, v := range s.stakes {
		c.stakes[k] = copyStake(v)
	}
	return c
}

// MemoryStore keeps the ledger in process memory. Update works on a copy of the state that
// replaces the current one only when the function succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemoryState(),
	}
}

func (m *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(&memoryTx{state: working}); err != nil {
		return err
	}
	m.state = working
	return nil
}

func (m *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(&memoryTx{state: m.state, readOnly: true})
}

func (m *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	state    *memoryState
	readOnly bool
}

func (t *memoryTx) GetParams() (*TokenParams, error) {
	return copyParams(t.state.params), nil
}

func (t *memoryTx) PutParams(params *TokenParams) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.state.params = copyParams(params)
	return nil
}

func (t *memoryTx) GetBalance(address common.Address) (*big.Int, error) {
	return copyInt(t.state.balances[address]), nil
}

func (t *memoryTx) SetBalance(address common.Address, amount *big.Int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if amount == nil || amount.Sign() == 0 {
		delete(t.state.balances, address)
		return nil
	}
	t.state.balances[address] = copyInt(amount)
	return nil
}

func (t *memoryTx) GetAllowance(owner common.Address, spender common.Address) (*big.Int, error) {
	return copyInt(t.state.allowances[allowanceKey{owner, spender}]), nil
}

func (t *memoryTx) SetAllowance(owner common.Address, spender common.Address, amount *big.Int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	key := allowanceKey{owner, spender}
	if amount == nil || amount.Sign() == 0 {
		delete(t.state.allowances, key)
		return nil
	}
	t.state.allowances[key] = copyInt(amount)
	return nil
}

func (t *memoryTx) IsMinter(address common.Address) (bool, error) {
	return t.state.minters[address], nil
}

func (t *memoryTx) SetMinter(address common.Address, minter bool) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if !minter {
		delete(t.state.minters, address)
		return nil
	}
	t.state.minters[address] = true
	return nil
}

func (t *memoryTx) GetStake(staker common.Address) (*Stake, error) {
	return copyStake(t.state.stakes[staker]), nil
}

func (t *memoryTx) PutStake(stake *Stake) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.state.stakes[stake.Staker] = copyStake(stake)
	return nil
}

func (t *memoryTx) DeleteStake(staker common.Address) error {
	if t.readOnly {
		return ErrReadOnly
	}
	delete(t.state.stakes, staker)
	return nil
}

func lessAddress(a, b common.Address) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}

func (t *memoryTx) ListBalances() ([]*Balance, error) {
	balances := make([]*Balance, 0, len(t.state.balances))
	for address, amount := range t.state.balances {
		balances = append(balances, &Balance{Address: address, Amount: copyInt(amount)})
	}
	sort.Slice(balances, func(i, j int) bool {
		return lessAddress(balances[i].Address, balances[j].Address)
	})
	return balances, nil
}

func (t *memoryTx) ListAllowances() ([]*Allowance, error) {
	allowances := make([]*Allowance, 0, len(t.state.allowances))
	for key, amount := range t.state.allowances {
		allowances = append(allowances, &Allowance{Owner: key.owner, Spender: key.spender, Amount: copyInt(amount)})
	}
	sort.Slice(allowances, func(i, j int) bool {
		if allowances[i].Owner != allowances[j].Owner {
			return lessAddress(allowances[i].Owner, allowances[j].Owner)
		}
		return lessAddress(allowances[i].Spender, allowances[j].Spender)
	})
	return allowances, nil
}

func (t *memoryTx) ListMinters() ([]common.Address, error) {
	minters := make([]common.Address, 0, len(t.state.minters))
	for address := range t.state.minters {
		minters = append(minters, address)
	}
	sort.Slice(minters, func(i, j int) bool {
		return lessAddress(minters[i], minters[j])
	})
	return minters, nil
}

func (t *memoryTx) ListStakes() ([]*Stake, error) {
	stakes := make([]*Stake, 0, len(t.state.stakes))
	for _, stake := range t.state.stakes {
		stakes = append(stakes, copyStake(stake))
	}
	sort.Slice(stakes, func(i, j int) bool {
		return lessAddress(stakes[i].Staker, stakes[j].Staker)
	})
	return stakes, nil
}
