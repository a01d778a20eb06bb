package ledger

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/staketoken/airdrop/internal/metrics"
	"github.com/staketoken/airdrop/internal/metrics/metricsTypes"
	"github.com/staketoken/airdrop/pkg/eventBus/eventBusTypes"
	"github.com/staketoken/airdrop/pkg/ledger/store"
	"go.uber.org/zap"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// InitializeParams are the arguments of the one-time token initialization. Periods are in
// seconds and AnnualPercent is a whole percentage.
type InitializeParams struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply *big.Int
	Owner         common.Address
	BasePeriod    uint64
	HoldPeriod    uint64
	AnnualPercent uint64
	AnnualPeriod  uint64
}

// Token applies the token and stake rules to a store. Every state changing call runs in a
// single store transaction, so a revert leaves the state untouched.
type Token struct {
	store   store.Store
	clock   Clock
	bus     eventBusTypes.IEventBus
	metrics *metrics.MetricsSink
	logger  *zap.Logger
}

// NewToken returns a token over s. bus and ms may be nil.
func NewToken(s store.Store, clock Clock, bus eventBusTypes.IEventBus, ms *metrics.MetricsSink, l *zap.Logger) *Token {
	if clock == nil {
		clock = SystemClock{}
	}
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &Token{
		store:   s,
		clock:   clock,
		bus:     bus,
		metrics: ms,
		logger:  l,
	}
}

// execute runs fn in a write transaction and publishes the collected events once the
// transaction has committed.
func (t *Token) execute(ctx context.Context, method string, fn func(tx store.Tx, r *Receipt) error) (*Receipt, error) {
	var receipt *Receipt
	err := t.store.Update(ctx, func(tx store.Tx) error {
		receipt = &Receipt{Events: make([]Event, 0)}
		return fn(tx, receipt)
	})
	if err != nil {
		t.logger.Sugar().Debugw("Ledger call failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}

	if err := t.metrics.Incr(metricsTypes.Metric_Incr_LedgerTransaction, []metricsTypes.MetricsLabel{
		{Name: "method", Value: method},
	}, 1); err != nil {
		t.logger.Sugar().Warnw("Failed to record ledger metric", zap.Error(err))
	}

	t.logger.Sugar().Debugw("Ledger call succeeded",
		zap.String("method", method),
		zap.Int("events", len(receipt.Events)),
	)
	if t.bus != nil {
		for _, e := range receipt.Events {
			t.bus.Publish(&eventBusTypes.Event{
				Name: e.EventName(),
				Data: e,
			})
		}
	}
	return receipt, nil
}

func (t *Token) view(ctx context.Context, fn func(tx store.Tx, params *store.TokenParams) error) error {
	return t.store.View(ctx, func(tx store.Tx) error {
		params, err := loadParams(tx)
		if err != nil {
			return err
		}
		return fn(tx, params)
	})
}

func loadParams(tx store.Tx) (*store.TokenParams, error) {
	params, err := tx.GetParams()
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, ErrNotInitialized
	}
	return params, nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func isZero(address common.Address) bool {
	return address == (common.Address{})
}

func checkedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if sum.Cmp(maxUint256) > 0 {
		return nil, ErrAdditionOverflow
	}
	return sum, nil
}

// Initialize sets the token parameters, mints the initial supply to the owner and makes the
// owner a minter. It can only run once.
func (t *Token) Initialize(ctx context.Context, p *InitializeParams) (*Receipt, error) {
	if err := checkAmount(p.InitialSupply); err != nil {
		return nil, err
	}
	if p.AnnualPeriod == 0 {
		return nil, ErrInvalidAnnualPeriod
	}
	// periods are persisted in bigint columns
	for _, period := range []uint64{p.BasePeriod, p.HoldPeriod, p.AnnualPeriod} {
		if period > math.MaxInt64 {
			return nil, ErrPeriodOutOfRange
		}
	}
	return t.execute(ctx, "initialize", func(tx store.Tx, r *Receipt) error {
		existing, err := tx.GetParams()
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInitialized
		}
		if isZero(p.Owner) {
			return ErrNewOwnerZeroAddress
		}

		params := &store.TokenParams{
			Name:          p.Name,
			Symbol:        p.Symbol,
			Decimals:      p.Decimals,
			Owner:         p.Owner,
			TotalSupply:   big.NewInt(0),
			BasePeriod:    p.BasePeriod,
			HoldPeriod:    p.HoldPeriod,
			AnnualPercent: p.AnnualPercent,
			AnnualPeriod:  p.AnnualPeriod,
		}
		r.emit(&OwnershipTransferredEvent{NewOwner: p.Owner})

		if err := tx.SetMinter(p.Owner, true); err != nil {
			return err
		}
		r.emit(&MinterAddedEvent{Account: p.Owner})

		return mint(tx, params, r, p.Owner, p.InitialSupply)
	})
}

func (t *Token) Name(ctx context.Context) (string, error) {
	var name string
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		name = params.Name
		return nil
	})
	return name, err
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	var symbol string
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		symbol = params.Symbol
		return nil
	})
	return symbol, err
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	var decimals uint8
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		decimals = params.Decimals
		return nil
	})
	return decimals, err
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	var supply *big.Int
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		supply = new(big.Int).Set(params.TotalSupply)
		return nil
	})
	return supply, err
}

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	var owner common.Address
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		owner = params.Owner
		return nil
	})
	return owner, err
}

// Params returns a copy of the stored token parameters.
func (t *Token) Params(ctx context.Context) (*store.TokenParams, error) {
	var p *store.TokenParams
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		c := *params
		c.TotalSupply = new(big.Int).Set(params.TotalSupply)
		p = &c
		return nil
	})
	return p, err
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		b, err := tx.GetBalance(account)
		balance = b
		return err
	})
	return balance, err
}

func (t *Token) Allowance(ctx context.Context, owner common.Address, spender common.Address) (*big.Int, error) {
	var allowance *big.Int
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		a, err := tx.GetAllowance(owner, spender)
		allowance = a
		return err
	})
	return allowance, err
}

// Holders lists every account with a non-zero balance, ordered by address.
func (t *Token) Holders(ctx context.Context) ([]*store.Balance, error) {
	var balances []*store.Balance
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		b, err := tx.ListBalances()
		balances = b
		return err
	})
	return balances, err
}

func (t *Token) Transfer(ctx context.Context, from common.Address, to common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "transfer", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		return transfer(tx, r, from, to, amount)
	})
}

// TransferFrom moves amount from sender to recipient on behalf of spender and lowers the
// allowance of spender accordingly.
func (t *Token) TransferFrom(ctx context.Context, spender common.Address, sender common.Address, recipient common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "transferFrom", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		if err := transfer(tx, r, sender, recipient, amount); err != nil {
			return err
		}
		allowance, err := tx.GetAllowance(sender, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(amount) < 0 {
			return ErrTransferExceedsAllowance
		}
		return approve(tx, r, sender, spender, new(big.Int).Sub(allowance, amount))
	})
}

func (t *Token) Approve(ctx context.Context, owner common.Address, spender common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "approve", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		return approve(tx, r, owner, spender, amount)
	})
}

func (t *Token) IncreaseAllowance(ctx context.Context, owner common.Address, spender common.Address, added *big.Int) (*Receipt, error) {
	if err := checkAmount(added); err != nil {
		return nil, err
	}
	return t.execute(ctx, "increaseAllowance", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		allowance, err := tx.GetAllowance(owner, spender)
		if err != nil {
			return err
		}
		next, err := checkedAdd(allowance, added)
		if err != nil {
			return err
		}
		return approve(tx, r, owner, spender, next)
	})
}

func (t *Token) DecreaseAllowance(ctx context.Context, owner common.Address, spender common.Address, subtracted *big.Int) (*Receipt, error) {
	if err := checkAmount(subtracted); err != nil {
		return nil, err
	}
	return t.execute(ctx, "decreaseAllowance", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		allowance, err := tx.GetAllowance(owner, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(subtracted) < 0 {
			return ErrDecreasedBelowZero
		}
		return approve(tx, r, owner, spender, new(big.Int).Sub(allowance, subtracted))
	})
}

// Airdrop transfers amount from sender to every recipient in order. Either every transfer
// happens or none does.
func (t *Token) Airdrop(ctx context.Context, sender common.Address, amount *big.Int, recipients []common.Address) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "airdrop", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		for _, recipient := range recipients {
			if err := transfer(tx, r, sender, recipient, amount); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Token) TransferOwnership(ctx context.Context, caller common.Address, newOwner common.Address) (*Receipt, error) {
	return t.execute(ctx, "transferOwnership", func(tx store.Tx, r *Receipt) error {
		params, err := onlyOwner(tx, caller)
		if err != nil {
			return err
		}
		if isZero(newOwner) {
			return ErrNewOwnerZeroAddress
		}
		r.emit(&OwnershipTransferredEvent{PreviousOwner: params.Owner, NewOwner: newOwner})
		params.Owner = newOwner
		return tx.PutParams(params)
	})
}

// RenounceOwnership leaves the token without an owner.
func (t *Token) RenounceOwnership(ctx context.Context, caller common.Address) (*Receipt, error) {
	return t.execute(ctx, "renounceOwnership", func(tx store.Tx, r *Receipt) error {
		params, err := onlyOwner(tx, caller)
		if err != nil {
			return err
		}
		r.emit(&OwnershipTransferredEvent{PreviousOwner: params.Owner})
		params.Owner = common.Address{}
		return tx.PutParams(params)
	})
}

func (t *Token) IsMinter(ctx context.Context, account common.Address) (bool, error) {
	var minter bool
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		m, err := tx.IsMinter(account)
		minter = m
		return err
	})
	return minter, err
}

func (t *Token) AddMinter(ctx context.Context, caller common.Address, account common.Address) (*Receipt, error) {
	return t.execute(ctx, "addMinter", func(tx store.Tx, r *Receipt) error {
		if _, err := onlyMinter(tx, caller); err != nil {
			return err
		}
		if isZero(account) {
			return ErrRoleForZeroAddress
		}
		exists, err := tx.IsMinter(account)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyHasRole
		}
		if err := tx.SetMinter(account, true); err != nil {
			return err
		}
		r.emit(&MinterAddedEvent{Account: account})
		return nil
	})
}

func (t *Token) RenounceMinter(ctx context.Context, caller common.Address) (*Receipt, error) {
	return t.execute(ctx, "renounceMinter", func(tx store.Tx, r *Receipt) error {
		if _, err := onlyMinter(tx, caller); err != nil {
			return err
		}
		if err := tx.SetMinter(caller, false); err != nil {
			return err
		}
		r.emit(&MinterRemovedEvent{Account: caller})
		return nil
	})
}

func (t *Token) Mint(ctx context.Context, caller common.Address, to common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "mint", func(tx store.Tx, r *Receipt) error {
		params, err := onlyMinter(tx, caller)
		if err != nil {
			return err
		}
		return mint(tx, params, r, to, amount)
	})
}

// Burn destroys amount tokens held by account. Only minters may burn.
func (t *Token) Burn(ctx context.Context, caller common.Address, account common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	return t.execute(ctx, "burn", func(tx store.Tx, r *Receipt) error {
		params, err := onlyMinter(tx, caller)
		if err != nil {
			return err
		}
		if isZero(account) {
			return ErrBurnFromZeroAddress
		}
		balance, err := tx.GetBalance(account)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return ErrBurnExceedsBalance
		}
		if err := tx.SetBalance(account, new(big.Int).Sub(balance, amount)); err != nil {
			return err
		}
		params.TotalSupply = new(big.Int).Sub(params.TotalSupply, amount)
		if err := tx.PutParams(params); err != nil {
			return err
		}
		r.emit(&TransferEvent{From: account, Value: new(big.Int).Set(amount)})
		return nil
	})
}

func onlyOwner(tx store.Tx, caller common.Address) (*store.TokenParams, error) {
	params, err := loadParams(tx)
	if err != nil {
		return nil, err
	}
	if params.Owner != caller {
		return nil, ErrNotOwner
	}
	return params, nil
}

func onlyMinter(tx store.Tx, caller common.Address) (*store.TokenParams, error) {
	params, err := loadParams(tx)
	if err != nil {
		return nil, err
	}
	minter, err := tx.IsMinter(caller)
	if err != nil {
		return nil, err
	}
	if !minter {
		return nil, ErrNotMinter
	}
	return params, nil
}

func transfer(tx store.Tx, r *Receipt, from common.Address, to common.Address, amount *big.Int) error {
	if isZero(from) {
		return ErrTransferFromZeroAddress
	}
	if isZero(to) {
		return ErrTransferToZeroAddress
	}
	fromBalance, err := tx.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrTransferExceedsBalance
	}
	if err := tx.SetBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}

	toBalance, err := tx.GetBalance(to)
	if err != nil {
		return err
	}
	next, err := checkedAdd(toBalance, amount)
	if err != nil {
		return err
	}
	if err := tx.SetBalance(to, next); err != nil {
		return err
	}
	r.emit(&TransferEvent{From: from, To: to, Value: new(big.Int).Set(amount)})
	return nil
}

func approve(tx store.Tx, r *Receipt, owner common.Address, spender common.Address, amount *big.Int) error {
	if isZero(owner) {
		return ErrApproveFromZeroAddress
	}
	if isZero(spender) {
		return ErrApproveToZeroAddress
	}
	if err := tx.SetAllowance(owner, spender, amount); err != nil {
		return err
	}
	r.emit(&ApprovalEvent{Owner: owner, Spender: spender, Value: new(big.Int).Set(amount)})
	return nil
}

// mint credits to and raises the supply held in params, then stores params.
func mint(tx store.Tx, params *store.TokenParams, r *Receipt, to common.Address, amount *big.Int) error {
	if isZero(to) {
		return ErrMintToZeroAddress
	}
	supply, err := checkedAdd(params.TotalSupply, amount)
	if err != nil {
		return err
	}
	balance, err := tx.GetBalance(to)
	if err != nil {
		return err
	}
	if err := tx.SetBalance(to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	params.TotalSupply = supply
	if err := tx.PutParams(params); err != nil {
		return err
	}
	r.emit(&TransferEvent{To: to, Value: new(big.Int).Set(amount)})
	return nil
}
