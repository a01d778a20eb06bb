package ledger

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/staketoken/airdrop/pkg/ledger/store"
)

type StakeState string

const (
	StakeState_None         StakeState = "none"
	StakeState_Active       StakeState = "active"
	StakeState_OnHold       StakeState = "on_hold"
	StakeState_Withdrawable StakeState = "withdrawable"
)

// StakeInfo describes the stake of one account at a point in time. Reward is the accrued
// reward for an active stake and the frozen reward once cancelled.
type StakeInfo struct {
	Staker         common.Address
	State          StakeState
	Amount         *big.Int
	Reward         *big.Int
	StartTime      uint64
	CancelTime     uint64
	WithdrawableAt uint64
}

// ComputeReward returns principal * annualPercent * elapsed / (100 * annualPeriod) with
// truncating integer division.
func ComputeReward(principal *big.Int, annualPercent uint64, annualPeriod uint64, elapsed uint64) *big.Int {
	if annualPeriod == 0 || principal == nil {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(principal, new(big.Int).SetUint64(annualPercent))
	reward.Mul(reward, new(big.Int).SetUint64(elapsed))
	divisor := new(big.Int).Mul(big.NewInt(100), new(big.Int).SetUint64(annualPeriod))
	return reward.Quo(reward, divisor)
}

func elapsed(from uint64, to uint64) uint64 {
	if to <= from {
		return 0
	}
	return to - from
}

// onHold reports whether the hold period of a cancelled stake is still running at now.
func onHold(params *store.TokenParams, stake *store.Stake, now uint64) bool {
	return elapsed(stake.CancelTime, now) < params.HoldPeriod
}

// withdrawableAt saturates at the largest timestamp instead of wrapping.
func withdrawableAt(params *store.TokenParams, stake *store.Stake) uint64 {
	if params.HoldPeriod > math.MaxUint64-stake.CancelTime {
		return math.MaxUint64
	}
	return stake.CancelTime + params.HoldPeriod
}

func stakeReward(params *store.TokenParams, stake *store.Stake, now uint64) *big.Int {
	if stake.Cancelled() {
		return new(big.Int).Set(stake.Reward)
	}
	return ComputeReward(stake.Amount, params.AnnualPercent, params.AnnualPeriod, elapsed(stake.StartTime, now))
}

// CreateStake moves amount from the liquid balance of staker into a new stake.
func (t *Token) CreateStake(ctx context.Context, staker common.Address, amount *big.Int) (*Receipt, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	now := t.clock.Now()
	if now == 0 {
		return nil, ErrClockNotSet
	}
	return t.execute(ctx, "createStake", func(tx store.Tx, r *Receipt) error {
		if _, err := loadParams(tx); err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return ErrStakeAmountZero
		}
		existing, err := tx.GetStake(staker)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrStakeExists
		}
		balance, err := tx.GetBalance(staker)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return ErrStakeExceedsBalance
		}
		if err := tx.SetBalance(staker, new(big.Int).Sub(balance, amount)); err != nil {
			return err
		}
		if err := tx.PutStake(&store.Stake{
			Staker:    staker,
			Amount:    new(big.Int).Set(amount),
			StartTime: now,
			Reward:    big.NewInt(0),
		}); err != nil {
			return err
		}
		r.emit(&StakeCreatedEvent{Staker: staker, Amount: new(big.Int).Set(amount)})
		return nil
	})
}

// CancelStake stops reward accrual and starts the hold period.
func (t *Token) CancelStake(ctx context.Context, staker common.Address) (*Receipt, error) {
	now := t.clock.Now()
	if now == 0 {
		return nil, ErrClockNotSet
	}
	return t.execute(ctx, "cancelStake", func(tx store.Tx, r *Receipt) error {
		params, err := loadParams(tx)
		if err != nil {
			return err
		}
		stake, err := tx.GetStake(staker)
		if err != nil {
			return err
		}
		if stake == nil {
			return ErrNoStake
		}
		if stake.Cancelled() {
			return ErrStakeAlreadyCancelled
		}
		stake.Reward = ComputeReward(stake.Amount, params.AnnualPercent, params.AnnualPeriod, elapsed(stake.StartTime, now))
		stake.CancelTime = now
		if err := tx.PutStake(stake); err != nil {
			return err
		}
		r.emit(&StakeCancelledEvent{Staker: staker, Reward: new(big.Int).Set(stake.Reward)})
		return nil
	})
}

// WithdrawStake pays principal plus reward back to staker once the hold period is over. The
// reward is minted.
func (t *Token) WithdrawStake(ctx context.Context, staker common.Address) (*Receipt, error) {
	now := t.clock.Now()
	return t.execute(ctx, "withdrawStake", func(tx store.Tx, r *Receipt) error {
		params, err := loadParams(tx)
		if err != nil {
			return err
		}
		stake, err := tx.GetStake(staker)
		if err != nil {
			return err
		}
		if stake == nil {
			return ErrNoStake
		}
		if !stake.Cancelled() {
			return ErrStakeNotCancelled
		}
		if onHold(params, stake, now) {
			return ErrStakeOnHold
		}

		if err := tx.DeleteStake(staker); err != nil {
			return err
		}
		balance, err := tx.GetBalance(staker)
		if err != nil {
			return err
		}
		if err := tx.SetBalance(staker, new(big.Int).Add(balance, stake.Amount)); err != nil {
			return err
		}
		if stake.Reward.Sign() > 0 {
			if err := mint(tx, params, r, staker, stake.Reward); err != nil {
				return err
			}
		}
		r.emit(&StakeWithdrawnEvent{
			Staker: staker,
			Amount: new(big.Int).Set(stake.Amount),
			Reward: new(big.Int).Set(stake.Reward),
		})
		return nil
	})
}

func (t *Token) StakeOf(ctx context.Context, staker common.Address) (*big.Int, error) {
	info, err := t.StakeInfo(ctx, staker)
	if err != nil {
		return nil, err
	}
	return info.Amount, nil
}

func (t *Token) RewardOf(ctx context.Context, staker common.Address) (*big.Int, error) {
	info, err := t.StakeInfo(ctx, staker)
	if err != nil {
		return nil, err
	}
	return info.Reward, nil
}

func (t *Token) StakeInfo(ctx context.Context, staker common.Address) (*StakeInfo, error) {
	now := t.clock.Now()
	var info *StakeInfo
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		stake, err := tx.GetStake(staker)
		if err != nil {
			return err
		}
		info = stakeInfo(params, staker, stake, now)
		return nil
	})
	return info, err
}

// Stakes lists every open stake ordered by staker.
func (t *Token) Stakes(ctx context.Context) ([]*StakeInfo, error) {
	now := t.clock.Now()
	var infos []*StakeInfo
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		stakes, err := tx.ListStakes()
		if err != nil {
			return err
		}
		infos = make([]*StakeInfo, 0, len(stakes))
		for _, stake := range stakes {
			infos = append(infos, stakeInfo(params, stake.Staker, stake, now))
		}
		return nil
	})
	return infos, err
}

func stakeInfo(params *store.TokenParams, staker common.Address, stake *store.Stake, now uint64) *StakeInfo {
	if stake == nil {
		return &StakeInfo{
			Staker: staker,
			State:  StakeState_None,
			Amount: big.NewInt(0),
			Reward: big.NewInt(0),
		}
	}
	info := &StakeInfo{
		Staker:     staker,
		State:      StakeState_Active,
		Amount:     new(big.Int).Set(stake.Amount),
		Reward:     stakeReward(params, stake, now),
		StartTime:  stake.StartTime,
		CancelTime: stake.CancelTime,
	}
	if stake.Cancelled() {
		info.WithdrawableAt = withdrawableAt(params, stake)
		info.State = StakeState_Withdrawable
		if onHold(params, stake, now) {
			info.State = StakeState_OnHold
		}
	}
	return info
}

func (t *Token) BasePeriod(ctx context.Context) (uint64, error) {
	var v uint64
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		v = params.BasePeriod
		return nil
	})
	return v, err
}

func (t *Token) HoldPeriod(ctx context.Context) (uint64, error) {
	var v uint64
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		v = params.HoldPeriod
		return nil
	})
	return v, err
}

func (t *Token) AnnualPercent(ctx context.Context) (uint64, error) {
	var v uint64
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		v = params.AnnualPercent
		return nil
	})
	return v, err
}

func (t *Token) AnnualPeriod(ctx context.Context) (uint64, error) {
	var v uint64
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		v = params.AnnualPeriod
		return nil
	})
	return v, err
}
