package store

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/ledger/store/migrations"
	"github.com/staketoken/airdrop/pkg/postgres/helpers"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const paramsRowId = 1

type ledgerParams struct {
	Id            int
	Name          string
	Symbol        string
	Decimals      int
	Owner         string
	TotalSupply   string
	BasePeriod    uint64
	HoldPeriod    uint64
	AnnualPercent uint64
	AnnualPeriod  uint64
}

func (ledgerParams) TableName() string { return "ledger_params" }

type ledgerBalance struct {
	Address string
	Amount  string
}

func (ledgerBalance) TableName() string { return "ledger_balances" }

type ledgerAllowance struct {
	Owner   string
	Spender string
	Amount  string
}

func (ledgerAllowance) TableName() string { return "ledger_allowances" }

type ledgerMinter struct {
	Address string
}

func (ledgerMinter) TableName() string { return "ledger_minters" }

type ledgerStake struct {
	Staker     string
	Amount     string
	StartTime  uint64
	CancelTime uint64
	Reward     string
}

func (ledgerStake) TableName() string { return "ledger_stakes" }

// GormStore persists the ledger through gorm. Amounts are stored as decimal strings and
// addresses as lower case hex.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore runs the ledger migrations on db and returns a store backed by it.
func NewGormStore(db *gorm.DB, l *zap.Logger) (*GormStore, error) {
	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	migrator, err := migrations.NewMigrator(sqlDb, db, l)
	if err != nil {
		return nil, err
	}
	if err := migrator.MigrateAll(); err != nil {
		return nil, errors.Wrap(err, "failed to migrate ledger tables")
	}
	return &GormStore{
		db:     db,
		logger: l,
	}, nil
}

func (g *GormStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	_, err := helpers.WrapTxAndCommit(func(tx *gorm.DB) (interface{}, error) {
		return nil, fn(&gormTx{db: tx})
	}, g.db.WithContext(ctx), nil)
	return err
}

func (g *GormStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, readOnly: true})
	})
}

func (g *GormStore) Close() error {
	sqlDb, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

type gormTx struct {
	db       *gorm.DB
	readOnly bool
}

func addressKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount '%s'", s)
	}
	return v, nil
}

func (t *gormTx) GetParams() (*TokenParams, error) {
	var rows []ledgerParams
	res := t.db.Where("id = ?", paramsRowId).Limit(1).Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	supply, err := parseAmount(row.TotalSupply)
	if err != nil {
		return nil, err
	}
	return &TokenParams{
		Name:          row.Name,
		Symbol:        row.Symbol,
		Decimals:      uint8(row.Decimals),
		Owner:         common.HexToAddress(row.Owner),
		TotalSupply:   supply,
		BasePeriod:    row.BasePeriod,
		HoldPeriod:    row.HoldPeriod,
		AnnualPercent: row.AnnualPercent,
		AnnualPeriod:  row.AnnualPeriod,
	}, nil
}

func (t *gormTx) PutParams(params *TokenParams) error {
	if t.readOnly {
		return ErrReadOnly
	}
	row := &ledgerParams{
		Id:            paramsRowId,
		Name:          params.Name,
		Symbol:        params.Symbol,
		Decimals:      int(params.Decimals),
		Owner:         addressKey(params.Owner),
		TotalSupply:   copyInt(params.TotalSupply).String(),
		BasePeriod:    params.BasePeriod,
		HoldPeriod:    params.HoldPeriod,
		AnnualPercent: params.AnnualPercent,
		AnnualPeriod:  params.AnnualPeriod,
	}
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "symbol", "decimals", "owner", "total_supply", "base_period", "hold_period", "annual_percent", "annual_period"}),
	}).Create(row)
	return res.Error
}

func (t *gormTx) GetBalance(address common.Address) (*big.Int, error) {
	var rows []ledgerBalance
	res := t.db.Where("address = ?", addressKey(address)).Limit(1).Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(rows) == 0 {
		return big.NewInt(0), nil
	}
	return parseAmount(rows[0].Amount)
}

func (t *gormTx) SetBalance(address common.Address, amount *big.Int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if amount == nil || amount.Sign() == 0 {
		return t.db.Where("address = ?", addressKey(address)).Delete(&ledgerBalance{}).Error
	}
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&ledgerBalance{Address: addressKey(address), Amount: amount.String()})
	return res.Error
}

func (t *gormTx) GetAllowance(owner common.Address, spender common.Address) (*big.Int, error) {
	var rows []ledgerAllowance
	res := t.db.Where("owner = ? AND spender = ?", addressKey(owner), addressKey(spender)).Limit(1).Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(rows) == 0 {
		return big.NewInt(0), nil
	}
	return parseAmount(rows[0].Amount)
}

func (t *gormTx) SetAllowance(owner common.Address, spender common.Address, amount *big.Int) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if amount == nil || amount.Sign() == 0 {
		return t.db.Where("owner = ? AND spender = ?", addressKey(owner), addressKey(spender)).Delete(&ledgerAllowance{}).Error
	}
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&ledgerAllowance{Owner: addressKey(owner), Spender: addressKey(spender), Amount: amount.String()})
	return res.Error
}

func (t *gormTx) IsMinter(address common.Address) (bool, error) {
	var count int64
	res := t.db.Model(&ledgerMinter{}).Where("address = ?", addressKey(address)).Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (t *gormTx) SetMinter(address common.Address, minter bool) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if !minter {
		return t.db.Where("address = ?", addressKey(address)).Delete(&ledgerMinter{}).Error
	}
	res := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ledgerMinter{Address: addressKey(address)})
	return res.Error
}

func (t *gormTx) GetStake(staker common.Address) (*Stake, error) {
	var rows []ledgerStake
	res := t.db.Where("staker = ?", addressKey(staker)).Limit(1).Find(&rows)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToStake(&rows[0])
}

func rowToStake(row *ledgerStake) (*Stake, error) {
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return nil, err
	}
	reward, err := parseAmount(row.Reward)
	if err != nil {
		return nil, err
	}
	return &Stake{
		Staker:     common.HexToAddress(row.Staker),
		Amount:     amount,
		StartTime:  row.StartTime,
		CancelTime: row.CancelTime,
		Reward:     reward,
	}, nil
}

func (t *gormTx) PutStake(stake *Stake) error {
	if t.readOnly {
		return ErrReadOnly
	}
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staker"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "start_time", "cancel_time", "reward"}),
	}).Create(&ledgerStake{
		Staker:     addressKey(stake.Staker),
		Amount:     copyInt(stake.Amount).String(),
		StartTime:  stake.StartTime,
		CancelTime: stake.CancelTime,
		Reward:     copyInt(stake.Reward).String(),
	})
	return res.Error
}

func (t *gormTx) DeleteStake(staker common.Address) error {
	if t.readOnly {
		return ErrReadOnly
	}
	return t.db.Where("staker = ?", addressKey(staker)).Delete(&ledgerStake{}).Error
}

func (t *gormTx) ListBalances() ([]*Balance, error) {
	var rows []ledgerBalance
	if res := t.db.Order("address asc").Find(&rows); res.Error != nil {
		return nil, res.Error
	}
	balances := make([]*Balance, 0, len(rows))
	for _, row := range rows {
		amount, err := parseAmount(row.Amount)
		if err != nil {
			return nil, err
		}
		balances = append(balances, &Balance{Address: common.HexToAddress(row.Address), Amount: amount})
	}
	return balances, nil
}

func (t *gormTx) ListAllowances() ([]*Allowance, error) {
	var rows []ledgerAllowance
	if res := t.db.Order("owner asc").Order("spender asc").Find(&rows); res.Error != nil {
		return nil, res.Error
	}
	allowances := make([]*Allowance, 0, len(rows))
	for _, row := range rows {
		amount, err := parseAmount(row.Amount)
		if err != nil {
			return nil, err
		}
		allowances = append(allowances, &Allowance{
			Owner:   common.HexToAddress(row.Owner),
			Spender: common.HexToAddress(row.Spender),
			Amount:  amount,
		})
	}
	return allowances, nil
}

func (t *gormTx) ListMinters() ([]common.Address, error) {
	var rows []ledgerMinter
	if res := t.db.Order("address asc").Find(&rows); res.Error != nil {
		return nil, res.Error
	}
	minters := make([]common.Address, 0, len(rows))
	for _, row := range rows {
		minters = append(minters, common.HexToAddress(row.Address))
	}
	return minters, nil
}

func (t *gormTx) ListStakes() ([]*Stake, error) {
	var rows []ledgerStake
	if res := t.db.Order("staker asc").Find(&rows); res.Error != nil {
		return nil, res.Error
	}
	stakes := make([]*Stake, 0, len(rows))
	for i := range rows {
		stake, err := rowToStake(&rows[i])
		if err != nil {
			return nil, err
		}
		stakes = append(stakes, stake)
	}
	return stakes, nil
}
