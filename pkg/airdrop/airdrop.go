package airdrop

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/staketoken/airdrop/internal/metrics"
	"github.com/staketoken/airdrop/internal/metrics/metricsTypes"
	"github.com/staketoken/airdrop/pkg/contracts/token"
	"github.com/staketoken/airdrop/pkg/manifest"
	"github.com/staketoken/airdrop/pkg/recipients"
	"go.uber.org/zap"
)

var (
	ErrNoDeployment        = manifest.ErrNoDeployment
	ErrInsufficientBalance = errors.New("Token balance not enough")
	ErrNoRecipients        = errors.New("No recipients")
	ErrAccountNotFound     = errors.New("Airdrop account not found")
)

// DeploymentResolver finds the address of the deployed contract called name.
type DeploymentResolver interface {
	ResolveContract(ctx context.Context, name string) (common.Address, error)
}

type TokenClient interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Airdrop(ctx context.Context, tx *token.AirdropTx) (*token.AirdropReceipt, error)
}

// TokenBinder returns a client of the token deployed at address.
type TokenBinder interface {
	Bind(address common.Address) (TokenClient, error)
}

type AccountProvider interface {
	Accounts(ctx context.Context) ([]common.Address, error)
}

type Request struct {
	Network        string
	ContractName   string
	RecipientsFile string
	AccountId      int
	// Amount is sent to every recipient, in base units
	Amount   *big.Int
	GasLimit uint64
	// GasPrice may be nil to let the wallet pick one
	GasPrice *big.Int

	// StrictBalanceCheck fails when the balance does not cover every recipient instead of
	// only warning about it.
	StrictBalanceCheck bool

	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	ReportFile          string
}

type Result struct {
	RunId           string
	Network         string
	Contract        common.Address
	Operator        common.Address
	Amount          *big.Int
	Recipients      []common.Address
	RecipientsRoot  string
	TransactionHash string
	BlockNumber     uint64
	TransferCount   int
}

type Service struct {
	resolver DeploymentResolver
	binder   TokenBinder
	accounts AccountProvider
	out      io.Writer
	spinner  io.Writer
	metrics  *metrics.MetricsSink
	logger   *zap.Logger
}

// NewService returns a service that writes its progress lines to out.
func NewService(
	resolver DeploymentResolver,
	binder TokenBinder,
	accounts AccountProvider,
	out io.Writer,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *Service {
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &Service{
		resolver: resolver,
		binder:   binder,
		accounts: accounts,
		out:      out,
		metrics:  ms,
		logger:   l,
	}
}

// EnableSpinner shows a spinner on w while the airdrop transaction is pending.
func (s *Service) EnableSpinner(w io.Writer) {
	s.spinner = w
}

func (s *Service) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func (s *Service) fail(reason string, err error) error {
	if merr := s.metrics.Incr(metricsTypes.Metric_Incr_AirdropFailed, []metricsTypes.MetricsLabel{
		{Name: "reason", Value: reason},
	}, 1); merr != nil {
		s.logger.Sugar().Warnw("Failed to record airdrop metric", zap.Error(merr))
	}
	s.logger.Sugar().Debugw("Airdrop failed",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return err
}

// Run resolves the token and the operator account, checks the operator balance, loads the
// recipients and submits a single airdrop transaction. Nothing is submitted when a
// precondition fails.
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.Amount == nil || req.Amount.Sign() < 0 {
		return nil, errors.New("airdrop amount must not be negative")
	}
	result := &Result{
		RunId:   uuid.New().String(),
		Network: req.Network,
		Amount:  new(big.Int).Set(req.Amount),
	}
	if err := s.metrics.Incr(metricsTypes.Metric_Incr_AirdropRun, nil, 1); err != nil {
		s.logger.Sugar().Warnw("Failed to record airdrop metric", zap.Error(err))
	}
	s.logger.Sugar().Debugw("Starting airdrop",
		zap.String("runId", result.RunId),
		zap.String("network", req.Network),
	)

	contract, err := s.resolver.ResolveContract(ctx, req.ContractName)
	if err != nil {
		return nil, s.fail("deployment", err)
	}
	result.Contract = contract
	s.printf("Using contract %s\n", contract.Hex())

	tokenClient, err := s.binder.Bind(contract)
	if err != nil {
		return nil, s.fail("bind", err)
	}

	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, s.fail("accounts", err)
	}
	if req.AccountId < 0 || req.AccountId >= len(accounts) {
		return nil, s.fail("account", errors.Wrapf(ErrAccountNotFound, "index %d of %d accounts", req.AccountId, len(accounts)))
	}
	operator := accounts[req.AccountId]
	result.Operator = operator
	s.printf("Using %s account for airdrop\n", operator.Hex())
	s.printf("Airdrop amount %s per address\n", req.Amount.String())

	s.printf("Check token balance...")
	balance, err := tokenClient.BalanceOf(ctx, operator)
	if err != nil {
		return nil, s.fail("balance", err)
	}
	if balance.Cmp(req.Amount) < 0 {
		return nil, s.fail("balance", ErrInsufficientBalance)
	}
	s.printf(" Ok\n")

	s.printf("Reading file %s... ", req.RecipientsFile)
	addresses, err := recipients.ReadFile(req.RecipientsFile)
	if err != nil {
		return nil, s.fail("recipients", err)
	}
	s.printf("loaded %d addresses\n", len(addresses))
	if len(addresses) == 0 {
		return nil, s.fail("recipients", ErrNoRecipients)
	}
	result.Recipients = addresses

	total := new(big.Int).Mul(req.Amount, big.NewInt(int64(len(addresses))))
	if balance.Cmp(total) < 0 {
		if req.StrictBalanceCheck {
			return nil, s.fail("balance", errors.Wrapf(ErrInsufficientBalance, "%s needed for %d recipients, have %s", total, len(addresses), balance))
		}
		s.logger.Sugar().Warnw("Balance does not cover every recipient, the transaction will likely revert",
			zap.String("balance", balance.String()),
			zap.String("required", total.String()),
			zap.Int("recipients", len(addresses)),
		)
	}

	root, err := recipients.Root(addresses)
	if err != nil {
		return nil, s.fail("recipients", err)
	}
	result.RecipientsRoot = root
	s.logger.Sugar().Infow("Recipients loaded",
		zap.Int("count", len(addresses)),
		zap.String("root", root),
	)
	if err := s.metrics.Gauge(metricsTypes.Metric_Gauge_AirdropRecipients, float64(len(addresses)), nil); err != nil {
		s.logger.Sugar().Warnw("Failed to record airdrop metric", zap.Error(err))
	}

	s.printf("Sending transaction... ")
	var bar *progressbar.ProgressBar
	if s.spinner != nil {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(s.spinner),
			progressbar.OptionSetDescription("waiting for receipt"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}
	startedAt := time.Now()
	receipt, err := tokenClient.Airdrop(ctx, &token.AirdropTx{
		From:                operator,
		Amount:              req.Amount,
		Recipients:          addresses,
		GasLimit:            req.GasLimit,
		GasPrice:            req.GasPrice,
		ReceiptTimeout:      req.ReceiptTimeout,
		ReceiptPollInterval: req.ReceiptPollInterval,
		OnPending: func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, s.fail("submit", err)
	}
	if err := s.metrics.Timing(metricsTypes.Metric_Timing_AirdropSubmitDuration, time.Since(startedAt), nil); err != nil {
		s.logger.Sugar().Warnw("Failed to record airdrop metric", zap.Error(err))
	}

	result.TransactionHash = receipt.TransactionHash
	result.BlockNumber = receipt.BlockNumber
	result.TransferCount = len(receipt.Transfers)
	s.printf(" hash: %s\n", receipt.TransactionHash)
	s.printf("Tokens transferred to %d recipients\n", result.TransferCount)

	if req.ReportFile != "" {
		if err := WriteReportFile(req.ReportFile, result); err != nil {
			return result, err
		}
		s.logger.Sugar().Infow("Wrote airdrop report", zap.String("file", req.ReportFile))
	}
	return result, nil
}
