package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/staketoken/airdrop/pkg/eventBus/eventBusTypes"
	"github.com/staketoken/airdrop/pkg/ledger"
	"github.com/staketoken/airdrop/pkg/types/numbers"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Operate the local token ledger",
}

var ledgerInitCmd = &cobra.Command{
	Use:   "init <owner> <initial-supply>",
	Short: "Initialize the ledger token and mint the initial supply to the owner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		supply, err := numbers.ParseBaseUnits(args[1])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		symbol, _ := flags.GetString("symbol")
		decimals, _ := flags.GetUint8("decimals")
		basePeriod, _ := flags.GetDuration("base-period")
		holdPeriod, _ := flags.GetDuration("hold-period")
		annualPercent, _ := flags.GetUint64("annual-percent")
		annualPeriod, _ := flags.GetDuration("annual-period")

		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.Initialize(ctx, &ledger.InitializeParams{
				Name:          name,
				Symbol:        symbol,
				Decimals:      decimals,
				InitialSupply: supply,
				Owner:         owner,
				BasePeriod:    seconds(basePeriod),
				HoldPeriod:    seconds(holdPeriod),
				AnnualPercent: annualPercent,
				AnnualPeriod:  seconds(annualPeriod),
			})
		})
	},
}

var ledgerBalanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show the token balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ledgerRead(cmd, func(ctx context.Context, t *ledger.Token, out io.Writer) error {
			params, err := t.Params(ctx)
			if err != nil {
				return err
			}
			balance, err := t.BalanceOf(ctx, account)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s %s)\n", balance.String(), numbers.FormatUnits(balance, params.Decimals), params.Symbol)
			return nil
		})
	},
}

var ledgerHoldersCmd = &cobra.Command{
	Use:   "holders",
	Short: "List every address holding tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ledgerRead(cmd, func(ctx context.Context, t *ledger.Token, out io.Writer) error {
			holders, err := t.Holders(ctx)
			if err != nil {
				return err
			}
			for _, h := range holders {
				fmt.Fprintf(out, "%s %s\n", h.Address.Hex(), h.Amount.String())
			}
			return nil
		})
	},
}

var ledgerTransferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Transfer tokens between two addresses",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, amount, err := parseTransferArgs(args)
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.Transfer(ctx, from, to, amount)
		})
	},
}

var ledgerMintCmd = &cobra.Command{
	Use:   "mint <minter> <to> <amount>",
	Short: "Mint new tokens",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		minter, to, amount, err := parseTransferArgs(args)
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.Mint(ctx, minter, to, amount)
		})
	},
}

var ledgerBurnCmd = &cobra.Command{
	Use:   "burn <minter> <account> <amount>",
	Short: "Burn tokens held by an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		minter, account, amount, err := parseTransferArgs(args)
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.Burn(ctx, minter, account, amount)
		})
	},
}

var ledgerStakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Create, cancel, withdraw and inspect stakes",
}

var ledgerStakeCreateCmd = &cobra.Command{
	Use:   "create <staker> <amount>",
	Short: "Stake tokens from the liquid balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		staker, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := numbers.ParseBaseUnits(args[1])
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.CreateStake(ctx, staker, amount)
		})
	},
}

var ledgerStakeCancelCmd = &cobra.Command{
	Use:   "cancel <staker>",
	Short: "Cancel a stake and start its hold period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		staker, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.CancelStake(ctx, staker)
		})
	},
}

var ledgerStakeWithdrawCmd = &cobra.Command{
	Use:   "withdraw <staker>",
	Short: "Withdraw a cancelled stake and its reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		staker, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ledgerWrite(cmd, func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error) {
			return t.WithdrawStake(ctx, staker)
		})
	},
}

var ledgerStakeInfoCmd = &cobra.Command{
	Use:   "info <staker>",
	Short: "Show the stake of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		staker, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return ledgerRead(cmd, func(ctx context.Context, t *ledger.Token, out io.Writer) error {
			info, err := t.StakeInfo(ctx, staker)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Staker: %s\nState: %s\nAmount: %s\nReward: %s\n", info.Staker.Hex(), info.State, info.Amount, info.Reward)
			if info.State != ledger.StakeState_None {
				fmt.Fprintf(out, "Started: %s\n", formatTime(info.StartTime))
			}
			if info.CancelTime != 0 {
				fmt.Fprintf(out, "Cancelled: %s\nWithdrawable: %s\n", formatTime(info.CancelTime), formatTime(info.WithdrawableAt))
			}
			return nil
		})
	},
}

var ledgerStateRootCmd = &cobra.Command{
	Use:   "state-root",
	Short: "Print the merkle root of the ledger state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ledgerRead(cmd, func(ctx context.Context, t *ledger.Token, out io.Writer) error {
			root, err := t.StateRoot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, root)
			return nil
		})
	},
}

func init() {
	ledgerInitCmd.Flags().String("name", "Token", "Token name")
	ledgerInitCmd.Flags().String("symbol", "TKN", "Token symbol")
	ledgerInitCmd.Flags().Uint8("decimals", 18, "Token decimals")
	ledgerInitCmd.Flags().Duration("base-period", 24*time.Hour, "Stake base period")
	ledgerInitCmd.Flags().Duration("hold-period", 21*24*time.Hour, "Time a cancelled stake is held before it can be withdrawn")
	ledgerInitCmd.Flags().Uint64("annual-percent", 12, "Yearly stake reward in percent")
	ledgerInitCmd.Flags().Duration("annual-period", 365*24*time.Hour, "Length of the reward year")

	ledgerStakeCmd.AddCommand(ledgerStakeCreateCmd)
	ledgerStakeCmd.AddCommand(ledgerStakeCancelCmd)
	ledgerStakeCmd.AddCommand(ledgerStakeWithdrawCmd)
	ledgerStakeCmd.AddCommand(ledgerStakeInfoCmd)

	ledgerCmd.AddCommand(ledgerInitCmd)
	ledgerCmd.AddCommand(ledgerBalanceCmd)
	ledgerCmd.AddCommand(ledgerHoldersCmd)
	ledgerCmd.AddCommand(ledgerTransferCmd)
	ledgerCmd.AddCommand(ledgerMintCmd)
	ledgerCmd.AddCommand(ledgerBurnCmd)
	ledgerCmd.AddCommand(ledgerStakeCmd)
	ledgerCmd.AddCommand(ledgerStateRootCmd)
}

func seconds(d time.Duration) uint64 {
	return uint64(d / time.Second)
}

func formatTime(unix uint64) string {
	return time.Unix(int64(unix), 0).UTC().Format(time.RFC3339)
}

func parseTransferArgs(args []string) (from, to common.Address, amount *big.Int, err error) {
	if from, err = parseAddress(args[0]); err != nil {
		return
	}
	if to, err = parseAddress(args[1]); err != nil {
		return
	}
	amount, err = numbers.ParseBaseUnits(args[2])
	return
}

func ledgerRead(cmd *cobra.Command, fn func(ctx context.Context, t *ledger.Token, out io.Writer) error) error {
	r, err := newRuntime("")
	if err != nil {
		return err
	}
	defer r.close()

	t, s, _, err := openLedger(r)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), t, cmd.OutOrStdout())
}

// ledgerWrite runs one state changing call and prints the events it emitted.
func ledgerWrite(cmd *cobra.Command, fn func(ctx context.Context, t *ledger.Token) (*ledger.Receipt, error)) error {
	r, err := newRuntime("")
	if err != nil {
		return err
	}
	defer r.close()

	t, s, bus, err := openLedger(r)
	if err != nil {
		return err
	}
	defer s.Close()

	consumer := &eventBusTypes.Consumer{
		Id:      "ledger-cli",
		Context: cmd.Context(),
		Channel: make(chan *eventBusTypes.Event, 1000),
	}
	bus.Subscribe(consumer)
	defer bus.Unsubscribe(consumer)

	if _, err := fn(cmd.Context(), t); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case e := <-consumer.Channel:
			fmt.Fprintf(out, "%s %s\n", e.Name, formatEvent(e.Data))
		default:
			return nil
		}
	}
}

func formatEvent(data any) string {
	switch e := data.(type) {
	case *ledger.TransferEvent:
		return fmt.Sprintf("from=%s to=%s value=%s", e.From.Hex(), e.To.Hex(), e.Value)
	case *ledger.ApprovalEvent:
		return fmt.Sprintf("owner=%s spender=%s value=%s", e.Owner.Hex(), e.Spender.Hex(), e.Value)
	case *ledger.OwnershipTransferredEvent:
		return fmt.Sprintf("previousOwner=%s newOwner=%s", e.PreviousOwner.Hex(), e.NewOwner.Hex())
	case *ledger.MinterAddedEvent:
		return fmt.Sprintf("account=%s", e.Account.Hex())
	case *ledger.MinterRemovedEvent:
		return fmt.Sprintf("account=%s", e.Account.Hex())
	case *ledger.StakeCreatedEvent:
		return fmt.Sprintf("staker=%s amount=%s", e.Staker.Hex(), e.Amount)
	case *ledger.StakeCancelledEvent:
		return fmt.Sprintf("staker=%s reward=%s", e.Staker.Hex(), e.Reward)
	case *ledger.StakeWithdrawnEvent:
		return fmt.Sprintf("staker=%s amount=%s reward=%s", e.Staker.Hex(), e.Amount, e.Reward)
	default:
		return fmt.Sprintf("%+v", data)
	}
}
