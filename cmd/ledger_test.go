package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/staketoken/airdrop/internal/config"
	"github.com/staketoken/airdrop/internal/metrics"
	"github.com/staketoken/airdrop/internal/sqlite"
	"github.com/staketoken/airdrop/internal/tests"
	"github.com/staketoken/airdrop/pkg/ledger"
	"github.com/staketoken/airdrop/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerHex = "0x1111111111111111111111111111111111111111"
	aliceHex = "0x2222222222222222222222222222222222222222"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testRuntime(cfg *config.Config) *runtime {
	return &runtime{
		cfg:     cfg,
		logger:  tests.GetLogger(),
		metrics: metrics.NewNoopMetricsSink(),
	}
}

func Test_OpenLedger(t *testing.T) {
	t.Run("Should open a migrated sqlite ledger", func(t *testing.T) {
		r := testRuntime(&config.Config{
			LedgerConfig: config.LedgerConfig{
				Driver:     config.LedgerDriver_Sqlite,
				SqlitePath: sqlite.InMemoryPath(),
			},
		})

		tkn, s, bus, err := openLedger(r)
		require.Nil(t, err)
		defer s.Close()
		assert.NotNil(t, bus)

		_, err = tkn.Owner(context.Background())
		assert.ErrorIs(t, err, ledger.ErrNotInitialized)
	})
	t.Run("Should fail on an unknown driver", func(t *testing.T) {
		r := testRuntime(&config.Config{
			LedgerConfig: config.LedgerConfig{Driver: "mysql"},
		})

		_, _, _, err := openLedger(r)
		assert.EqualError(t, err, "unsupported ledger driver 'mysql'")
	})
}

func Test_LedgerCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ledgerArgs := func(args ...string) []string {
		return append(args, "--ledger.driver", "sqlite", "--ledger.sqlite-path", path)
	}

	out, err := runCommand(t, ledgerArgs("ledger", "init", ownerHex, "1000000000000000000000", "--symbol", "STK")...)
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "OwnershipTransferred "))
	assert.True(t, strings.HasPrefix(lines[1], "MinterAdded "))
	assert.Equal(t, "Transfer from=0x0000000000000000000000000000000000000000 to="+ownerHex+" value=1000000000000000000000", lines[2])

	_, err = runCommand(t, ledgerArgs("ledger", "init", ownerHex, "1")...)
	assert.EqualError(t, err, "Initializable: contract is already initialized")

	out, err = runCommand(t, ledgerArgs("ledger", "transfer", ownerHex, aliceHex, "1500000000000000000")...)
	require.Nil(t, err)
	assert.Equal(t, "Transfer from="+ownerHex+" to="+aliceHex+" value=1500000000000000000\n", out)

	out, err = runCommand(t, ledgerArgs("ledger", "balance", aliceHex)...)
	require.Nil(t, err)
	assert.Equal(t, "1500000000000000000 (1.5 STK)\n", out)

	_, err = runCommand(t, ledgerArgs("ledger", "transfer", aliceHex, ownerHex, "2000000000000000000")...)
	assert.EqualError(t, err, "ERC20: transfer amount exceeds balance")

	out, err = runCommand(t, ledgerArgs("ledger", "stake", "create", aliceHex, "1000000000000000000")...)
	require.Nil(t, err)
	assert.Equal(t, "StakeCreated staker="+aliceHex+" amount=1000000000000000000\n", out)

	out, err = runCommand(t, ledgerArgs("ledger", "stake", "info", aliceHex)...)
	require.Nil(t, err)
	assert.Contains(t, out, "State: active\nAmount: 1000000000000000000\n")

	out, err = runCommand(t, ledgerArgs("ledger", "state-root")...)
	require.Nil(t, err)
	root := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(root, "0x"))
	assert.Len(t, root, 66)
}

func Test_RenderDeployments(t *testing.T) {
	out := &bytes.Buffer{}
	err := renderDeployments(out, []*manifest.Deployment{
		{
			ContractName: "Token",
			ProxyRecord: &manifest.ProxyRecord{
				Address:        "0x3333333333333333333333333333333333333333",
				Version:        "1.0.0",
				Implementation: "0x4444444444444444444444444444444444444444",
				Kind:           "Upgradeable",
			},
		},
	})
	require.Nil(t, err)
	assert.Contains(t, out.String(), "0x3333333333333333333333333333333333333333")
	assert.Contains(t, out.String(), "0x4444444444444444444444444444444444444444")
	assert.Contains(t, out.String(), "Upgradeable")
}
