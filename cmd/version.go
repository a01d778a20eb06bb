package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/staketoken/airdrop/internal/version"
)

var runVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the airdrop tool",
	Run: func(cmd *cobra.Command, args []string) {
		v := version.GetVersion()
		commit := version.GetCommit()

		fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nCommit: %s\n", v, commit)
	},
}
