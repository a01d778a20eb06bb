package main

import "github.com/staketoken/airdrop/cmd"

func main() {
	cmd.Execute()
}
