package main

import "github.com/perawallet/pera-wallet-core/cmd/walletctl/cmd"

func main() {
	cmd.Execute()
}
