// Package cmd implements the walletctl operator CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/perawallet/pera-wallet-core/internal/logger"
)

var (
	algodURL   string
	algodToken string
	mnemonic   string
)

var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "Operator CLI for the wallet transaction pipeline",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger.InitLogger(os.Getenv("STAGE"))
		if algodURL == "" {
			algodURL = os.Getenv("ALGOD_URL")
		}
		if algodToken == "" {
			algodToken = os.Getenv("ALGOD_TOKEN")
		}
		if mnemonic == "" {
			mnemonic = os.Getenv("WALLET_MNEMONIC")
		}
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&algodURL, "algod-url", "", "algod node URL (defaults to ALGOD_URL)")
	rootCmd.PersistentFlags().StringVar(&algodToken, "algod-token", "", "algod API token (defaults to ALGOD_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&mnemonic, "mnemonic", "", "25-word signing mnemonic (defaults to WALLET_MNEMONIC)")
}
