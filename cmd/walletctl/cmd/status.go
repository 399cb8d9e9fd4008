package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/chain"
	"github.com/perawallet/pera-wallet-core/internal/types"
)

var statusAddress string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show an account's balance, holdings and reserve",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := chain.NewAlgodClient(algodURL, algodToken)
		if err != nil {
			return err
		}
		svc := accounts.NewService(chain.NewAccountService(client))

		snapshot, err := svc.AccountSnapshot(context.Background(), statusAddress)
		if err != nil {
			return err
		}

		fmt.Printf("address:      %s\n", snapshot.Address)
		fmt.Printf("balance:      %s ALGO\n", types.AmountToDecimalString(snapshot.Balance, 6))
		fmt.Printf("min balance:  %s ALGO\n", types.AmountToDecimalString(snapshot.RequiredMinBalance(), 6))
		fmt.Printf("rekeyed:      %v\n", snapshot.IsRekeyed())
		fmt.Printf("online:       %v\n", snapshot.ParticipatesInConsensus)
		for _, h := range snapshot.HeldAssets {
			fmt.Printf("asset %d: %d (frozen: %v)\n", h.AssetID, h.Amount, h.IsFrozen)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAddress, "address", "", "account address")
	_ = statusCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(statusCmd)
}
