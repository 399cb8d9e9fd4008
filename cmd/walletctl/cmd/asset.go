package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/perawallet/pera-wallet-core/internal/types"
)

var (
	optInAssetID   uint64
	optOutAssetID  uint64
	optOutCreator  string
	rekeyToAddress string
)

var optInCmd = &cobra.Command{
	Use:   "optin",
	Short: "Opt the account into an asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		draft := &types.TransactionDraft{
			Kind:    types.KindAssetOptIn,
			Sender:  p.address,
			AssetID: optInAssetID,
		}
		return p.runFlow(context.Background(), draft)
	},
}

var optOutCmd = &cobra.Command{
	Use:   "optout",
	Short: "Opt the account out of an asset, closing the holding to its creator",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		draft := &types.TransactionDraft{
			Kind:     types.KindAssetOptOut,
			Sender:   p.address,
			Receiver: optOutCreator,
			CloseTo:  optOutCreator,
			AssetID:  optOutAssetID,
		}
		return p.runFlow(context.Background(), draft)
	},
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Reassign the account's authorizing key",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		draft := &types.TransactionDraft{
			Kind:    types.KindRekey,
			Sender:  p.address,
			RekeyTo: rekeyToAddress,
		}
		return p.runFlow(context.Background(), draft)
	},
}

func init() {
	optInCmd.Flags().Uint64Var(&optInAssetID, "asset", 0, "asset id")
	_ = optInCmd.MarkFlagRequired("asset")

	optOutCmd.Flags().Uint64Var(&optOutAssetID, "asset", 0, "asset id")
	optOutCmd.Flags().StringVar(&optOutCreator, "creator", "", "asset creator address")
	_ = optOutCmd.MarkFlagRequired("asset")
	_ = optOutCmd.MarkFlagRequired("creator")

	rekeyCmd.Flags().StringVar(&rekeyToAddress, "to", "", "new authorizing address")
	_ = rekeyCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(optInCmd, optOutCmd, rekeyCmd)
}
