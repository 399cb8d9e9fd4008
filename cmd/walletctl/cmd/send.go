package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/types"
)

var (
	sendReceiver string
	sendAmount   string
	sendAssetID  uint64
	sendDecimals uint32
	sendNote     string
	sendMax      bool
	sendConfirm  bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a payment or asset transfer",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}

		kind := types.KindPayment
		decimals := constants.AlgoDecimals
		if sendAssetID != constants.AlgoAssetID {
			kind = types.KindAssetTransfer
			decimals = sendDecimals
		}

		draft := &types.TransactionDraft{
			Kind:             kind,
			Sender:           p.address,
			Receiver:         sendReceiver,
			AssetID:          sendAssetID,
			Note:             []byte(sendNote),
			IsMaxTransaction: sendMax,
			ClosureConfirmed: sendConfirm,
		}
		if sendAmount != "" {
			amount, err := types.AmountFromDecimalString(sendAmount, decimals)
			if err != nil {
				return err
			}
			draft.Amount = amount
		}
		if sendReceiver == "" {
			return fmt.Errorf("--to is required")
		}

		return p.runFlow(context.Background(), draft)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendReceiver, "to", "", "receiver address, contact, or name")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "decimal amount")
	sendCmd.Flags().Uint64Var(&sendAssetID, "asset", 0, "asset id (0 sends the native coin)")
	sendCmd.Flags().Uint32Var(&sendDecimals, "decimals", 0, "asset decimal places")
	sendCmd.Flags().StringVar(&sendNote, "note", "", "transaction note")
	sendCmd.Flags().BoolVar(&sendMax, "max", false, "send the full spendable balance")
	sendCmd.Flags().BoolVar(&sendConfirm, "confirm-closure", false, "confirm a max send that cannot close the account")
	rootCmd.AddCommand(sendCmd)
}
