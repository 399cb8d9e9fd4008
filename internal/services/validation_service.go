package services

import (
	"fmt"

	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// ValidationService decides whether a transfer is well-formed before any
// submission round-trip. All math is integer minor-units; hard rejections and
// soft confirmation outcomes are distinguished by walleterr.IsSoft.
type ValidationService struct {
	logger *zap.Logger
}

// NewValidationService creates a new ValidationService.
func NewValidationService() *ValidationService {
	return &ValidationService{logger: logger.Log}
}

// ValidateTransferParams carries the inputs of one validation pass. Receiver
// may be nil when no receiver lookup succeeded; the opt-in check is then
// skipped.
type ValidateTransferParams struct {
	Draft    *types.TransactionDraft
	Sender   *types.AccountSnapshot
	Receiver *types.AccountSnapshot
	Params   *types.NetworkParams
	Fee      uint64
}

// ValidateTransfer returns nil when the transfer may proceed, a hard
// validation error otherwise. Soft outcomes (closure confirmation, rekeyed
// max, receiver opt-in) are errors too; callers route them to confirmation or
// side flows instead of the failure path.
func (s *ValidationService) ValidateTransfer(p ValidateTransferParams) error {
	if p.Params == nil || !p.Params.Fresh(nowFunc()) {
		return walleterr.New(walleterr.ParamsFetchFailed, "network parameters missing or stale")
	}
	if p.Sender == nil {
		return walleterr.New(walleterr.AmountExceedsBalance, "sender snapshot missing")
	}

	draft := p.Draft
	if draft.Receiver != "" {
		if _, err := sdktypes.DecodeAddress(draft.Receiver); err != nil {
			return walleterr.Wrap(walleterr.InvalidReceiverAddress, err, draft.Receiver)
		}
	}

	if draft.AssetID != constants.AlgoAssetID {
		return s.validateAssetTransfer(p)
	}
	return s.validatePayment(p)
}

func (s *ValidationService) validateAssetTransfer(p ValidateTransferParams) error {
	draft, sender := p.Draft, p.Sender

	holding, ok := sender.Holding(draft.AssetID)
	if !ok && draft.Kind != types.KindAssetOptIn {
		return walleterr.New(walleterr.AmountExceedsBalance,
			fmt.Sprintf("sender holds no balance of asset %d", draft.AssetID))
	}
	if draft.Kind != types.KindAssetOptIn && draft.Amount > holding.Amount {
		return walleterr.New(walleterr.AmountExceedsBalance,
			fmt.Sprintf("amount %d exceeds asset balance %d", draft.Amount, holding.Amount))
	}

	// The fee is still paid in the native coin and must not break the
	// sender's reserve.
	required := sender.RequiredMinBalance()
	if draft.Kind == types.KindAssetOptIn {
		required += constants.PerAssetMinBalance
	}
	if sender.Balance < p.Fee || sender.Balance-p.Fee < required {
		return walleterr.New(walleterr.BelowMinimumBalance,
			fmt.Sprintf("fee %d would leave balance under the %d reserve", p.Fee, required))
	}

	// Receiving an asset requires a prior opt-in; a missing one triggers the
	// request side flow rather than a hard send failure.
	if draft.Kind == types.KindAssetTransfer && p.Receiver != nil &&
		p.Receiver.Address != sender.Address && !p.Receiver.HoldsAsset(draft.AssetID) {
		return walleterr.New(walleterr.ReceiverNotOptedIntoAsset,
			fmt.Sprintf("receiver %s has not opted into asset %d", p.Receiver.Address, draft.AssetID))
	}

	return nil
}

func (s *ValidationService) validatePayment(p ValidateTransferParams) error {
	draft, sender := p.Draft, p.Sender

	if draft.IsMaxTransaction && !draft.ClosureConfirmed {
		// A max send only empties the account when nothing blocks closure;
		// anything retaining the reserve needs explicit user confirmation.
		if sender.IsRekeyed() {
			return walleterr.New(walleterr.MaxFromRekeyedAccount,
				"account is rekeyed; closing requires the authorizing account")
		}
		if len(sender.HeldAssets) > 0 {
			return walleterr.New(walleterr.MaxRequiresClosureConfirmation,
				fmt.Sprintf("%d held assets keep the minimum-balance reserve locked", len(sender.HeldAssets)))
		}
		if sender.ParticipatesInConsensus {
			return walleterr.New(walleterr.MaxRequiresClosureConfirmation,
				"account participates in consensus; automatic closure is blocked")
		}
	}

	if draft.Amount+p.Fee < draft.Amount { // overflow
		return walleterr.New(walleterr.AmountExceedsBalance, "amount overflow")
	}
	if draft.Amount+p.Fee > sender.Balance {
		return walleterr.New(walleterr.AmountExceedsBalance,
			fmt.Sprintf("amount %d plus fee %d exceeds balance %d", draft.Amount, p.Fee, sender.Balance))
	}

	closing := draft.CloseTo != ""
	remaining := sender.Balance - draft.Amount - p.Fee
	if !closing && remaining < sender.RequiredMinBalance() {
		return walleterr.New(walleterr.BelowMinimumBalance,
			fmt.Sprintf("remaining balance %d is under the %d reserve", remaining, sender.RequiredMinBalance()))
	}

	return nil
}

// MaxSpendableAlgo computes the amount a max transaction may carry. When
// nothing blocks closure the whole balance minus fee is spendable and the
// account closes; otherwise the minimum-balance reserve stays behind.
func (s *ValidationService) MaxSpendableAlgo(sender *types.AccountSnapshot, fee uint64) (amount uint64, closesAccount bool) {
	if sender.Balance <= fee {
		return 0, false
	}
	spendable := sender.Balance - fee

	if len(sender.HeldAssets) == 0 && !sender.ParticipatesInConsensus && !sender.IsRekeyed() {
		return spendable, true
	}

	required := sender.RequiredMinBalance()
	if spendable <= required {
		return 0, false
	}
	return spendable - required, false
}
