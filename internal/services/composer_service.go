package services

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// ComposerService transforms a validated draft plus network parameters into a
// canonical unsigned transaction. Composition is pure: identical inputs yield
// identical bytes, matching the chain SDK's reference encoding.
type ComposerService struct {
	logger *zap.Logger
}

// NewComposerService creates a new ComposerService.
func NewComposerService() *ComposerService {
	return &ComposerService{logger: logger.Log}
}

// Compose builds the transaction for the draft. The receiver must already be
// resolved to a chain address and the amount already converted to minor
// units.
func (s *ComposerService) Compose(draft *types.TransactionDraft, params *types.NetworkParams) (*types.ComposedTransaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, walleterr.Wrap(walleterr.SDKRejected, err, "malformed draft")
	}
	if params == nil {
		return nil, walleterr.New(walleterr.ParamsFetchFailed, "network parameters missing")
	}

	sp := params.Suggested
	if draft.FlatFee != nil {
		// Flat fees are still clamped to the protocol floor.
		fee := *draft.FlatFee
		if floor := params.MinFee(); fee < floor {
			fee = floor
		}
		sp.FlatFee = true
		sp.Fee = sdktypes.MicroAlgos(fee)
	}

	txn, err := s.buildTransaction(draft, sp)
	if err != nil {
		s.logger.Error("Transaction build rejected by SDK",
			zap.String("kind", string(draft.Kind)),
			zap.Error(err),
		)
		return nil, walleterr.Wrap(walleterr.SDKRejected, err, "transaction build")
	}

	raw := msgpack.Encode(txn)
	return &types.ComposedTransaction{
		Kind: draft.Kind,
		Txn:  txn,
		Raw:  raw,
		TxID: crypto.GetTxID(txn),
	}, nil
}

func (s *ComposerService) buildTransaction(draft *types.TransactionDraft, sp sdktypes.SuggestedParams) (sdktypes.Transaction, error) {
	switch draft.Kind {
	case types.KindPayment:
		return transaction.MakePaymentTxn(draft.Sender, draft.Receiver, draft.Amount, draft.Note, draft.CloseTo, sp)

	case types.KindAssetTransfer:
		return transaction.MakeAssetTransferTxn(draft.Sender, draft.Receiver, draft.Amount, draft.Note, sp, "", draft.AssetID)

	case types.KindAssetOptIn:
		// Zero-amount self-transfer registering the holding.
		return transaction.MakeAssetAcceptanceTxn(draft.Sender, draft.Note, sp, draft.AssetID)

	case types.KindAssetOptOut:
		// Transfer of the remaining balance to the creator, closing the
		// holding and reclaiming the per-asset reserve.
		return transaction.MakeAssetTransferTxn(draft.Sender, draft.Receiver, draft.Amount, draft.Note, sp, draft.CloseTo, draft.AssetID)

	case types.KindRekey:
		txn, err := transaction.MakePaymentTxn(draft.Sender, draft.Sender, 0, draft.Note, "", sp)
		if err != nil {
			return sdktypes.Transaction{}, err
		}
		if err := txn.Rekey(draft.RekeyTo); err != nil {
			return sdktypes.Transaction{}, err
		}
		return txn, nil

	case types.KindAppCall:
		return s.buildAppCall(draft, sp)

	default:
		return sdktypes.Transaction{}, fmt.Errorf("unsupported transaction kind: %s", draft.Kind)
	}
}

// buildAppCall assembles an application call as an opaque pass-through. The
// fee follows the flat/suggested policy with the protocol floor as fallback.
func (s *ComposerService) buildAppCall(draft *types.TransactionDraft, sp sdktypes.SuggestedParams) (sdktypes.Transaction, error) {
	sender, err := sdktypes.DecodeAddress(draft.Sender)
	if err != nil {
		return sdktypes.Transaction{}, err
	}

	fee := sp.Fee
	if !sp.FlatFee || fee == 0 {
		fee = sdktypes.MicroAlgos(sp.MinFee)
	}

	var gh sdktypes.Digest
	copy(gh[:], sp.GenesisHash)

	txn := sdktypes.Transaction{
		Type: sdktypes.ApplicationCallTx,
		Header: sdktypes.Header{
			Sender:      sender,
			Fee:         fee,
			FirstValid:  sp.FirstRoundValid,
			LastValid:   sp.LastRoundValid,
			Note:        draft.Note,
			GenesisID:   sp.GenesisID,
			GenesisHash: gh,
		},
		ApplicationFields: sdktypes.ApplicationFields{
			ApplicationCallTxnFields: sdktypes.ApplicationCallTxnFields{
				ApplicationID:   sdktypes.AppIndex(draft.AppCall.AppID),
				ApplicationArgs: draft.AppCall.Args,
				OnCompletion:    sdktypes.NoOpOC,
			},
		},
	}
	return txn, nil
}
