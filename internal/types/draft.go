package types

import (
	"fmt"

	"github.com/perawallet/pera-wallet-core/internal/constants"
)

// TxnKind discriminates the transaction variants the composer supports.
type TxnKind string

const (
	KindPayment       TxnKind = "payment"
	KindAssetTransfer TxnKind = "asset_transfer"
	KindAssetOptIn    TxnKind = "asset_opt_in"
	KindAssetOptOut   TxnKind = "asset_opt_out"
	KindRekey         TxnKind = "rekey"
	KindAppCall       TxnKind = "app_call"
)

// AppCallFields carries an application call as an opaque pass-through; the
// composer does not decompose it further.
type AppCallFields struct {
	AppID uint64
	Args  [][]byte
}

// TransactionDraft is the user intent prior to composition. It is mutated as
// the user edits the flow and consumed exactly once when composition begins;
// it is never persisted.
type TransactionDraft struct {
	Kind TxnKind

	// Sender is the resolved address of the spending account.
	Sender string

	// Receiver is raw user input: a direct address, contact name, in-wallet
	// account name, or name-service name. Resolution happens at compose time.
	Receiver string

	// AssetID selects the asset; constants.AlgoAssetID means the native coin.
	AssetID uint64

	// Amount is in integer minor units of the asset.
	Amount uint64

	Note []byte

	// CloseTo, when set on a payment, closes the account to this address.
	CloseTo string

	// RekeyTo is the new authorizing address for KindRekey drafts.
	RekeyTo string

	// FlatFee overrides the network-suggested fee when non-nil.
	FlatFee *uint64

	// IsMaxTransaction sends the full spendable balance and triggers
	// minimum-balance and account-closure semantics.
	IsMaxTransaction bool

	// ClosureConfirmed records that the user explicitly confirmed a max
	// transaction that cannot fully empty the account.
	ClosureConfirmed bool

	AppCall *AppCallFields
}

// Validate performs the structural checks that do not need an account
// snapshot or network parameters.
func (d *TransactionDraft) Validate() error {
	if d.Sender == "" {
		return fmt.Errorf("sender is required")
	}
	if len(d.Note) > constants.MaxNoteLength {
		return fmt.Errorf("note exceeds %d bytes", constants.MaxNoteLength)
	}
	switch d.Kind {
	case KindPayment, KindAssetTransfer:
		if d.Receiver == "" {
			return fmt.Errorf("receiver is required")
		}
	case KindAssetOptIn, KindAssetOptOut:
		if d.AssetID == constants.AlgoAssetID {
			return fmt.Errorf("asset id is required")
		}
	case KindRekey:
		if d.RekeyTo == "" {
			return fmt.Errorf("rekey target is required")
		}
	case KindAppCall:
		if d.AppCall == nil {
			return fmt.Errorf("application call fields are required")
		}
	default:
		return fmt.Errorf("unknown transaction kind: %s", d.Kind)
	}
	return nil
}
