package types

import (
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// ComposedTransaction is the canonical binary encoding of a draft plus the
// computed fee and resolved addresses. Encoding is byte-for-byte reproducible
// for identical semantic input; the composition step owns it exclusively
// until it is handed to the signer.
type ComposedTransaction struct {
	Kind TxnKind
	Txn  sdktypes.Transaction

	// Raw is the canonical msgpack encoding of the unsigned transaction.
	Raw []byte

	// TxID is the transaction id derived from Raw.
	TxID string
}

// Fee returns the computed fee in microAlgos.
func (c *ComposedTransaction) Fee() uint64 {
	return uint64(c.Txn.Fee)
}

// SignedTransaction is a composed transaction plus its signature blob, ready
// for submission. Transient; ownership transfers to the submission step.
type SignedTransaction struct {
	Composed *ComposedTransaction

	// Blob is the msgpack-encoded signed transaction accepted by the chain.
	Blob []byte

	TxID string
}

// TransactionResult is the terminal outcome of one submission attempt.
type TransactionResult struct {
	TxID           string
	ConfirmedRound uint64

	// FailureKind is empty on success.
	FailureKind walleterr.Kind
}
