// Package interfaces collects the collaborator contracts of the transaction
// pipeline so services can be mocked independently.
package interfaces

import (
	"context"

	"github.com/perawallet/pera-wallet-core/internal/types"
)

// ParamsProvider fetches the chain parameters needed to build a valid
// transaction.
type ParamsProvider interface {
	SuggestedParams(ctx context.Context) (types.NetworkParams, error)
}

// AccountDataProvider reads current on-chain account state.
type AccountDataProvider interface {
	AccountSnapshot(ctx context.Context, address string) (*types.AccountSnapshot, error)
}

// Submitter performs the at-most-one submission attempt and confirmation
// tracking for a signed transaction.
type Submitter interface {
	SubmitRawTransaction(ctx context.Context, blob []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txID string, waitRounds uint64) (*types.TransactionResult, error)
}

// TransactionSigner produces a signed transaction from a composed one. The
// local implementation signs synchronously in-process; the ledger
// implementation blocks on out-of-band approval and honors context
// cancellation.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, composed *types.ComposedTransaction) (*types.SignedTransaction, error)
}

// ApprovalSigner is implemented by signers that require out-of-band user
// approval on a named device.
type ApprovalSigner interface {
	TransactionSigner
	DeviceName() string
}

// AddressResolver turns raw receiver input (address, contact, in-wallet
// account, name-service name) into a chain address.
type AddressResolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// EventPublisher publishes transaction lifecycle and opt-in request events to
// interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}
