package constants

import "time"

// Chain constants. Values mirror the Algorand protocol parameters the wallet
// relies on for offline validation; the chain-reported account minimum balance
// takes precedence when available.
const (
	// AlgoAssetID is the pseudo asset id used for the native coin.
	AlgoAssetID uint64 = 0

	// AlgoDecimals is the number of decimal places of the native coin.
	AlgoDecimals uint32 = 6

	// MinTxnFee is the protocol fee floor in microAlgos.
	MinTxnFee uint64 = 1000

	// BaseMinBalance is the reserve required for a bare account, in microAlgos.
	BaseMinBalance uint64 = 100_000

	// PerAssetMinBalance is the additional reserve per held asset.
	PerAssetMinBalance uint64 = 100_000

	// ParticipationMinBalanceSurcharge is the additional reserve while the
	// account is registered online for consensus.
	ParticipationMinBalanceSurcharge uint64 = 0

	// MaxNoteLength is the maximum transaction note size in bytes.
	MaxNoteLength = 1024
)

// Pipeline constants.
const (
	// ParamsValidityWindow bounds how stale fetched network parameters may be
	// before a composition attempt must refetch them.
	ParamsValidityWindow = 30 * time.Second

	// ConfirmationWaitRounds bounds how many rounds submission waits for a
	// confirmation before reporting the transaction as still pending.
	ConfirmationWaitRounds uint64 = 10

	// ConfirmationPollInterval is the wait between pending-transaction polls.
	ConfirmationPollInterval = 2 * time.Second

	// AccountSnapshotTTL is how long a fetched account snapshot is served from
	// cache before the provider is asked again.
	AccountSnapshotTTL = 15 * time.Second

	// PendingSendTTL is how long a pending-send mark blocks a second spend of
	// the same (account, asset) balance before the next on-chain refresh.
	PendingSendTTL = 2 * time.Minute

	// LedgerApprovalTimeout is the transport timeout for an out-of-band
	// hardware approval.
	LedgerApprovalTimeout = 90 * time.Second
)

// Environment stages.
const (
	ProdEnvironment = "production"
	DevEnvironment  = "development"
	TestEnvironment = "test"
)
