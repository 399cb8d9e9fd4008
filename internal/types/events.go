package types

import (
	"github.com/google/uuid"

	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// FlowEventType enumerates the events a transaction flow emits toward the
// presentation layer.
type FlowEventType string

const (
	EventLoading                 FlowEventType = "loading"
	EventSucceeded               FlowEventType = "succeeded"
	EventFailed                  FlowEventType = "failed"
	EventRequiresLedgerApproval  FlowEventType = "requiresLedgerApproval"
	EventLedgerApprovalReset     FlowEventType = "ledgerApprovalReset"
	EventConfirmed               FlowEventType = "confirmed"
	EventOptInRequestedFromOther FlowEventType = "optInRequested"
)

// FlowEvent is one observable state change of a transaction flow.
type FlowEvent struct {
	Type   FlowEventType `json:"type"`
	FlowID uuid.UUID     `json:"flow_id"`

	// TxID is set on succeeded and confirmed events.
	TxID string `json:"tx_id,omitempty"`

	// ConfirmedRound is set once confirmation polling resolves.
	ConfirmedRound uint64 `json:"confirmed_round,omitempty"`

	// FailureKind is set on failed events.
	FailureKind walleterr.Kind `json:"failure_kind,omitempty"`

	// DeviceName is set on requiresLedgerApproval events.
	DeviceName string `json:"device_name,omitempty"`
}
