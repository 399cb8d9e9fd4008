// Package walleterr defines the closed error taxonomy of the transaction
// pipeline. Validation kinds are produced without a network round-trip;
// network and signing kinds surface as a single terminal failure per attempt.
package walleterr

import (
	"errors"
	"fmt"
)

// Kind identifies one failure class of the pipeline.
type Kind string

const (
	AmountExceedsBalance           Kind = "validation.amountExceedsBalance"
	BelowMinimumBalance            Kind = "validation.belowMinimumBalance"
	MaxRequiresClosureConfirmation Kind = "validation.maxTransactionRequiresClosureConfirmation"
	MaxFromRekeyedAccount          Kind = "validation.maxTransactionFromRekeyedAccount"
	InvalidReceiverAddress         Kind = "validation.invalidReceiverAddress"
	ReceiverNotOptedIntoAsset      Kind = "validation.receiverNotOptedIntoAsset"
	ParamsFetchFailed              Kind = "network.paramsFetchFailed"
	SubmissionFailed               Kind = "network.submissionFailed"
	SDKRejected                    Kind = "signing.sdkRejected"
	LedgerTimeout                  Kind = "signing.ledgerTimeout"
	LedgerUserCancelled            Kind = "signing.ledgerUserCancelled"
)

// Error carries a taxonomy kind plus a human-readable reason and an optional
// wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a taxonomy error with a reason.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap attaches a taxonomy kind to an underlying error.
func Wrap(kind Kind, err error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the taxonomy kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsSoft reports whether the kind is a policy outcome requiring explicit user
// confirmation or a side flow, as opposed to a hard rejection.
func IsSoft(kind Kind) bool {
	switch kind {
	case MaxRequiresClosureConfirmation, MaxFromRekeyedAccount, ReceiverNotOptedIntoAsset:
		return true
	}
	return false
}

// IsValidation reports whether the kind was resolved locally, before any
// network round-trip.
func IsValidation(kind Kind) bool {
	switch kind {
	case AmountExceedsBalance, BelowMinimumBalance, MaxRequiresClosureConfirmation,
		MaxFromRekeyedAccount, InvalidReceiverAddress, ReceiverNotOptedIntoAsset:
		return true
	}
	return false
}
