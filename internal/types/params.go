package types

import (
	"time"

	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/perawallet/pera-wallet-core/internal/constants"
)

// NetworkParams wraps the chain parameters needed to build a valid
// transaction. Immutable once fetched; a fresh fetch happens per composition
// attempt.
type NetworkParams struct {
	Suggested sdktypes.SuggestedParams
	FetchedAt time.Time
}

// Fresh reports whether the parameters are still inside their validity
// window at the given instant.
func (p *NetworkParams) Fresh(now time.Time) bool {
	if p == nil || p.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(p.FetchedAt) <= constants.ParamsValidityWindow
}

// MinFee returns the protocol fee floor carried by the parameters, falling
// back to the static constant when the node did not report one.
func (p *NetworkParams) MinFee() uint64 {
	if p != nil && p.Suggested.MinFee > 0 {
		return p.Suggested.MinFee
	}
	return constants.MinTxnFee
}
