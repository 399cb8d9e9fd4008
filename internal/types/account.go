package types

import "github.com/perawallet/pera-wallet-core/internal/constants"

// AssetHolding is one asset balance of an account.
type AssetHolding struct {
	AssetID  uint64
	Amount   uint64
	IsFrozen bool
}

// AccountSnapshot is a point-in-time read of the sender's on-chain state,
// used for offline validation. Read-only during composition.
type AccountSnapshot struct {
	Address string

	// Balance is the native coin balance in microAlgos.
	Balance uint64

	// ChainMinBalance is the node-reported minimum balance; 0 when unknown.
	ChainMinBalance uint64

	HeldAssets []AssetHolding

	// ParticipatesInConsensus is true while the account is registered online.
	ParticipatesInConsensus bool

	// AuthAddr is the current authorizing address when the account has been
	// rekeyed, empty otherwise.
	AuthAddr string
}

// Holding returns the account's holding of the given asset.
func (s *AccountSnapshot) Holding(assetID uint64) (AssetHolding, bool) {
	for _, h := range s.HeldAssets {
		if h.AssetID == assetID {
			return h, true
		}
	}
	return AssetHolding{}, false
}

// HoldsAsset reports whether the account has opted into the asset.
func (s *AccountSnapshot) HoldsAsset(assetID uint64) bool {
	_, ok := s.Holding(assetID)
	return ok
}

// IsRekeyed reports whether the account's authorizing key differs from its
// address.
func (s *AccountSnapshot) IsRekeyed() bool {
	return s.AuthAddr != "" && s.AuthAddr != s.Address
}

// RequiredMinBalance returns the reserve the account must retain. The
// node-reported value wins when present; otherwise the protocol formula
// base + assets*increment + participation surcharge applies.
func (s *AccountSnapshot) RequiredMinBalance() uint64 {
	if s.ChainMinBalance > 0 {
		return s.ChainMinBalance
	}
	required := constants.BaseMinBalance + uint64(len(s.HeldAssets))*constants.PerAssetMinBalance
	if s.ParticipatesInConsensus {
		required += constants.ParticipationMinBalanceSurcharge
	}
	return required
}
