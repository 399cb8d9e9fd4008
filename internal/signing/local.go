// Package signing implements the local-custody signer: the account's key
// material lives in-process and signing is synchronous.
package signing

import (
	"context"
	"crypto/ed25519"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"

	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// LocalSigner signs with an in-process ed25519 private key.
type LocalSigner struct {
	privateKey ed25519.PrivateKey
}

// NewLocalSigner creates a signer from raw key material.
func NewLocalSigner(privateKey ed25519.PrivateKey) *LocalSigner {
	return &LocalSigner{privateKey: privateKey}
}

// NewLocalSignerFromMnemonic creates a signer from a 25-word mnemonic.
func NewLocalSignerFromMnemonic(words string) (*LocalSigner, error) {
	privateKey, err := mnemonic.ToPrivateKey(words)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.SDKRejected, err, "mnemonic decode")
	}
	return &LocalSigner{privateKey: privateKey}, nil
}

// SignTransaction signs the composed transaction. The SDK output is the
// conformance oracle: its blob is submitted as-is.
func (s *LocalSigner) SignTransaction(_ context.Context, composed *types.ComposedTransaction) (*types.SignedTransaction, error) {
	txID, blob, err := crypto.SignTransaction(s.privateKey, composed.Txn)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.SDKRejected, err, "local sign")
	}

	return &types.SignedTransaction{
		Composed: composed,
		Blob:     blob,
		TxID:     txID,
	}, nil
}
