package signing

import (
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/crypto"

	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// KeyStore holds the local-custody signers by account address. Key material
// never leaves the process.
type KeyStore struct {
	mu      sync.RWMutex
	signers map[string]*LocalSigner
}

// NewKeyStore creates an empty KeyStore.
func NewKeyStore() *KeyStore {
	return &KeyStore{signers: make(map[string]*LocalSigner)}
}

// AddMnemonic derives the account from a 25-word mnemonic and registers its
// signer. Returns the account address.
func (k *KeyStore) AddMnemonic(words string) (string, error) {
	signer, err := NewLocalSignerFromMnemonic(words)
	if err != nil {
		return "", err
	}

	account, err := crypto.AccountFromPrivateKey(signer.privateKey)
	if err != nil {
		return "", walleterr.Wrap(walleterr.SDKRejected, err, "account derivation")
	}
	address := account.Address.String()

	k.mu.Lock()
	k.signers[address] = signer
	k.mu.Unlock()
	return address, nil
}

// SignerFor returns the local signer for the address.
func (k *KeyStore) SignerFor(address string) (*LocalSigner, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	signer, ok := k.signers[address]
	return signer, ok
}

// Addresses lists the registered account addresses.
func (k *KeyStore) Addresses() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	addresses := make([]string, 0, len(k.signers))
	for address := range k.signers {
		addresses = append(addresses, address)
	}
	return addresses
}
