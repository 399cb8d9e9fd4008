// Package resolver resolves raw receiver input into a chain address. The
// chain is: in-wallet account name, contact book, name-service name, direct
// address decode.
package resolver

import (
	"context"
	"strings"
	"sync"

	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// ContactStore is an in-memory contact book. Contact management itself lives
// outside this component; the store is only the lookup collaborator.
type ContactStore struct {
	mu       sync.RWMutex
	contacts map[string]string // name -> address
}

// NewContactStore creates an empty ContactStore.
func NewContactStore() *ContactStore {
	return &ContactStore{contacts: make(map[string]string)}
}

// Put adds or replaces a contact.
func (c *ContactStore) Put(name, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contacts[strings.ToLower(name)] = address
}

// Lookup returns the address for a contact name.
func (c *ContactStore) Lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	addr, ok := c.contacts[strings.ToLower(name)]
	return addr, ok
}

// NameService looks up a name-service name (e.g. an .algo NFD).
type NameService interface {
	LookupName(ctx context.Context, name string) (string, error)
}

// ChainResolver implements interfaces.AddressResolver over the lookup chain.
type ChainResolver struct {
	walletAccounts *ContactStore // named in-wallet accounts
	contacts       *ContactStore
	nameService    NameService
	logger         *zap.Logger
}

// NewChainResolver creates a new ChainResolver. nameService may be nil, in
// which case name-service lookups are skipped.
func NewChainResolver(walletAccounts, contacts *ContactStore, nameService NameService) *ChainResolver {
	return &ChainResolver{
		walletAccounts: walletAccounts,
		contacts:       contacts,
		nameService:    nameService,
		logger:         logger.Log,
	}
}

// Resolve turns receiver input into a chain address or reports
// invalidReceiverAddress.
func (r *ChainResolver) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", walleterr.New(walleterr.InvalidReceiverAddress, "empty receiver")
	}

	if r.walletAccounts != nil {
		if addr, ok := r.walletAccounts.Lookup(input); ok {
			return addr, nil
		}
	}
	if r.contacts != nil {
		if addr, ok := r.contacts.Lookup(input); ok {
			return addr, nil
		}
	}

	if r.nameService != nil && strings.Contains(input, ".") {
		addr, err := r.nameService.LookupName(ctx, input)
		if err == nil && addr != "" {
			return addr, nil
		}
		if err != nil {
			r.logger.Debug("Name service lookup failed",
				zap.String("name", input),
				zap.Error(err),
			)
		}
	}

	if _, err := sdktypes.DecodeAddress(input); err != nil {
		return "", walleterr.Wrap(walleterr.InvalidReceiverAddress, err, input)
	}
	return input, nil
}
