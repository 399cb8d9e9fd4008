// Package accounts layers a TTL cache and pending-send bookkeeping over the
// raw account-data provider. Snapshots are read-only during composition; the
// pending-send mark is the one mutation, applied exactly once after a
// successful submission.
package accounts

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/interfaces"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
)

// Service serves account snapshots from cache and tracks pending sends so
// the same balance cannot be spent twice before the next on-chain refresh.
type Service struct {
	provider interfaces.AccountDataProvider
	cache    *gocache.Cache
	logger   *zap.Logger

	mu sync.Mutex
}

// NewService creates a new accounts Service on top of the given provider.
func NewService(provider interfaces.AccountDataProvider) *Service {
	return &Service{
		provider: provider,
		cache:    gocache.New(constants.AccountSnapshotTTL, 2*constants.AccountSnapshotTTL),
		logger:   logger.Log,
	}
}

// AccountSnapshot returns the cached snapshot for the address, fetching it
// from the provider on a miss.
func (s *Service) AccountSnapshot(ctx context.Context, address string) (*types.AccountSnapshot, error) {
	if cached, ok := s.cache.Get(snapshotKey(address)); ok {
		return cached.(*types.AccountSnapshot), nil
	}

	snapshot, err := s.provider.AccountSnapshot(ctx, address)
	if err != nil {
		return nil, err
	}

	s.cache.Set(snapshotKey(address), snapshot, gocache.DefaultExpiration)
	return snapshot, nil
}

// Invalidate drops the cached snapshot for the address.
func (s *Service) Invalidate(address string) {
	s.cache.Delete(snapshotKey(address))
}

// MarkPendingSend records that (address, assetID) has an in-flight outgoing
// transfer. The snapshot is invalidated so the next read refetches.
func (s *Service) MarkPendingSend(address string, assetID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(pendingKey(address, assetID), true, constants.PendingSendTTL)
	s.cache.Delete(snapshotKey(address))

	s.logger.Debug("Marked pending send",
		zap.String("address", address),
		zap.Uint64("asset_id", assetID),
	)
}

// HasPendingSend reports whether (address, assetID) has an in-flight
// outgoing transfer.
func (s *Service) HasPendingSend(address string, assetID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cache.Get(pendingKey(address, assetID))
	return ok
}

// ClearPendingSend removes the mark, normally after the next on-chain
// refresh reflects the spend.
func (s *Service) ClearPendingSend(address string, assetID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(pendingKey(address, assetID))
}

func snapshotKey(address string) string {
	return "snapshot:" + address
}

func pendingKey(address string, assetID uint64) string {
	return fmt.Sprintf("pending:%s:%d", address, assetID)
}
