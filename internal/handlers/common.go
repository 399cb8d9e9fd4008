package handlers

import (
	"sync"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/interfaces"
	"github.com/perawallet/pera-wallet-core/internal/ledger"
	"github.com/perawallet/pera-wallet-core/internal/monitor"
	"github.com/perawallet/pera-wallet-core/internal/services"
	"github.com/perawallet/pera-wallet-core/internal/signing"
)

// CommonServices bundles the shared service dependencies for handlers.
type CommonServices struct {
	Params    interfaces.ParamsProvider
	Accounts  *accounts.Service
	Resolver  interfaces.AddressResolver
	Composer  *services.ComposerService
	Validator *services.ValidationService
	Submitter interfaces.Submitter
	Publisher interfaces.EventPublisher
	Metrics   *monitor.Metrics
	Keys      *signing.KeyStore
	Bridge    *ledger.BridgeSigner
}

// NewCommonServices creates a new CommonServices instance.
func NewCommonServices(c CommonServices) *CommonServices {
	return &c
}

// FlowManager keeps one SendService per UI surface, preserving the
// single-in-flight-flow-per-surface model over HTTP.
type FlowManager struct {
	mu       sync.Mutex
	surfaces map[string]*services.SendService
	factory  func() *services.SendService
}

// NewFlowManager creates a FlowManager producing services from factory.
func NewFlowManager(factory func() *services.SendService) *FlowManager {
	return &FlowManager{
		surfaces: make(map[string]*services.SendService),
		factory:  factory,
	}
}

// Surface returns the SendService for the surface id, creating it on first
// use.
func (m *FlowManager) Surface(id string) *services.SendService {
	m.mu.Lock()
	defer m.mu.Unlock()
	if svc, ok := m.surfaces[id]; ok {
		return svc
	}
	svc := m.factory()
	m.surfaces[id] = svc
	return svc
}
