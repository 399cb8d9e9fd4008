package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/interfaces"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/monitor"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// FlowState is the position of the send flow in its lifecycle.
type FlowState int32

const (
	StateIdle FlowState = iota
	StateParamsFetching
	StateComposing
	StateAwaitingSignature
	StateSubmitting
	StateCompleted
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParamsFetching:
		return "params_fetching"
	case StateComposing:
		return "composing"
	case StateAwaitingSignature:
		return "awaiting_signature"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// LifecycleEvent is the payload published to downstream consumers when a
// transaction reaches a terminal state.
type LifecycleEvent struct {
	TxID           string         `json:"tx_id,omitempty"`
	Sender         string         `json:"sender"`
	Receiver       string         `json:"receiver,omitempty"`
	AssetID        uint64         `json:"asset_id"`
	Kind           types.TxnKind  `json:"kind"`
	FailureKind    walleterr.Kind `json:"failure_kind,omitempty"`
	ConfirmedRound uint64         `json:"confirmed_round,omitempty"`
}

// OptInRequestEvent asks a receiver to opt into an asset so a blocked
// transfer can proceed.
type OptInRequestEvent struct {
	Receiver  string `json:"receiver"`
	AssetID   uint64 `json:"asset_id"`
	Requester string `json:"requester"`
}

// SendServiceParams wires the collaborators of a SendService.
type SendServiceParams struct {
	Params    interfaces.ParamsProvider
	Accounts  *accounts.Service
	Resolver  interfaces.AddressResolver
	Composer  *ComposerService
	Validator *ValidationService
	Submitter interfaces.Submitter
	Publisher interfaces.EventPublisher
	Metrics   *monitor.Metrics
}

// SendService drives one transaction surface through
// Idle → ParamsFetching → Composing → AwaitingSignature → Submitting →
// Completed. One flow is in flight at a time; a new Send supersedes the
// previous one and the superseded flow's events never reach the stream.
type SendService struct {
	params    interfaces.ParamsProvider
	accounts  *accounts.Service
	resolver  interfaces.AddressResolver
	composer  *ComposerService
	validator *ValidationService
	submitter interfaces.Submitter
	publisher interfaces.EventPublisher
	metrics   *monitor.Metrics
	logger    *zap.Logger

	mu             sync.Mutex
	state          FlowState
	generation     uint64
	cancelInFlight context.CancelFunc

	events chan types.FlowEvent
}

// NewSendService creates a new SendService.
func NewSendService(p SendServiceParams) *SendService {
	return &SendService{
		params:    p.Params,
		accounts:  p.Accounts,
		resolver:  p.Resolver,
		composer:  p.Composer,
		validator: p.Validator,
		submitter: p.Submitter,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    logger.Log,
		state:     StateIdle,
		events:    make(chan types.FlowEvent, 64),
	}
}

// Events is the stream of flow events toward the presentation layer.
func (s *SendService) Events() <-chan types.FlowEvent {
	return s.events
}

// State returns the current flow state.
func (s *SendService) State() FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel aborts the in-flight flow, leaving the service in Idle.
func (s *SendService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelInFlight != nil {
		s.cancelInFlight()
		s.cancelInFlight = nil
	}
	s.state = StateIdle
}

// Send starts a flow for the draft. Any in-flight flow is superseded: its
// pending network fetches are cancelled and its results discarded. The draft
// is consumed; callers must not reuse it.
func (s *SendService) Send(ctx context.Context, draft *types.TransactionDraft, signer interfaces.TransactionSigner) uuid.UUID {
	flowID := uuid.New()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancelInFlight != nil {
		s.cancelInFlight()
	}
	flowCtx, cancel := context.WithCancel(ctx)
	s.cancelInFlight = cancel
	s.state = StateParamsFetching
	s.mu.Unlock()

	go s.run(flowCtx, gen, flowID, draft, signer)
	return flowID
}

func (s *SendService) run(ctx context.Context, gen uint64, flowID uuid.UUID, draft *types.TransactionDraft, signer interfaces.TransactionSigner) {
	s.emit(gen, types.FlowEvent{Type: types.EventLoading, FlowID: flowID})

	// Work on a private copy; the caller's draft stays untouched.
	d := *draft

	np, err := s.params.SuggestedParams(ctx)
	if err != nil {
		s.fail(gen, flowID, err, false)
		return
	}

	if d.Receiver != "" {
		resolved, err := s.resolver.Resolve(ctx, d.Receiver)
		if err != nil {
			s.fail(gen, flowID, err, false)
			return
		}
		d.Receiver = resolved
	}

	s.setState(gen, StateComposing)

	sender, err := s.accounts.AccountSnapshot(ctx, d.Sender)
	if err != nil {
		s.fail(gen, flowID, walleterr.Wrap(walleterr.ParamsFetchFailed, err, "sender lookup"), false)
		return
	}

	if s.accounts.HasPendingSend(d.Sender, d.AssetID) {
		s.fail(gen, flowID, walleterr.New(walleterr.AmountExceedsBalance,
			"a pending outgoing transfer is not yet reflected on chain"), false)
		return
	}

	var receiver *types.AccountSnapshot
	if d.Kind == types.KindAssetTransfer && d.Receiver != d.Sender {
		// Best effort: an unknown receiver only skips the opt-in check.
		receiver, _ = s.accounts.AccountSnapshot(ctx, d.Receiver)
	}

	if d.IsMaxTransaction {
		if err := s.applyMaxAmount(&d, sender, &np); err != nil {
			s.fail(gen, flowID, err, false)
			return
		}
	}

	composed, err := s.composer.Compose(&d, &np)
	if err != nil {
		s.fail(gen, flowID, err, false)
		return
	}

	err = s.validator.ValidateTransfer(ValidateTransferParams{
		Draft:    &d,
		Sender:   sender,
		Receiver: receiver,
		Params:   &np,
		Fee:      composed.Fee(),
	})
	if err != nil {
		if walleterr.Is(err, walleterr.ReceiverNotOptedIntoAsset) {
			s.requestOptIn(ctx, gen, flowID, &d)
		}
		s.fail(gen, flowID, err, false)
		return
	}

	s.setState(gen, StateAwaitingSignature)
	if approval, ok := signer.(interfaces.ApprovalSigner); ok {
		s.emit(gen, types.FlowEvent{
			Type:       types.EventRequiresLedgerApproval,
			FlowID:     flowID,
			DeviceName: approval.DeviceName(),
		})
	}

	signed, err := signer.SignTransaction(ctx, composed)
	if err != nil {
		kind := walleterr.KindOf(err)
		if kind == walleterr.LedgerUserCancelled || kind == walleterr.LedgerTimeout {
			if s.metrics != nil {
				s.metrics.LedgerRejections.Inc()
			}
			s.emit(gen, types.FlowEvent{Type: types.EventLedgerApprovalReset, FlowID: flowID})
			// A rejected ledger session leaves the composer ready for the
			// next attempt rather than parked in Completed.
			s.fail(gen, flowID, err, true)
			return
		}
		s.fail(gen, flowID, err, false)
		return
	}

	s.setState(gen, StateSubmitting)

	start := time.Now()
	txID, err := s.submitter.SubmitRawTransaction(ctx, signed.Blob)
	if err != nil {
		s.fail(gen, flowID, err, false)
		return
	}
	if s.metrics != nil {
		s.metrics.TransactionsSubmitted.WithLabelValues(string(d.Kind)).Inc()
		s.metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	}

	s.accounts.MarkPendingSend(d.Sender, d.AssetID)
	s.emit(gen, types.FlowEvent{Type: types.EventSucceeded, FlowID: flowID, TxID: txID})

	result, err := s.submitter.WaitForConfirmation(ctx, txID, constants.ConfirmationWaitRounds)
	if err != nil {
		// The transaction is out; confirmation is reported when it lands.
		s.logger.Warn("Confirmation wait ended without a confirmed round",
			zap.String("tx_id", txID),
			zap.Error(err),
		)
		s.complete(gen)
		s.publishLifecycle(ctx, &d, txID, 0, "")
		return
	}

	s.emit(gen, types.FlowEvent{
		Type:           types.EventConfirmed,
		FlowID:         flowID,
		TxID:           txID,
		ConfirmedRound: result.ConfirmedRound,
	})
	s.complete(gen)
	s.publishLifecycle(ctx, &d, txID, result.ConfirmedRound, "")
}

func (s *SendService) applyMaxAmount(d *types.TransactionDraft, sender *types.AccountSnapshot, np *types.NetworkParams) error {
	return ApplyMaxAmount(d, sender, np, s.composer, s.validator)
}

// ApplyMaxAmount rewrites the draft amount for a max transaction: the full
// asset holding, or the full spendable native balance with account closure
// when nothing blocks it. The send flow and the validate preview both go
// through here so they agree on the amount actually transmitted.
func ApplyMaxAmount(d *types.TransactionDraft, sender *types.AccountSnapshot, np *types.NetworkParams, composer *ComposerService, validator *ValidationService) error {
	if d.AssetID != constants.AlgoAssetID {
		holding, ok := sender.Holding(d.AssetID)
		if !ok {
			return walleterr.New(walleterr.AmountExceedsBalance, "sender holds no balance of the asset")
		}
		d.Amount = holding.Amount
		return nil
	}

	// Probe composition with the full balance to learn the fee at the upper
	// bound of the encoded size.
	probe := *d
	probe.Amount = sender.Balance
	composed, err := composer.Compose(&probe, np)
	if err != nil {
		return err
	}

	amount, closes := validator.MaxSpendableAlgo(sender, composed.Fee())
	d.Amount = amount
	if closes && d.CloseTo == "" {
		d.CloseTo = d.Receiver
	}
	return nil
}

func (s *SendService) requestOptIn(ctx context.Context, gen uint64, flowID uuid.UUID, d *types.TransactionDraft) {
	if s.metrics != nil {
		s.metrics.OptInRequests.Inc()
	}
	s.emit(gen, types.FlowEvent{Type: types.EventOptInRequestedFromOther, FlowID: flowID})

	if s.publisher == nil {
		return
	}
	event := OptInRequestEvent{Receiver: d.Receiver, AssetID: d.AssetID, Requester: d.Sender}
	if err := s.publisher.Publish(ctx, d.Receiver, event); err != nil {
		s.logger.Warn("Failed to publish opt-in request", zap.Error(err))
	}
}

func (s *SendService) publishLifecycle(ctx context.Context, d *types.TransactionDraft, txID string, round uint64, kind walleterr.Kind) {
	if s.publisher == nil {
		return
	}
	event := LifecycleEvent{
		TxID:           txID,
		Sender:         d.Sender,
		Receiver:       d.Receiver,
		AssetID:        d.AssetID,
		Kind:           d.Kind,
		FailureKind:    kind,
		ConfirmedRound: round,
	}
	if err := s.publisher.Publish(ctx, d.Sender, event); err != nil {
		s.logger.Warn("Failed to publish lifecycle event", zap.Error(err))
	}
}

// emit delivers an event unless the flow has been superseded. The generation
// check and the channel send happen under one lock so a flow superseded
// in between cannot slip a stale event into the stream.
func (s *SendService) emit(gen uint64, event types.FlowEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("Dropped flow event; stream consumer is not keeping up",
			zap.String("type", string(event.Type)),
		)
	}
}

// setState advances the state machine unless the flow has been superseded.
func (s *SendService) setState(gen uint64, state FlowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.state = state
	}
}

func (s *SendService) complete(gen uint64) {
	s.setState(gen, StateCompleted)
}

// fail reports a terminal failure. With toIdle the machine returns to Idle
// instead of Completed (ledger session resets).
func (s *SendService) fail(gen uint64, flowID uuid.UUID, err error, toIdle bool) {
	kind := walleterr.KindOf(err)
	if kind == "" {
		kind = walleterr.SubmissionFailed
	}

	s.mu.Lock()
	current := gen == s.generation
	if current {
		if toIdle {
			s.state = StateIdle
		} else {
			s.state = StateCompleted
		}
	}
	s.mu.Unlock()
	if !current {
		return
	}

	if s.metrics != nil {
		s.metrics.TransactionFailures.WithLabelValues(string(kind)).Inc()
	}
	s.logger.Info("Transaction flow failed",
		zap.String("flow_id", flowID.String()),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)

	s.emit(gen, types.FlowEvent{Type: types.EventFailed, FlowID: flowID, FailureKind: kind})
}
