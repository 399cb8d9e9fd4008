// Package chain implements the pipeline's collaborator interfaces against an
// Algorand node (algod). The SDK is the encoding/signing oracle; this package
// only moves bytes and maps node models onto pipeline types.
package chain

import (
	"context"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// NewAlgodClient connects to an algod node.
func NewAlgodClient(url, token string) (*algod.Client, error) {
	client, err := algod.MakeClient(url, token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create algod client")
	}
	return client, nil
}

// ParamsService fetches suggested transaction parameters.
type ParamsService struct {
	client *algod.Client
	logger *zap.Logger
}

// NewParamsService creates a new ParamsService.
func NewParamsService(client *algod.Client) *ParamsService {
	return &ParamsService{client: client, logger: logger.Log}
}

// SuggestedParams fetches fresh network parameters. The result is treated as
// immutable and carries its fetch time for the validity-window check.
func (s *ParamsService) SuggestedParams(ctx context.Context) (types.NetworkParams, error) {
	sp, err := s.client.SuggestedParams().Do(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch suggested params", zap.Error(err))
		return types.NetworkParams{}, walleterr.Wrap(walleterr.ParamsFetchFailed, err, "suggested params fetch")
	}

	return types.NetworkParams{Suggested: sp, FetchedAt: time.Now()}, nil
}

// AccountService reads on-chain account state.
type AccountService struct {
	client *algod.Client
	logger *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(client *algod.Client) *AccountService {
	return &AccountService{client: client, logger: logger.Log}
}

// AccountSnapshot fetches the account's balance, holdings, participation and
// rekey status.
func (s *AccountService) AccountSnapshot(ctx context.Context, address string) (*types.AccountSnapshot, error) {
	info, err := s.client.AccountInformation(address).Do(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch account information",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, errors.Wrapf(err, "account lookup for %s", address)
	}

	snapshot := &types.AccountSnapshot{
		Address:                 address,
		Balance:                 info.Amount,
		ChainMinBalance:         info.MinBalance,
		ParticipatesInConsensus: info.Status == "Online",
		AuthAddr:                info.AuthAddr,
	}
	for _, holding := range info.Assets {
		snapshot.HeldAssets = append(snapshot.HeldAssets, types.AssetHolding{
			AssetID:  holding.AssetId,
			Amount:   holding.Amount,
			IsFrozen: holding.IsFrozen,
		})
	}

	return snapshot, nil
}

// SubmissionService submits signed transactions and tracks confirmation.
type SubmissionService struct {
	client       *algod.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(client *algod.Client) *SubmissionService {
	return &SubmissionService{
		client:       client,
		pollInterval: constants.ConfirmationPollInterval,
		logger:       logger.Log,
	}
}

// SubmitRawTransaction performs a single submission attempt. No retry is
// layered on top; a failure surfaces directly to the flow.
func (s *SubmissionService) SubmitRawTransaction(ctx context.Context, blob []byte) (string, error) {
	txID, err := s.client.SendRawTransaction(blob).Do(ctx)
	if err != nil {
		s.logger.Error("Transaction submission failed", zap.Error(err))
		return "", walleterr.Wrap(walleterr.SubmissionFailed, err, "send raw transaction")
	}

	s.logger.Info("Transaction submitted", zap.String("tx_id", txID))
	return txID, nil
}

// WaitForConfirmation polls pending-transaction status until the transaction
// is confirmed, rejected by the pool, or the round budget is exhausted.
func (s *SubmissionService) WaitForConfirmation(ctx context.Context, txID string, waitRounds uint64) (*types.TransactionResult, error) {
	status, err := s.client.Status().Do(ctx)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.SubmissionFailed, err, "node status")
	}
	lastRound := status.LastRound + waitRounds

	var result *types.TransactionResult
	poll := func() error {
		pending, _, err := s.client.PendingTransactionInformation(txID).Do(ctx)
		if err != nil {
			return backoff.Permanent(walleterr.Wrap(walleterr.SubmissionFailed, err, "pending transaction lookup"))
		}
		if pending.PoolError != "" {
			return backoff.Permanent(walleterr.New(walleterr.SubmissionFailed, pending.PoolError))
		}
		if pending.ConfirmedRound > 0 {
			result = &types.TransactionResult{TxID: txID, ConfirmedRound: pending.ConfirmedRound}
			return nil
		}

		current, err := s.client.Status().Do(ctx)
		if err != nil {
			return backoff.Permanent(walleterr.Wrap(walleterr.SubmissionFailed, err, "node status"))
		}
		if current.LastRound >= lastRound {
			return backoff.Permanent(walleterr.New(walleterr.SubmissionFailed, "confirmation wait exhausted"))
		}
		return errors.New("not yet confirmed")
	}

	wait := backoff.WithContext(backoff.NewConstantBackOff(s.pollInterval), ctx)
	if err := backoff.Retry(poll, wait); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction confirmed",
		zap.String("tx_id", txID),
		zap.Uint64("confirmed_round", result.ConfirmedRound),
	)
	return result, nil
}
