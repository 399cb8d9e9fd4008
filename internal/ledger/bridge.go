// Package ledger implements hardware signing over a websocket bridge. The
// composed transaction is transmitted for out-of-band approval; the flow
// blocks, cancellably, until the device approves or rejects.
package ledger

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// Conn is the subset of a websocket connection the signer needs; tests
// substitute a fake.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a bridge connection.
type Dialer func(ctx context.Context, url string) (Conn, error)

func websocketDialer(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type signRequest struct {
	Type    string `json:"type"`
	TxID    string `json:"tx_id"`
	Payload string `json:"payload"` // base64 canonical unsigned transaction
}

type signResponse struct {
	Type   string `json:"type"` // "signature" | "rejected"
	Blob   string `json:"blob,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// BridgeSigner signs through a hardware device behind a websocket bridge.
// Bridge communication is inherently serialized: only one session may be
// open at a time and a second concurrent request is rejected outright.
type BridgeSigner struct {
	url        string
	deviceName string
	timeout    time.Duration
	dial       Dialer
	logger     *zap.Logger

	inFlight atomic.Bool
	onReset  func()
}

// NewBridgeSigner creates a signer for the bridge at url.
func NewBridgeSigner(url, deviceName string) *BridgeSigner {
	return &BridgeSigner{
		url:        url,
		deviceName: deviceName,
		timeout:    constants.LedgerApprovalTimeout,
		dial:       websocketDialer,
		logger:     logger.Log,
	}
}

// DeviceName returns the display name of the device behind the bridge.
func (s *BridgeSigner) DeviceName() string {
	return s.deviceName
}

// SetResetListener registers a callback invoked when the device rejects a
// request and the session resets.
func (s *BridgeSigner) SetResetListener(fn func()) {
	s.onReset = fn
}

// SignTransaction transmits the composed transaction for approval and blocks
// until a signature, a rejection, cancellation or the transport timeout.
func (s *BridgeSigner) SignTransaction(ctx context.Context, composed *types.ComposedTransaction) (*types.SignedTransaction, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, errors.New("a ledger approval session is already active")
	}
	defer s.inFlight.Store(false)

	conn, err := s.dial(ctx, s.url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, walleterr.Wrap(walleterr.LedgerUserCancelled, ctx.Err(), "approval cancelled")
		}
		return nil, walleterr.Wrap(walleterr.LedgerTimeout, err, "bridge unreachable")
	}
	defer conn.Close()

	// Closing the connection is the only way to unblock a pending read when
	// the user dismisses the approval prompt.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	request := signRequest{
		Type:    "sign_request",
		TxID:    composed.TxID,
		Payload: base64.StdEncoding.EncodeToString(composed.Raw),
	}
	if err := conn.WriteJSON(request); err != nil {
		return nil, walleterr.Wrap(walleterr.LedgerTimeout, err, "sign request transmit")
	}

	if err := conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, walleterr.Wrap(walleterr.LedgerTimeout, err, "deadline setup")
	}

	s.logger.Info("Awaiting ledger approval",
		zap.String("device", s.deviceName),
		zap.String("tx_id", composed.TxID),
	)

	var response signResponse
	if err := conn.ReadJSON(&response); err != nil {
		if ctx.Err() != nil {
			return nil, walleterr.Wrap(walleterr.LedgerUserCancelled, ctx.Err(), "approval cancelled")
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, walleterr.Wrap(walleterr.LedgerTimeout, err, "device did not respond")
		}
		return nil, walleterr.Wrap(walleterr.LedgerTimeout, err, "bridge read")
	}

	switch response.Type {
	case "signature":
		blob, err := base64.StdEncoding.DecodeString(response.Blob)
		if err != nil {
			return nil, walleterr.Wrap(walleterr.SDKRejected, err, "signature decode")
		}
		return &types.SignedTransaction{
			Composed: composed,
			Blob:     blob,
			TxID:     composed.TxID,
		}, nil

	case "rejected":
		s.logger.Info("Ledger approval rejected",
			zap.String("device", s.deviceName),
			zap.String("reason", response.Reason),
		)
		if s.onReset != nil {
			s.onReset()
		}
		return nil, walleterr.New(walleterr.LedgerUserCancelled, response.Reason)

	default:
		return nil, walleterr.New(walleterr.LedgerTimeout, fmt.Sprintf("unexpected bridge message %q", response.Type))
	}
}
