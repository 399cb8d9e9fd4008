package ledger

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

func init() {
	logger.InitLogger("test")
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "read deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeConn scripts the bridge side of a signing session.
type fakeConn struct {
	mu       sync.Mutex
	requests []signRequest
	deadline time.Time

	responses chan signResponse
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		responses: make(chan signResponse, 1),
		closed:    make(chan struct{}),
	}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	req, ok := v.(signRequest)
	if !ok {
		return fmt.Errorf("unexpected message %T", v)
	}
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var expired <-chan time.Time
	if !deadline.IsZero() {
		expired = time.After(time.Until(deadline))
	}

	select {
	case resp := <-c.responses:
		*(v.(*signResponse)) = resp
		return nil
	case <-c.closed:
		return fmt.Errorf("use of closed connection")
	case <-expired:
		return timeoutError{}
	}
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) sentRequests() []signRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]signRequest(nil), c.requests...)
}

func newTestSigner(conn *fakeConn) *BridgeSigner {
	signer := NewBridgeSigner("ws://bridge.local", "Ledger Nano X")
	signer.dial = func(ctx context.Context, url string) (Conn, error) {
		return conn, nil
	}
	return signer
}

func composedFixture() *types.ComposedTransaction {
	return &types.ComposedTransaction{
		Kind: types.KindPayment,
		Raw:  []byte{0x89, 0x01, 0x02},
		TxID: "FIXTURETXID",
	}
}

func TestBridgeSigner_Approval(t *testing.T) {
	conn := newFakeConn()
	signer := newTestSigner(conn)

	blob := []byte("signed transaction bytes")
	conn.responses <- signResponse{
		Type: "signature",
		Blob: base64.StdEncoding.EncodeToString(blob),
	}

	signed, err := signer.SignTransaction(context.Background(), composedFixture())
	require.NoError(t, err)
	assert.Equal(t, blob, signed.Blob)
	assert.Equal(t, "FIXTURETXID", signed.TxID)

	requests := conn.sentRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, "sign_request", requests[0].Type)
	assert.Equal(t, "FIXTURETXID", requests[0].TxID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x89, 0x01, 0x02}), requests[0].Payload)
}

func TestBridgeSigner_RejectionResetsSession(t *testing.T) {
	conn := newFakeConn()
	signer := newTestSigner(conn)

	resetCalled := false
	signer.SetResetListener(func() { resetCalled = true })

	conn.responses <- signResponse{Type: "rejected", Reason: "user dismissed"}

	_, err := signer.SignTransaction(context.Background(), composedFixture())
	require.Error(t, err)
	assert.Equal(t, walleterr.LedgerUserCancelled, walleterr.KindOf(err))
	assert.True(t, resetCalled)
}

func TestBridgeSigner_DeviceTimeout(t *testing.T) {
	conn := newFakeConn()
	signer := newTestSigner(conn)
	signer.timeout = 50 * time.Millisecond

	_, err := signer.SignTransaction(context.Background(), composedFixture())
	require.Error(t, err)
	assert.Equal(t, walleterr.LedgerTimeout, walleterr.KindOf(err))
}

func TestBridgeSigner_CancellationUnblocksRead(t *testing.T) {
	conn := newFakeConn()
	signer := newTestSigner(conn)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := signer.SignTransaction(ctx, composedFixture())
	require.Error(t, err)
	assert.Equal(t, walleterr.LedgerUserCancelled, walleterr.KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBridgeSigner_RejectsConcurrentSession(t *testing.T) {
	conn := newFakeConn()
	signer := newTestSigner(conn)

	firstResult := make(chan error, 1)
	go func() {
		_, err := signer.SignTransaction(context.Background(), composedFixture())
		firstResult <- err
	}()

	// Wait for the first session to claim the bridge before the second
	// attempt.
	require.Eventually(t, func() bool {
		return signer.inFlight.Load()
	}, 2*time.Second, 5*time.Millisecond)

	_, err := signer.SignTransaction(context.Background(), composedFixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already active")

	conn.responses <- signResponse{Type: "rejected", Reason: "later"}
	select {
	case <-firstResult:
	case <-time.After(2 * time.Second):
		t.Fatal("first session never finished")
	}
}
