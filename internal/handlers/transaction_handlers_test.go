package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/events"
	"github.com/perawallet/pera-wallet-core/internal/handlers"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/mocks"
	"github.com/perawallet/pera-wallet-core/internal/monitor"
	"github.com/perawallet/pera-wallet-core/internal/services"
	"github.com/perawallet/pera-wallet-core/internal/signing"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

type handlerHarness struct {
	params    *mocks.MockParamsProvider
	provider  *mocks.MockAccountDataProvider
	submitter *mocks.MockSubmitter
	resolver  *mocks.MockAddressResolver
	keys      *signing.KeyStore
	router    *gin.Engine
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	ctrl := gomock.NewController(t)

	h := &handlerHarness{
		params:    mocks.NewMockParamsProvider(ctrl),
		provider:  mocks.NewMockAccountDataProvider(ctrl),
		submitter: mocks.NewMockSubmitter(ctrl),
		resolver:  mocks.NewMockAddressResolver(ctrl),
		keys:      signing.NewKeyStore(),
	}

	accountService := accounts.NewService(h.provider)
	metrics := monitor.NewMetrics(prometheus.NewRegistry())

	common := handlers.NewCommonServices(handlers.CommonServices{
		Params:    h.params,
		Accounts:  accountService,
		Resolver:  h.resolver,
		Composer:  services.NewComposerService(),
		Validator: services.NewValidationService(),
		Submitter: h.submitter,
		Publisher: events.NopPublisher{},
		Metrics:   metrics,
		Keys:      h.keys,
	})

	flows := handlers.NewFlowManager(func() *services.SendService {
		return services.NewSendService(services.SendServiceParams{
			Params:    h.params,
			Accounts:  accountService,
			Resolver:  h.resolver,
			Composer:  services.NewComposerService(),
			Validator: services.NewValidationService(),
			Submitter: h.submitter,
			Publisher: events.NopPublisher{},
			Metrics:   metrics,
		})
	})

	handler := handlers.NewTransactionHandler(common, flows)

	router := gin.New()
	router.POST("/v1/transactions/validate", handler.Validate)
	router.POST("/v1/surfaces/:surface/send", handler.Send)
	router.GET("/v1/surfaces/:surface/events", handler.Events)
	router.GET("/v1/surfaces/:surface/status", handler.Status)
	router.POST("/v1/surfaces/:surface/cancel", handler.Cancel)
	h.router = router
	return h
}

func (h *handlerHarness) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func testAddress(b byte) string {
	var a sdktypes.Address
	for i := range a {
		a[i] = b
	}
	return a.String()
}

func freshParams() types.NetworkParams {
	return types.NetworkParams{
		Suggested: sdktypes.SuggestedParams{
			GenesisID:       "testnet-v1.0",
			GenesisHash:     bytes.Repeat([]byte{0x03}, 32),
			FirstRoundValid: 1000,
			LastRoundValid:  2000,
			MinFee:          1000,
		},
		FetchedAt: time.Now(),
	}
}

func TestTransactionHandler_ValidatePasses(t *testing.T) {
	h := newHandlerHarness(t)
	sender := testAddress(0x01)
	receiver := testAddress(0x02)

	h.params.EXPECT().SuggestedParams(gomock.Any()).Return(freshParams(), nil)
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{Address: sender, Balance: 10_000_000}, nil)

	w := h.request(t, http.MethodPost, "/v1/transactions/validate", handlers.DraftRequest{
		Kind:     string(types.KindPayment),
		Sender:   sender,
		Receiver: receiver,
		Amount:   "1.5",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		TxID string `json:"tx_id"`
		Fee  uint64 `json:"fee"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TxID)
	assert.Equal(t, uint64(1000), resp.Fee)
}

func TestTransactionHandler_ValidateRejectsOverspend(t *testing.T) {
	h := newHandlerHarness(t)
	sender := testAddress(0x01)
	receiver := testAddress(0x02)

	h.params.EXPECT().SuggestedParams(gomock.Any()).Return(freshParams(), nil)
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{Address: sender, Balance: 1_000_000}, nil)

	w := h.request(t, http.MethodPost, "/v1/transactions/validate", handlers.DraftRequest{
		Kind:     string(types.KindPayment),
		Sender:   sender,
		Receiver: receiver,
		Amount:   "5",
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, walleterr.AmountExceedsBalance, resp.Kind)
	assert.False(t, resp.Soft)
}

func TestTransactionHandler_ValidateFlagsSoftOutcome(t *testing.T) {
	h := newHandlerHarness(t)
	sender := testAddress(0x01)
	receiver := testAddress(0x02)

	h.params.EXPECT().SuggestedParams(gomock.Any()).Return(freshParams(), nil)
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{
			Address:    sender,
			Balance:    1_000_000,
			HeldAssets: []types.AssetHolding{{AssetID: 42, Amount: 1}},
		}, nil)

	w := h.request(t, http.MethodPost, "/v1/transactions/validate", handlers.DraftRequest{
		Kind:             string(types.KindPayment),
		Sender:           sender,
		Receiver:         receiver,
		Amount:           "0.5",
		IsMaxTransaction: true,
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, walleterr.MaxRequiresClosureConfirmation, resp.Kind)
	assert.True(t, resp.Soft)
}

func TestTransactionHandler_ValidateRewritesMaxAmount(t *testing.T) {
	h := newHandlerHarness(t)
	sender := testAddress(0x01)
	receiver := testAddress(0x02)

	h.params.EXPECT().SuggestedParams(gomock.Any()).Return(freshParams(), nil)
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{Address: sender, Balance: 10_000_000}, nil)

	// The requested amount is the whole balance, which would overspend once
	// the fee is added. The preview applies the same max rewriting as the
	// send flow, so the check passes on the rewritten amount.
	w := h.request(t, http.MethodPost, "/v1/transactions/validate", handlers.DraftRequest{
		Kind:             string(types.KindPayment),
		Sender:           sender,
		Receiver:         receiver,
		Amount:           "10",
		IsMaxTransaction: true,
		ClosureConfirmed: true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		TxID string `json:"tx_id"`
		Fee  uint64 `json:"fee"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TxID)
	assert.Equal(t, uint64(1000), resp.Fee)
}

func TestTransactionHandler_ValidateRejectsMalformedBody(t *testing.T) {
	h := newHandlerHarness(t)

	w := h.request(t, http.MethodPost, "/v1/transactions/validate", map[string]string{
		"kind": "payment",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionHandler_SendRequiresKnownKey(t *testing.T) {
	h := newHandlerHarness(t)

	w := h.request(t, http.MethodPost, "/v1/surfaces/main/send", handlers.SendRequest{
		Draft: handlers.DraftRequest{
			Kind:     string(types.KindPayment),
			Sender:   testAddress(0x01),
			Receiver: testAddress(0x02),
			Amount:   "1",
		},
		Custody: "local",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionHandler_SendRejectsUnknownCustody(t *testing.T) {
	h := newHandlerHarness(t)

	w := h.request(t, http.MethodPost, "/v1/surfaces/main/send", handlers.SendRequest{
		Draft: handlers.DraftRequest{
			Kind:     string(types.KindPayment),
			Sender:   testAddress(0x01),
			Receiver: testAddress(0x02),
			Amount:   "1",
		},
		Custody: "carrier-pigeon",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionHandler_SendStartsFlow(t *testing.T) {
	h := newHandlerHarness(t)

	account := crypto.GenerateAccount()
	words, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	sender, err := h.keys.AddMnemonic(words)
	require.NoError(t, err)
	receiver := testAddress(0x02)

	h.params.EXPECT().SuggestedParams(gomock.Any()).Return(freshParams(), nil)
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{Address: sender, Balance: 10_000_000}, nil)
	h.submitter.EXPECT().SubmitRawTransaction(gomock.Any(), gomock.Any()).
		Return("TXID1", nil)
	h.submitter.EXPECT().WaitForConfirmation(gomock.Any(), "TXID1", gomock.Any()).
		Return(&types.TransactionResult{TxID: "TXID1", ConfirmedRound: 5}, nil)

	w := h.request(t, http.MethodPost, "/v1/surfaces/main/send", handlers.SendRequest{
		Draft: handlers.DraftRequest{
			Kind:     string(types.KindPayment),
			Sender:   sender,
			Receiver: receiver,
			Amount:   "1",
		},
		Custody: "local",
	})

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp handlers.SendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err = uuid.Parse(resp.FlowID)
	assert.NoError(t, err)

	// The flow runs to completion asynchronously; the status endpoint reports
	// the terminal state once it lands.
	require.Eventually(t, func() bool {
		status := h.request(t, http.MethodGet, "/v1/surfaces/main/status", nil)
		return status.Code == http.StatusOK &&
			bytes.Contains(status.Body.Bytes(), []byte("completed"))
	}, 2*time.Second, 20*time.Millisecond)

	drained := h.request(t, http.MethodGet, "/v1/surfaces/main/events", nil)
	require.Equal(t, http.StatusOK, drained.Code)
	assert.Contains(t, drained.Body.String(), fmt.Sprintf("%q", types.EventSucceeded))
}

func TestTransactionHandler_SendSurvivesRequestCompletion(t *testing.T) {
	h := newHandlerHarness(t)

	account := crypto.GenerateAccount()
	words, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	sender, err := h.keys.AddMnemonic(words)
	require.NoError(t, err)
	receiver := testAddress(0x02)

	// Served over a real listener so the request context is genuinely
	// cancelled once the 202 is written, unlike router.ServeHTTP in-process.
	server := httptest.NewServer(h.router)
	defer server.Close()

	responded := make(chan struct{})
	h.params.EXPECT().SuggestedParams(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (types.NetworkParams, error) {
			// Hold the first network boundary until the client has the
			// response, then honor cancellation the way a real client would.
			<-responded
			if err := ctx.Err(); err != nil {
				return types.NetworkParams{}, walleterr.Wrap(walleterr.ParamsFetchFailed, err, "params fetch")
			}
			return freshParams(), nil
		})
	h.resolver.EXPECT().Resolve(gomock.Any(), receiver).Return(receiver, nil)
	h.provider.EXPECT().AccountSnapshot(gomock.Any(), sender).
		Return(&types.AccountSnapshot{Address: sender, Balance: 10_000_000}, nil)
	h.submitter.EXPECT().SubmitRawTransaction(gomock.Any(), gomock.Any()).
		Return("TXID9", nil)
	h.submitter.EXPECT().WaitForConfirmation(gomock.Any(), "TXID9", gomock.Any()).
		Return(&types.TransactionResult{TxID: "TXID9", ConfirmedRound: 5}, nil)

	payload, err := json.Marshal(handlers.SendRequest{
		Draft: handlers.DraftRequest{
			Kind:     string(types.KindPayment),
			Sender:   sender,
			Receiver: receiver,
			Amount:   "1",
		},
		Custody: "local",
	})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/v1/surfaces/live/send", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	close(responded)

	require.Eventually(t, func() bool {
		status, err := http.Get(server.URL + "/v1/surfaces/live/status")
		if err != nil {
			return false
		}
		defer status.Body.Close()
		var body bytes.Buffer
		_, _ = body.ReadFrom(status.Body)
		return bytes.Contains(body.Bytes(), []byte("completed"))
	}, 2*time.Second, 20*time.Millisecond)

	events, err := http.Get(server.URL + "/v1/surfaces/live/events")
	require.NoError(t, err)
	defer events.Body.Close()
	var drained bytes.Buffer
	_, err = drained.ReadFrom(events.Body)
	require.NoError(t, err)
	assert.Contains(t, drained.String(), fmt.Sprintf("%q", types.EventSucceeded))
	assert.NotContains(t, drained.String(), fmt.Sprintf("%q", types.EventFailed))
}

func TestTransactionHandler_CancelReturnsToIdle(t *testing.T) {
	h := newHandlerHarness(t)

	w := h.request(t, http.MethodPost, "/v1/surfaces/other/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "idle")
}
