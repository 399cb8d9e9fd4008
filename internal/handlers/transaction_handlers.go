package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/constants"
	"github.com/perawallet/pera-wallet-core/internal/interfaces"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/services"
	"github.com/perawallet/pera-wallet-core/internal/types"
	"github.com/perawallet/pera-wallet-core/internal/walleterr"
)

// TransactionHandler exposes the transaction pipeline over HTTP.
type TransactionHandler struct {
	common *CommonServices
	flows  *FlowManager
	logger *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler instance.
func NewTransactionHandler(common *CommonServices, flows *FlowManager) *TransactionHandler {
	return &TransactionHandler{common: common, flows: flows, logger: logger.Log}
}

// DraftRequest is the wire form of a transaction draft.
type DraftRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Sender   string `json:"sender" binding:"required"`
	Receiver string `json:"receiver,omitempty"`
	AssetID  uint64 `json:"asset_id"`

	// Amount is a user-facing decimal string; decimals declares the asset's
	// decimal places for minor-unit conversion.
	Amount   string `json:"amount,omitempty"`
	Decimals uint32 `json:"decimals"`

	Note             []byte  `json:"note,omitempty"`
	CloseTo          string  `json:"close_to,omitempty"`
	RekeyTo          string  `json:"rekey_to,omitempty"`
	FlatFee          *uint64 `json:"flat_fee,omitempty"`
	IsMaxTransaction bool    `json:"is_max_transaction"`
	ClosureConfirmed bool    `json:"closure_confirmed"`
}

// SendRequest starts a send flow.
type SendRequest struct {
	Draft   DraftRequest `json:"draft" binding:"required"`
	Custody string       `json:"custody" binding:"required"` // "local" | "ledger"
}

// SendResponse acknowledges flow start.
type SendResponse struct {
	FlowID string `json:"flow_id"`
}

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  walleterr.Kind `json:"kind,omitempty"`
	Soft  bool           `json:"soft,omitempty"`
}

func (r *DraftRequest) toDraft() (*types.TransactionDraft, error) {
	draft := &types.TransactionDraft{
		Kind:             types.TxnKind(r.Kind),
		Sender:           r.Sender,
		Receiver:         r.Receiver,
		AssetID:          r.AssetID,
		Note:             r.Note,
		CloseTo:          r.CloseTo,
		RekeyTo:          r.RekeyTo,
		FlatFee:          r.FlatFee,
		IsMaxTransaction: r.IsMaxTransaction,
		ClosureConfirmed: r.ClosureConfirmed,
	}
	if r.Amount != "" {
		decimals := r.Decimals
		if r.AssetID == constants.AlgoAssetID {
			decimals = constants.AlgoDecimals
		}
		amount, err := types.AmountFromDecimalString(r.Amount, decimals)
		if err != nil {
			return nil, err
		}
		draft.Amount = amount
	}
	return draft, nil
}

// Send handles POST /v1/surfaces/:surface/send
func (h *TransactionHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	draft, err := req.Draft.toDraft()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var signer interfaces.TransactionSigner
	switch req.Custody {
	case "local":
		local, ok := h.common.Keys.SignerFor(draft.Sender)
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no key material for sender"})
			return
		}
		signer = local
	case "ledger":
		if h.common.Bridge == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "ledger bridge is not configured"})
			return
		}
		signer = h.common.Bridge
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "custody must be local or ledger"})
		return
	}

	flow := h.flows.Surface(c.Param("surface"))

	// The flow outlives this request: net/http cancels the request context as
	// soon as the 202 goes out, which would kill the flow at its first network
	// boundary. Values (trace metadata) are kept, the cancellation is not.
	flowID := flow.Send(context.WithoutCancel(c.Request.Context()), draft, signer)

	c.JSON(http.StatusAccepted, SendResponse{FlowID: flowID.String()})
}

// Validate handles POST /v1/transactions/validate. It runs the offline checks
// without signing or submitting.
func (h *TransactionHandler) Validate(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	np, err := h.common.Params.SuggestedParams(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Kind: walleterr.KindOf(err)})
		return
	}

	if draft.Receiver != "" {
		resolved, err := h.common.Resolver.Resolve(ctx, draft.Receiver)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: walleterr.KindOf(err)})
			return
		}
		draft.Receiver = resolved
	}

	sender, err := h.common.Accounts.AccountSnapshot(ctx, draft.Sender)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	// Max drafts are previewed with the same amount rewriting the send flow
	// applies, so the fee and checks reported here match the transaction that
	// would actually go out.
	if draft.IsMaxTransaction {
		if err := services.ApplyMaxAmount(draft, sender, &np, h.common.Composer, h.common.Validator); err != nil {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: walleterr.KindOf(err)})
			return
		}
	}

	composed, err := h.common.Composer.Compose(draft, &np)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: walleterr.KindOf(err)})
		return
	}

	var receiver *types.AccountSnapshot
	if draft.Kind == types.KindAssetTransfer && draft.Receiver != draft.Sender {
		receiver, _ = h.common.Accounts.AccountSnapshot(ctx, draft.Receiver)
	}

	err = h.common.Validator.ValidateTransfer(services.ValidateTransferParams{
		Draft:    draft,
		Sender:   sender,
		Receiver: receiver,
		Params:   &np,
		Fee:      composed.Fee(),
	})
	if err != nil {
		kind := walleterr.KindOf(err)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Kind:  kind,
			Soft:  walleterr.IsSoft(kind),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_id": composed.TxID,
		"fee":   composed.Fee(),
	})
}

// Events handles GET /v1/surfaces/:surface/events, draining the currently
// available flow events.
func (h *TransactionHandler) Events(c *gin.Context) {
	flow := h.flows.Surface(c.Param("surface"))

	drained := make([]types.FlowEvent, 0)
	for {
		select {
		case event := <-flow.Events():
			drained = append(drained, event)
		default:
			c.JSON(http.StatusOK, gin.H{"events": drained})
			return
		}
	}
}

// Status handles GET /v1/surfaces/:surface/status
func (h *TransactionHandler) Status(c *gin.Context) {
	flow := h.flows.Surface(c.Param("surface"))
	c.JSON(http.StatusOK, gin.H{"state": flow.State().String()})
}

// Cancel handles POST /v1/surfaces/:surface/cancel
func (h *TransactionHandler) Cancel(c *gin.Context) {
	flow := h.flows.Surface(c.Param("surface"))
	flow.Cancel()
	c.JSON(http.StatusOK, gin.H{"state": flow.State().String()})
}
