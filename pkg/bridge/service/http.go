package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/shieldpay/solzec-bridge/pkg/app/errors"
	apphttp "github.com/shieldpay/solzec-bridge/pkg/app/http"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for the bridge service on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/bridge/quote", apphttp.HandleError(h.quote))
	r.Post("/bridge/execute", apphttp.HandleError(h.execute))
	r.Get("/bridge/status/{depositAddress}", apphttp.HandleError(h.status))
	r.Get("/bridge/transactions", apphttp.HandleError(h.list))
}

// quote handles indicative quote requests
func (h *HTTP) quote(w http.ResponseWriter, r *http.Request) error {
	var req bridge.QuoteRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.GetQuote(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

// execute handles new bridge attempts
func (h *HTTP) execute(w http.ResponseWriter, r *http.Request) error {
	var req bridge.ExecuteRequest
	if err := h.readJSON(r, &req); err != nil {
		return err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	resp, err := h.service.Execute(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusCreated, resp)
	return nil
}

// status serves the stored state for a deposit address
func (h *HTTP) status(w http.ResponseWriter, r *http.Request) error {
	depositAddress := chi.URLParam(r, "depositAddress")

	resp, err := h.service.GetStatus(r.Context(), depositAddress)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

// list serves the operational transactions listing
func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	statusFilter := r.URL.Query().Get("status")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.BadRequestError(err, "invalid limit")
		}
		limit = parsed
	}

	txs, err := h.service.ListTransactions(r.Context(), statusFilter, limit)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, toListResponse(txs))
	return nil
}

// ListItem is one row of the transactions listing.
type ListItem struct {
	BridgeID               string  `json:"bridge_id"`
	UserID                 string  `json:"user_id"`
	DepositAddress         string  `json:"deposit_address"`
	Status                 string  `json:"status"`
	AmountSourceUnits      uint64  `json:"amount_source_units"`
	SourceTxSignature      *string `json:"source_tx_signature,omitempty"`
	DestinationTxHash      *string `json:"destination_tx_hash,omitempty"`
	ActualDestinationUnits *uint64 `json:"actual_destination_units,omitempty"`
	ErrorMessage           *string `json:"error_message,omitempty"`
	CreatedAt              string  `json:"created_at"`
	CompletedAt            *string `json:"completed_at,omitempty"`
}

// ListResponse wraps the transactions listing.
type ListResponse struct {
	Transactions []ListItem `json:"transactions"`
}

func toListResponse(txs []*bridge.Transaction) ListResponse {
	items := make([]ListItem, len(txs))
	for i, tx := range txs {
		item := ListItem{
			BridgeID:               tx.ID,
			UserID:                 tx.UserID,
			DepositAddress:         tx.DepositAddress,
			Status:                 string(tx.Status),
			AmountSourceUnits:      tx.AmountSourceUnits,
			SourceTxSignature:      tx.SourceTxSignature,
			DestinationTxHash:      tx.DestinationTxHash,
			ActualDestinationUnits: tx.ActualDestinationUnits,
			ErrorMessage:           tx.ErrorMessage,
			CreatedAt:              tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if tx.CompletedAt != nil {
			completed := tx.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			item.CompletedAt = &completed
		}
		items[i] = item
	}
	return ListResponse{Transactions: items}
}

func (h *HTTP) readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
