package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-orders/internal/apperr"
	"ms-orders/internal/logger"
	"ms-orders/internal/models"
	"ms-orders/internal/order"
	"ms-orders/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("Idempotency-Key")
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: idempotencyKey=%s", idempotencyKey))

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		h.writeError(w, apperr.Wrap(apperr.Client, "invalid request body", err))
		return
	}

	result, err := h.OrderService.CreateOrder(r.Context(), idempotencyKey, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("order created", result))
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: order %s status %s", result.Order.OrderID, result.Order.Status))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	details, err := h.OrderService.GetOrderWithDetails(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, details)
}

func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var cb models.PaymentCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaymentCallback: failed to decode request body: %v", err))
		h.writeError(w, apperr.Wrap(apperr.Client, "invalid request body", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("PaymentCallback: orderId=%s paymentId=%s status=%s", cb.OrderID, cb.PaymentID, cb.Status))

	details, err := h.OrderService.HandlePaymentCallback(r.Context(), cb)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PaymentCallback: %v", err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("callback processed", details))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "order-service"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		switch tagged.Kind {
		case apperr.Client:
			status = http.StatusBadRequest
		case apperr.NotFound:
			status = http.StatusNotFound
		case apperr.Upstream, apperr.PostPayment:
			status = http.StatusBadGateway
		case apperr.AlreadyProcessed:
			status = http.StatusOK
		}
		if tagged.Detail != nil {
			h.Logger.Debug("API", fmt.Sprintf("error detail: %+v", tagged.Detail))
		}
	}

	h.writeJSON(w, status, utils.ErrorResponse(err.Error(), http.StatusText(status)))
}
