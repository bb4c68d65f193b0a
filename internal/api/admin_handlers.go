package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/command"
	"github.com/example/ec-orders/internal/domain/order"
	"github.com/example/ec-orders/internal/query"
	"go.uber.org/zap"
)

// StatusUpdateRequest is the body of POST /admin/orders/{id}/status
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type statusUpdateResponse struct {
	Success          bool         `json:"success"`
	OldStatus        order.Status `json:"old_status"`
	NewStatus        order.Status `json:"new_status"`
	NewStatusDisplay string       `json:"new_status_display"`
	PaymentStatus    *string      `json:"payment_status"`
}

type statusUpdateError struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	filter := query.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	result, err := h.queryHandler.ListOrders(r.Context(), middleware.GetActor(r.Context()), filter)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryHandler.GetOrder(r.Context(), middleware.GetActor(r.Context()), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryHandler.Dashboard(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PendingCount never fails for non-staff callers; they see zero
func (h *Handlers) PendingCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.queryHandler.PendingCount(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

// UpdateOrderStatus accepts a JSON body or a form-encoded "status" field
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStatusRequest(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, statusUpdateError{Kind: "bad_request", Error: "invalid request body"})
		return
	}

	cmd := command.TransitionOrderStatus{OrderID: r.PathValue("id"), Status: req.Status}
	result, err := h.cmdHandler.TransitionOrderStatus(r.Context(), middleware.GetActor(r.Context()), cmd)
	if err != nil {
		status := order.HTTPStatus(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			h.logger.Error("Status update failed", zap.String("order_id", cmd.OrderID), zap.Error(err))
			msg = "failed to update order status"
		}
		respondJSON(w, status, statusUpdateError{Kind: order.Kind(err), Error: msg})
		return
	}

	respondJSON(w, http.StatusOK, statusUpdateResponse{
		Success:          true,
		OldStatus:        result.OldStatus,
		NewStatus:        result.NewStatus,
		NewStatusDisplay: result.NewStatusLabel,
		PaymentStatus:    result.PaymentStatus,
	})
}

func decodeStatusRequest(r *http.Request) (StatusUpdateRequest, error) {
	var req StatusUpdateRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		req.Status = r.FormValue("status")
		return req, nil
	default:
		if r.Body == nil {
			return req, errors.New("empty body")
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
}
