package api

import (
	"net/http"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/command"
	"github.com/example/ec-orders/internal/query"
	"go.uber.org/zap"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger.Named("api"),
	}
}

// Customer Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryHandler.ListOrdersByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOrderForUser(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	cmd := command.MarkOrderDelivered{OrderID: r.PathValue("id")}
	result, err := h.cmdHandler.MarkOrderDelivered(r.Context(), middleware.GetActor(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetOrderStatuses exposes the status vocabulary
func (h *Handlers) GetOrderStatuses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.StatusChoices())
}
