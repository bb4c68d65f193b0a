package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/ec-orders/internal/domain/order"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondJSONError writes a JSON error response
func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps a domain error to its HTTP status. Server-side
// failures are logged and reported without detail.
func respondDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := order.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("kind", order.Kind(err)), zap.Error(err))
		respondJSON(w, status, map[string]string{"error": "internal error", "kind": order.Kind(err)})
		return
	}
	respondJSON(w, status, map[string]string{"error": err.Error(), "kind": order.Kind(err)})
}
