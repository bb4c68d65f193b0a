package order

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrUnauthorized  = errors.New("access denied: staff privileges required")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrOrderNotFound = errors.New("order not found")
	ErrPersistence   = errors.New("failed to persist order update")
	ErrNotShipped    = errors.New("order must be shipped before marking as delivered")
)

// Kind classifies an error for transport-level reporting
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrNotShipped):
		return "not_shipped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}

var kindToStatus = map[string]int{
	"unauthorized":   http.StatusForbidden,
	"invalid_status": http.StatusBadRequest,
	"not_found":      http.StatusNotFound,
	"not_shipped":    http.StatusConflict,
	"timeout":        http.StatusGatewayTimeout,
	"canceled":       http.StatusRequestTimeout,
}

// HTTPStatus maps an error to an HTTP status code
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[Kind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
