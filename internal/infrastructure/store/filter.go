package store

import (
	"sort"
	"strings"

	"github.com/example/ec-orders/internal/readmodel"
)

// MatchesOrder reports whether o satisfies the status, owner and search filters.
// Search is a case-insensitive substring match against the order id, owner
// username, owner email, first name and last name.
func MatchesOrder(params ListOrdersParams, o *readmodel.OrderReadModel) bool {
	if params.Status != "" && o.Status != params.Status {
		return false
	}
	if params.UserID != "" && o.UserID != params.UserID {
		return false
	}
	if params.Search == "" {
		return true
	}

	term := strings.ToLower(params.Search)
	for _, field := range []string{o.ID, o.Username, o.UserEmail, o.FirstName, o.LastName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders by creation time, descending
func SortNewestFirst(orders []*readmodel.OrderReadModel) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
