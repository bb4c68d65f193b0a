package command

// Order Commands
type TransitionOrderStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type MarkOrderDelivered struct {
	OrderID string `json:"order_id"`
}
