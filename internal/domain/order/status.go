package order

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// StatusChoice pairs a status value with its display label
type StatusChoice struct {
	Value Status `json:"value"`
	Label string `json:"label"`
}

// statusChoices is the shared status vocabulary, in display order
var statusChoices = []StatusChoice{
	{StatusPending, "Pending"},
	{StatusConfirmed, "Confirmed"},
	{StatusProcessing, "Processing"},
	{StatusShipped, "Shipped"},
	{StatusDelivered, "Delivered"},
	{StatusCancelled, "Cancelled"},
	{StatusRefunded, "Refunded"},
}

// StatusChoices returns every order status with its label
func StatusChoices() []StatusChoice {
	out := make([]StatusChoice, len(statusChoices))
	copy(out, statusChoices)
	return out
}

// Statuses returns every order status in display order
func Statuses() []Status {
	out := make([]Status, len(statusChoices))
	for i, c := range statusChoices {
		out[i] = c.Value
	}
	return out
}

// Valid reports whether s is one of the enumerated statuses
func (s Status) Valid() bool {
	for _, c := range statusChoices {
		if c.Value == s {
			return true
		}
	}
	return false
}

// Label returns the human-readable label, or the raw value for unknown statuses
func (s Status) Label() string {
	for _, c := range statusChoices {
		if c.Value == s {
			return c.Label
		}
	}
	return string(s)
}

// ParseStatus validates a requested status string
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}
