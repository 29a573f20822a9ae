package domain

// StatusChange is emitted after every successful status transition.
// Delivery is best-effort; consumers must never be a correctness dependency.
type StatusChange struct {
	ItemID  string `json:"item_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status"`
	Actor   string `json:"actor"`
}
