package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/app"
	"github.com/solera/gemvault/internal/domain"
)

// AdminOrderService is the minimal interface needed for admin order
// endpoints.
type AdminOrderService interface {
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (domain.Order, error)
	UpdatePayment(ctx context.Context, orderID string, in app.PaymentUpdate) (domain.Order, error)
	MarkSold(ctx context.Context, orderID string) (domain.Order, error)
}

// Reclaimer runs the expiry sweep on demand.
type Reclaimer interface {
	Reclaim(ctx context.Context) (int, error)
}

// HandleAdminOrders dispatches /admin/orders/{id}/{action} where action is
// status, payment or sold.
func HandleAdminOrders(svc AdminOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, action, ok := parseAdminOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch action {
		case "status":
			var req updateOrderStatusRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			order, err := svc.UpdateOrderStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)

		case "payment":
			var req updatePaymentRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			order, err := svc.UpdatePayment(r.Context(), orderID, app.PaymentUpdate{
				PaidAmount: req.PaidAmount,
				Discount:   req.Discount,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)

		case "sold":
			order, err := svc.MarkSold(r.Context(), orderID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeOrder(w, order)

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// HandleAdminReclaim triggers one expiry sweep and reports the count, for
// operational cleanup of holds nobody queries anymore.
func HandleAdminReclaim(svc Reclaimer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		count, err := svc.Reclaim(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reclaimResponse{ReclaimedCount: count})
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type updatePaymentRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount,omitempty"`
	Discount   *decimal.Decimal `json:"discount,omitempty"`
}

type reclaimResponse struct {
	ReclaimedCount int `json:"reclaimed_count"`
}

func writeOrder(w http.ResponseWriter, order domain.Order) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toOrderResponse(order))
}

func parseAdminOrderPath(path string) (orderID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", "", false
	}
	if parts[0] != "admin" || parts[1] != "orders" || parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
