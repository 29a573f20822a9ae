package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/domain"
)

// OrderService is the minimal interface needed for buyer order endpoints.
type OrderService interface {
	ConfirmOrder(ctx context.Context, itemID, buyerID string) (domain.Order, error)
	CancelOrders(ctx context.Context, orderIDs []string, buyerID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID, buyerID string, admin bool) (domain.Order, error)
}

// HandleCreateOrder moves a held item into checkout.
func HandleCreateOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		order, err := svc.ConfirmOrder(r.Context(), req.ItemID, BuyerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

// HandleCancelOrders cancels the buyer's pending orders.
func HandleCancelOrders(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req cancelOrdersRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		cancelled, err := svc.CancelOrders(r.Context(), req.OrderIDs, BuyerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]orderResponse, 0, len(cancelled))
		for _, o := range cancelled {
			resp = append(resp, toOrderResponse(o))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleGetOrder serves one order to its owner (or an admin).
func HandleGetOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		orderID, ok := parseOrderPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, BuyerID(r.Context()), IsAdmin(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toOrderResponse(order))
	}
}

type createOrderRequest struct {
	ItemID string `json:"item_id"`
}

type cancelOrdersRequest struct {
	OrderIDs []string `json:"order_ids"`
}

type orderResponse struct {
	ID            string          `json:"id"`
	BuyerID       string          `json:"buyer_id"`
	ItemID        string          `json:"item_id"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Discount      decimal.Decimal `json:"discount"`
	Due           decimal.Decimal `json:"due"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		ItemID:        o.ItemID,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount,
		PaidAmount:    o.PaidAmount,
		Discount:      o.Discount,
		Due:           o.Due(),
		RefundAmount:  o.RefundAmount(),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
	}
}

func parseOrderPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "orders" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
