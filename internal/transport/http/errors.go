package http

import (
	"encoding/json"
	"net/http"

	"github.com/solera/gemvault/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidID           = "invalid_id"
	codeNoItems             = "no_items"
	codeNoOrders            = "no_orders"
	codeBuyerRequired       = "buyer_required"
	codeInvalidAmount       = "invalid_amount"
	codeInvalidRange        = "invalid_range"
	codeInvalidOrderStatus  = "invalid_order_status"
	codeItemNotFound        = "item_not_found"
	codeOrderNotFound       = "order_not_found"
	codeNotHeldByBuyer      = "not_held_by_buyer"
	codeAlreadyInReview     = "already_in_review"
	codeOrderOpen           = "order_open"
	codeNotOrderOwner       = "not_order_owner"
	codeOrderNotPending     = "order_not_pending"
	codeOrderClosed         = "order_closed"
	codePaymentIncomplete   = "payment_incomplete"
	codeHoldRateLimited     = "hold_rate_limited"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service-layer sentinel to its HTTP status and
// stable error code. Unknown errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, codeInternalError
	msg := "internal error"

	switch err {
	case domain.ErrNoItems:
		status, code, msg = http.StatusBadRequest, codeNoItems, err.Error()
	case domain.ErrNoOrders:
		status, code, msg = http.StatusBadRequest, codeNoOrders, err.Error()
	case domain.ErrBuyerRequired:
		status, code, msg = http.StatusBadRequest, codeBuyerRequired, err.Error()
	case domain.ErrInvalidID:
		status, code, msg = http.StatusBadRequest, codeInvalidID, err.Error()
	case domain.ErrInvalidAmount:
		status, code, msg = http.StatusBadRequest, codeInvalidAmount, err.Error()
	case domain.ErrInvalidRange:
		status, code, msg = http.StatusBadRequest, codeInvalidRange, err.Error()
	case domain.ErrInvalidOrderStatus:
		status, code, msg = http.StatusBadRequest, codeInvalidOrderStatus, err.Error()
	case domain.ErrItemNotFound:
		status, code, msg = http.StatusNotFound, codeItemNotFound, err.Error()
	case domain.ErrOrderNotFound:
		status, code, msg = http.StatusNotFound, codeOrderNotFound, err.Error()
	case domain.ErrNotOrderOwner:
		status, code, msg = http.StatusForbidden, codeNotOrderOwner, err.Error()
	case domain.ErrNotHeldByBuyer:
		status, code, msg = http.StatusConflict, codeNotHeldByBuyer, err.Error()
	case domain.ErrAlreadyInReview:
		status, code, msg = http.StatusConflict, codeAlreadyInReview, err.Error()
	case domain.ErrOrderOpen:
		status, code, msg = http.StatusConflict, codeOrderOpen, err.Error()
	case domain.ErrOrderNotPending:
		status, code, msg = http.StatusConflict, codeOrderNotPending, err.Error()
	case domain.ErrOrderClosed:
		status, code, msg = http.StatusConflict, codeOrderClosed, err.Error()
	case domain.ErrPaymentIncomplete:
		status, code, msg = http.StatusConflict, codePaymentIncomplete, err.Error()
	case domain.ErrHoldRateLimited:
		status, code, msg = http.StatusTooManyRequests, codeHoldRateLimited, err.Error()
	}

	writeError(w, status, code, msg)
}
