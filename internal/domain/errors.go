package domain

import "errors"

var (
	ErrNoItems            = errors.New("no items provided")
	ErrNoOrders           = errors.New("no orders provided")
	ErrBuyerRequired      = errors.New("buyer identity required")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRange       = errors.New("invalid range filter")
	ErrItemNotFound       = errors.New("item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotHeldByBuyer     = errors.New("item not held by buyer")
	ErrAlreadyInReview    = errors.New("item already in review or beyond")
	ErrOrderOpen          = errors.New("item already has an open order")
	ErrNotOrderOwner      = errors.New("order belongs to another buyer")
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrOrderClosed        = errors.New("order already closed")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrPaymentIncomplete  = errors.New("payment not complete")
	ErrHoldRateLimited    = errors.New("hold rate limit exceeded")
)
