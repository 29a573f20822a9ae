package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusRejected  OrderStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusSettled PaymentStatus = "settled"
)

// Order is one buyer's claim on one item, with payment tracking.
// BuyerID and ItemID are immutable after creation.
type Order struct {
	ID            string
	BuyerID       string
	ItemID        string
	Status        OrderStatus
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Discount      decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Due is the outstanding balance. It is clamped to zero unless the order is
// confirmed: pending and rejected orders owe nothing.
func (o Order) Due() decimal.Decimal {
	if o.Status != OrderStatusConfirmed {
		return decimal.Zero
	}
	due := o.TotalAmount.Sub(o.PaidAmount).Sub(o.Discount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// RefundAmount is the amount flagged for manual refund processing on a
// rejected order. It is a reporting field, not a money movement.
func (o Order) RefundAmount() decimal.Decimal {
	if o.Status != OrderStatusRejected {
		return decimal.Zero
	}
	return o.PaidAmount
}
