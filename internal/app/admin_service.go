package app

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/clock"
	"github.com/solera/gemvault/internal/domain"
	"github.com/solera/gemvault/internal/metrics"
)

type AdminRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	UpdatePayment(ctx context.Context, order domain.Order) error
	MarkItemConfirmed(ctx context.Context, itemID string) error
	MarkItemAvailable(ctx context.Context, itemID string) error
	MarkItemSold(ctx context.Context, itemID string) error
}

// AdminService advances orders to their terminal states and keeps the item
// status synchronized in the same transaction.
type AdminService struct {
	repo     AdminRepository
	clock    clock.Clock
	notifier Notifier
	metrics  *metrics.Metrics
}

const adminActor = "admin"

func NewAdminService(repo AdminRepository, clk clock.Clock, opts ...AdminOption) *AdminService {
	svc := &AdminService{
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type AdminOption func(*AdminService)

func WithAdminNotifier(n Notifier) AdminOption {
	return func(s *AdminService) {
		s.notifier = n
	}
}

func WithAdminMetrics(m *metrics.Metrics) AdminOption {
	return func(s *AdminService) {
		s.metrics = m
	}
}

// UpdateOrderStatus moves an order to confirmed or rejected. Re-applying the
// current status is a no-op returning the order unchanged. Rejection after
// partial payment does not move money: the refund amount is surfaced on the
// order for manual processing.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (domain.Order, error) {
	if newStatus != domain.OrderStatusConfirmed && newStatus != domain.OrderStatusRejected {
		return domain.Order{}, domain.ErrInvalidOrderStatus
	}
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}

	var result domain.Order
	changed := false

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}

		if order.Status == newStatus {
			result = order
			return nil
		}
		if order.Status == domain.OrderStatusRejected {
			return domain.ErrOrderClosed
		}

		if err := s.repo.UpdateOrderStatus(txCtx, orderID, newStatus); err != nil {
			return err
		}
		switch newStatus {
		case domain.OrderStatusConfirmed:
			if err := s.repo.MarkItemConfirmed(txCtx, order.ItemID); err != nil {
				return err
			}
		case domain.OrderStatusRejected:
			if err := s.repo.MarkItemAvailable(txCtx, order.ItemID); err != nil {
				return err
			}
		}

		order.Status = newStatus
		result = order
		changed = true
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if changed {
		if newStatus == domain.OrderStatusConfirmed && s.metrics != nil {
			s.metrics.OrdersConfirmed.Inc()
		}
		if s.notifier != nil {
			s.notifier.StatusChanged(ctx, domain.StatusChange{OrderID: result.ID, Status: string(newStatus), Actor: adminActor})
			itemStatus := domain.ItemStatusConfirmed
			if newStatus == domain.OrderStatusRejected {
				itemStatus = domain.ItemStatusAvailable
			}
			s.notifier.StatusChanged(ctx, domain.StatusChange{ItemID: result.ItemID, Status: string(itemStatus), Actor: adminActor})
		}
	}
	return result, nil
}

type PaymentUpdate struct {
	PaidAmount *decimal.Decimal
	Discount   *decimal.Decimal
}

// UpdatePayment overwrites the payment fields supplied and recomputes the
// payment status. When the balance due reaches zero on a confirmed order the
// order becomes paid and CompletedAt is stamped; later calls never overwrite
// the stamp. The item is not marked sold here; that is MarkSold's job.
func (s *AdminService) UpdatePayment(ctx context.Context, orderID string, in PaymentUpdate) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	if in.PaidAmount == nil && in.Discount == nil {
		return domain.Order{}, domain.ErrInvalidAmount
	}
	if in.PaidAmount != nil && in.PaidAmount.IsNegative() {
		return domain.Order{}, domain.ErrInvalidAmount
	}
	if in.Discount != nil && in.Discount.IsNegative() {
		return domain.Order{}, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderStatusRejected || order.PaymentStatus == domain.PaymentStatusSettled {
			return domain.ErrOrderClosed
		}

		if in.PaidAmount != nil {
			order.PaidAmount = *in.PaidAmount
		}
		if in.Discount != nil {
			order.Discount = *in.Discount
		}

		due := order.TotalAmount.Sub(order.PaidAmount).Sub(order.Discount)
		switch {
		case !due.IsPositive() && order.Status == domain.OrderStatusConfirmed:
			order.PaymentStatus = domain.PaymentStatusPaid
			if order.CompletedAt == nil {
				order.CompletedAt = &now
			}
		case order.PaidAmount.IsPositive() || order.Discount.IsPositive():
			order.PaymentStatus = domain.PaymentStatusPartial
		default:
			order.PaymentStatus = domain.PaymentStatusPending
		}

		if err := s.repo.UpdatePayment(txCtx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, domain.StatusChange{OrderID: result.ID, Status: string(result.PaymentStatus), Actor: adminActor})
	}
	return result, nil
}

// MarkSold records fulfillment of a fully paid, confirmed order: the item
// becomes sold and the payment status settles. Idempotent once settled.
func (s *AdminService) MarkSold(ctx context.Context, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}

	var result domain.Order
	changed := false

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == domain.PaymentStatusSettled {
			result = order
			return nil
		}
		if order.Status != domain.OrderStatusConfirmed || order.PaymentStatus != domain.PaymentStatusPaid {
			return domain.ErrPaymentIncomplete
		}

		order.PaymentStatus = domain.PaymentStatusSettled
		if err := s.repo.UpdatePayment(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.MarkItemSold(txCtx, order.ItemID); err != nil {
			return err
		}

		result = order
		changed = true
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if changed && s.notifier != nil {
		s.notifier.StatusChanged(ctx, domain.StatusChange{ItemID: result.ItemID, Status: string(domain.ItemStatusSold), Actor: adminActor})
	}
	return result, nil
}
