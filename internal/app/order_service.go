package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/solera/gemvault/internal/clock"
	"github.com/solera/gemvault/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error)
	GetOpenOrderByItemID(ctx context.Context, itemID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	GetOrdersForUpdate(ctx context.Context, orderIDs []string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	MarkItemReviewing(ctx context.Context, itemID, buyerID string) error
	MarkItemAvailable(ctx context.Context, itemID string) error
}

// OrderService moves a held item into checkout and handles buyer-side order
// operations. Item status and order status always change in the same
// transaction.
type OrderService struct {
	repo     OrderRepository
	clock    clock.Clock
	notifier Notifier
}

func NewOrderService(repo OrderRepository, clk clock.Clock, opts ...OrderOption) *OrderService {
	svc := &OrderService{
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type OrderOption func(*OrderService)

func WithOrderNotifier(n Notifier) OrderOption {
	return func(s *OrderService) {
		s.notifier = n
	}
}

// ConfirmOrder converts the buyer's hold on an item into a pending order and
// moves the item into review. The item must currently be held by this buyer.
func (s *OrderService) ConfirmOrder(ctx context.Context, itemID, buyerID string) (domain.Order, error) {
	if itemID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	if buyerID == "" {
		return domain.Order{}, domain.ErrBuyerRequired
	}

	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		item, err := s.repo.GetItemForUpdate(txCtx, itemID)
		if err != nil {
			return err
		}

		switch item.Status {
		case domain.ItemStatusReviewing, domain.ItemStatusConfirmed, domain.ItemStatusSold:
			return domain.ErrAlreadyInReview
		}
		if holder, ok := item.Holder(); !ok || holder != buyerID {
			return domain.ErrNotHeldByBuyer
		}

		if open, err := s.repo.GetOpenOrderByItemID(txCtx, itemID); err != nil {
			return err
		} else if open != nil {
			return domain.ErrOrderOpen
		}

		order := domain.Order{
			ID:            uuid.NewString(),
			BuyerID:       buyerID,
			ItemID:        itemID,
			Status:        domain.OrderStatusPending,
			TotalAmount:   item.Price,
			PaymentStatus: domain.PaymentStatusPending,
			CreatedAt:     now,
		}

		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.MarkItemReviewing(txCtx, itemID, buyerID); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, domain.StatusChange{ItemID: itemID, Status: string(domain.ItemStatusReviewing), Actor: buyerID})
		s.notifier.StatusChanged(ctx, domain.StatusChange{OrderID: result.ID, Status: string(domain.OrderStatusPending), Actor: buyerID})
	}
	return result, nil
}

// CancelOrders is buyer-initiated rejection, permitted only while the order
// is pending. Every named order must exist, belong to the buyer and still be
// pending; otherwise nothing is cancelled.
func (s *OrderService) CancelOrders(ctx context.Context, orderIDs []string, buyerID string) ([]domain.Order, error) {
	if len(orderIDs) == 0 {
		return nil, domain.ErrNoOrders
	}
	if buyerID == "" {
		return nil, domain.ErrBuyerRequired
	}

	var cancelled []domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		orders, err := s.repo.GetOrdersForUpdate(txCtx, orderIDs)
		if err != nil {
			return err
		}
		if len(orders) != len(dedupe(orderIDs)) {
			return domain.ErrOrderNotFound
		}

		for _, o := range orders {
			if o.BuyerID != buyerID {
				return domain.ErrNotOrderOwner
			}
			if o.Status != domain.OrderStatusPending {
				return domain.ErrOrderNotPending
			}
		}

		cancelled = cancelled[:0]
		for _, o := range orders {
			if err := s.repo.UpdateOrderStatus(txCtx, o.ID, domain.OrderStatusRejected); err != nil {
				return err
			}
			if err := s.repo.MarkItemAvailable(txCtx, o.ItemID); err != nil {
				return err
			}
			o.Status = domain.OrderStatusRejected
			cancelled = append(cancelled, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		for _, o := range cancelled {
			s.notifier.StatusChanged(ctx, domain.StatusChange{OrderID: o.ID, Status: string(domain.OrderStatusRejected), Actor: buyerID})
			s.notifier.StatusChanged(ctx, domain.StatusChange{ItemID: o.ItemID, Status: string(domain.ItemStatusAvailable), Actor: buyerID})
		}
	}
	return cancelled, nil
}

// GetOrder returns one order, visible to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, buyerID string, admin bool) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !admin && order.BuyerID != buyerID {
		return domain.Order{}, domain.ErrNotOrderOwner
	}
	return order, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
