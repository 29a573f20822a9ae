package app

import (
	"context"
	"sort"

	"github.com/solera/gemvault/internal/domain"
)

// fakeOrderRepo serves both the order pipeline and the admin service in
// tests. WithTx simply runs the closure; conditional semantics match the
// real repository's predicates.
type fakeOrderRepo struct {
	items  map[string]*domain.Item
	orders map[string]*domain.Order
}

func newFakeOrderRepo(items []domain.Item, orders []domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{
		items:  make(map[string]*domain.Item, len(items)),
		orders: make(map[string]*domain.Order, len(orders)),
	}
	for i := range items {
		it := items[i]
		repo.items[it.ID] = &it
	}
	for i := range orders {
		o := orders[i]
		repo.orders[o.ID] = &o
	}
	return repo
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrderRepo) GetItemForUpdate(_ context.Context, itemID string) (domain.Item, error) {
	it, ok := f.items[itemID]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return *it, nil
}

func (f *fakeOrderRepo) GetOpenOrderByItemID(_ context.Context, itemID string) (*domain.Order, error) {
	for _, o := range f.orders {
		if o.ItemID == itemID && o.Status != domain.OrderStatusRejected {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order domain.Order) error {
	for _, o := range f.orders {
		if o.ItemID == order.ItemID && o.Status != domain.OrderStatusRejected {
			return domain.ErrOrderOpen
		}
	}
	f.orders[order.ID] = &order
	return nil
}

func (f *fakeOrderRepo) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

func (f *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	return f.GetOrder(ctx, orderID)
}

func (f *fakeOrderRepo) GetOrdersForUpdate(_ context.Context, orderIDs []string) ([]domain.Order, error) {
	seen := make(map[string]struct{}, len(orderIDs))
	var orders []domain.Order
	for _, id := range orderIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if o, ok := f.orders[id]; ok {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) UpdatePayment(_ context.Context, order domain.Order) error {
	o, ok := f.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaidAmount = order.PaidAmount
	o.Discount = order.Discount
	o.PaymentStatus = order.PaymentStatus
	o.CompletedAt = order.CompletedAt
	return nil
}

func (f *fakeOrderRepo) MarkItemReviewing(_ context.Context, itemID, buyerID string) error {
	it, ok := f.items[itemID]
	if !ok || it.Status != domain.ItemStatusHold || it.HeldBy != buyerID {
		return domain.ErrNotHeldByBuyer
	}
	it.Status = domain.ItemStatusReviewing
	return nil
}

func (f *fakeOrderRepo) MarkItemConfirmed(_ context.Context, itemID string) error {
	it, ok := f.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	it.Status = domain.ItemStatusConfirmed
	return nil
}

func (f *fakeOrderRepo) MarkItemAvailable(_ context.Context, itemID string) error {
	it, ok := f.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	it.Status = domain.ItemStatusAvailable
	it.HeldBy = ""
	it.HeldAt = nil
	return nil
}

func (f *fakeOrderRepo) MarkItemSold(_ context.Context, itemID string) error {
	it, ok := f.items[itemID]
	if !ok {
		return domain.ErrItemNotFound
	}
	it.Status = domain.ItemStatusSold
	return nil
}

func (f *fakeOrderRepo) item(id string) domain.Item {
	return *f.items[id]
}

func (f *fakeOrderRepo) order(id string) domain.Order {
	return *f.orders[id]
}
