package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solera/gemvault/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const orderColumns = `id, buyer_id, item_id, status, total_amount, paid_amount, discount, payment_status, created_at, completed_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status, payment string
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.ItemID, &status, &o.TotalAmount, &o.PaidAmount,
		&o.Discount, &payment, &o.CreatedAt, &o.CompletedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)
	return o, nil
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(queryRow(ctx, r.pool, sql, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(queryRow(ctx, r.pool, sql, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrdersForUpdate(ctx context.Context, orderIDs []string) ([]domain.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = ANY($1) ORDER BY created_at FOR UPDATE`

	rows, err := query(ctx, r.pool, sql, orderIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("get orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// GetOpenOrderByItemID finds the item's non-rejected order, if any. At most
// one can exist; a partial unique index backs the pipeline's invariant.
func (r *OrderRepository) GetOpenOrderByItemID(ctx context.Context, itemID string) (*domain.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE item_id = $1 AND status <> 'rejected'`

	o, err := scanOrder(queryRow(ctx, r.pool, sql, itemID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get open order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, buyer_id, item_id, status, total_amount, paid_amount, discount, payment_status, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := exec(ctx, r.pool, stmt,
		order.ID,
		order.BuyerID,
		order.ItemID,
		order.Status,
		order.TotalAmount,
		order.PaidAmount,
		order.Discount,
		order.PaymentStatus,
		order.CreatedAt,
		order.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderOpen
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// UpdatePayment persists the payment fields of an order the caller has
// already locked and recomputed.
func (r *OrderRepository) UpdatePayment(ctx context.Context, order domain.Order) error {
	const stmt = `
UPDATE orders
SET paid_amount = $2, discount = $3, payment_status = $4, completed_at = $5
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		order.ID, order.PaidAmount, order.Discount, order.PaymentStatus, order.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetItemForUpdate(ctx context.Context, itemID string) (domain.Item, error) {
	sql := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`

	it, err := scanItem(queryRow(ctx, r.pool, sql, itemID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// MarkItemReviewing moves a hold into review. The predicate encodes both the
// prior state and the holder, so a stale or foreign hold affects zero rows.
func (r *OrderRepository) MarkItemReviewing(ctx context.Context, itemID, buyerID string) error {
	const stmt = `UPDATE items SET status = 'reviewing' WHERE id = $1 AND status = 'hold' AND held_by = $2`

	tag, err := exec(ctx, r.pool, stmt, itemID, buyerID)
	if err != nil {
		return fmt.Errorf("mark item reviewing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotHeldByBuyer
	}
	return nil
}

func (r *OrderRepository) MarkItemConfirmed(ctx context.Context, itemID string) error {
	const stmt = `UPDATE items SET status = 'confirmed' WHERE id = $1 AND status IN ('reviewing', 'confirmed')`

	tag, err := exec(ctx, r.pool, stmt, itemID)
	if err != nil {
		return fmt.Errorf("mark item confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// MarkItemAvailable reverts an item after rejection or cancellation,
// clearing the hold fields with it.
func (r *OrderRepository) MarkItemAvailable(ctx context.Context, itemID string) error {
	const stmt = `UPDATE items SET status = 'available', held_by = NULL, held_at = NULL WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, itemID)
	if err != nil {
		return fmt.Errorf("mark item available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *OrderRepository) MarkItemSold(ctx context.Context, itemID string) error {
	const stmt = `UPDATE items SET status = 'sold' WHERE id = $1 AND status IN ('confirmed', 'sold')`

	tag, err := exec(ctx, r.pool, stmt, itemID)
	if err != nil {
		return fmt.Errorf("mark item sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
