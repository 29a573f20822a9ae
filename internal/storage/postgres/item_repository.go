package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solera/gemvault/internal/domain"
)

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

func (r *ItemRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const itemColumns = `id, stock_number, shape, carat, color, clarity, cut, polish, symmetry,
measurement, remarks, price, COALESCE(status, ''), COALESCE(held_by, ''), held_at,
COALESCE(in_basket_by, ''), in_basket_at, created_at`

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	var status string
	err := row.Scan(
		&it.ID, &it.StockNumber, &it.Shape, &it.Carat, &it.Color, &it.Clarity,
		&it.Cut, &it.Polish, &it.Symmetry, &it.Measurement, &it.Remarks, &it.Price,
		&status, &it.HeldBy, &it.HeldAt, &it.InBasketBy, &it.InBasketAt, &it.CreatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}
	it.Status = domain.ItemStatus(status)
	return it, nil
}

// ReclaimExpired reverts every hold older than the cutoff back to available
// in a single conditional update. Basket marks survive reclamation.
func (r *ItemRepository) ReclaimExpired(ctx context.Context, cutoff time.Time) (int, error) {
	const stmt = `
UPDATE items
SET status = 'available', held_by = NULL, held_at = NULL
WHERE status = 'hold' AND held_at < $1`

	tag, err := exec(ctx, r.pool, stmt, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reclaim expired holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// HoldItems grants holds with at-most-one-winner semantics: the predicate
// only matches rows still available (or never statused), so a concurrent
// loser's update affects zero rows. Returns the IDs actually transitioned.
func (r *ItemRepository) HoldItems(ctx context.Context, itemIDs []string, buyerID string, now time.Time) ([]string, error) {
	const stmt = `
UPDATE items
SET status = 'hold', held_by = $1, held_at = $2, in_basket_by = NULL, in_basket_at = NULL
WHERE id = ANY($3) AND (status IS NULL OR status = '' OR status = 'available')
RETURNING id`

	rows, err := query(ctx, r.pool, stmt, buyerID, now, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("hold items: %w", err)
	}
	return collectIDs(rows)
}

// ReleaseItems clears holds owned by the buyer. Ownership is part of the
// predicate: rows held by anyone else are untouched, not an error.
func (r *ItemRepository) ReleaseItems(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
	const stmt = `
UPDATE items
SET status = 'available', held_by = NULL, held_at = NULL
WHERE id = ANY($1) AND status = 'hold' AND held_by = $2
RETURNING id`

	rows, err := query(ctx, r.pool, stmt, itemIDs, buyerID)
	if err != nil {
		return nil, fmt.Errorf("release items: %w", err)
	}
	return collectIDs(rows)
}

func (r *ItemRepository) ListHeldBy(ctx context.Context, buyerID string) ([]domain.Item, error) {
	sql := `SELECT ` + itemColumns + ` FROM items WHERE status = 'hold' AND held_by = $1 ORDER BY held_at`

	rows, err := query(ctx, r.pool, sql, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list held items: %w", err)
	}
	return collectItems(rows)
}

// MarkBasket sets the buyer's shortlist marker on purchasable rows. The
// marker is single-holder and last-writer-wins, matching the flat storage
// shape; a later hold by anyone clears it.
func (r *ItemRepository) MarkBasket(ctx context.Context, itemIDs []string, buyerID string, now time.Time) ([]string, error) {
	const stmt = `
UPDATE items
SET in_basket_by = $1, in_basket_at = $2
WHERE id = ANY($3) AND (status IS NULL OR status = '' OR status = 'available')
RETURNING id`

	rows, err := query(ctx, r.pool, stmt, buyerID, now, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("mark basket: %w", err)
	}
	return collectIDs(rows)
}

func (r *ItemRepository) ClearBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
	const stmt = `
UPDATE items
SET in_basket_by = NULL, in_basket_at = NULL
WHERE id = ANY($1) AND in_basket_by = $2
RETURNING id`

	rows, err := query(ctx, r.pool, stmt, itemIDs, buyerID)
	if err != nil {
		return nil, fmt.Errorf("clear basket: %w", err)
	}
	return collectIDs(rows)
}

// SearchItems runs the store-expressible part of a catalog query. limit <= 0
// means uncapped; the caller defers the cap when a measurement-derived
// filter needs an in-process pass.
func (r *ItemRepository) SearchItems(ctx context.Context, f domain.SearchFilter, limit int) ([]domain.Item, error) {
	sql, args := buildSearchQuery(f, limit)
	rows, err := query(ctx, r.pool, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return collectItems(rows)
}

// buildSearchQuery translates equality/range/membership filters into SQL.
// Sold and reviewing rows are excluded unconditionally. Finish grades apply
// with different arity per shape, expressed as a disjunction keyed on shape
// so round rows are matched on cut, polish and symmetry while every other
// shape is matched on polish and symmetry only.
func buildSearchQuery(f domain.SearchFilter, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE COALESCE(status, '') NOT IN ('sold', 'reviewing')`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		sb.WriteString(" AND (stock_number ILIKE " + p + " OR remarks ILIKE " + p + ")")
	}
	if len(f.Shapes) > 0 {
		sb.WriteString(" AND shape = ANY(" + arg(f.Shapes) + ")")
	}
	if len(f.Colors) > 0 {
		sb.WriteString(" AND color = ANY(" + arg(f.Colors) + ")")
	}
	if len(f.Clarities) > 0 {
		sb.WriteString(" AND clarity = ANY(" + arg(f.Clarities) + ")")
	}
	if len(f.Finish) > 0 {
		p := arg(f.Finish)
		sb.WriteString(" AND ((LOWER(shape) = 'round' AND cut = ANY(" + p + ") AND polish = ANY(" + p + ") AND symmetry = ANY(" + p + "))" +
			" OR (LOWER(shape) <> 'round' AND polish = ANY(" + p + ") AND symmetry = ANY(" + p + ")))")
	}
	if f.PriceMin != nil {
		sb.WriteString(" AND price >= " + arg(*f.PriceMin))
	}
	if f.PriceMax != nil {
		sb.WriteString(" AND price <= " + arg(*f.PriceMax))
	}
	if f.CaratMin != nil {
		sb.WriteString(" AND carat >= " + arg(*f.CaratMin))
	}
	if f.CaratMax != nil {
		sb.WriteString(" AND carat <= " + arg(*f.CaratMax))
	}

	sb.WriteString(" ORDER BY price ASC")
	if limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(limit))
	}
	return sb.String(), args
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return ids, nil
}

func collectItems(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()
	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}
