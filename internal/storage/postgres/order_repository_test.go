package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/domain"
	"github.com/solera/gemvault/internal/testutil"
)

func TestOrderRepository_Orders(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewOrderRepository(pool)

	now := time.Now().UTC().Truncate(time.Millisecond)

	newOrder := func(itemID, buyerID string) domain.Order {
		return domain.Order{
			ID:            uuid.NewString(),
			BuyerID:       buyerID,
			ItemID:        itemID,
			Status:        domain.OrderStatusPending,
			TotalAmount:   decimal.NewFromInt(1000),
			PaymentStatus: domain.PaymentStatusPending,
			CreatedAt:     now,
		}
	}

	t.Run("create and read back", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round"})

		order := newOrder("it-1", "buyer-a")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.BuyerID != "buyer-a" || got.ItemID != "it-1" || got.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected order: %+v", got)
		}
		if !got.TotalAmount.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("expected total 1000, got %s", got.TotalAmount)
		}
	})

	t.Run("second open order per item hits the unique index", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round"})

		if err := repo.CreateOrder(ctx, newOrder("it-1", "buyer-a")); err != nil {
			t.Fatalf("first create: %v", err)
		}
		if err := repo.CreateOrder(ctx, newOrder("it-1", "buyer-b")); !errors.Is(err, domain.ErrOrderOpen) {
			t.Fatalf("expected ErrOrderOpen, got %v", err)
		}
	})

	t.Run("a rejected order frees the slot", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round"})

		first := newOrder("it-1", "buyer-a")
		if err := repo.CreateOrder(ctx, first); err != nil {
			t.Fatalf("first create: %v", err)
		}
		if err := repo.UpdateOrderStatus(ctx, first.ID, domain.OrderStatusRejected); err != nil {
			t.Fatalf("reject: %v", err)
		}

		if open, err := repo.GetOpenOrderByItemID(ctx, "it-1"); err != nil {
			t.Fatalf("get open order: %v", err)
		} else if open != nil {
			t.Fatalf("expected no open order, got %+v", open)
		}
		if err := repo.CreateOrder(ctx, newOrder("it-1", "buyer-b")); err != nil {
			t.Fatalf("create after rejection: %v", err)
		}
	})

	t.Run("open order lookup finds the non-rejected one", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round"})

		order := newOrder("it-1", "buyer-a")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}

		open, err := repo.GetOpenOrderByItemID(ctx, "it-1")
		if err != nil {
			t.Fatalf("get open order: %v", err)
		}
		if open == nil || open.ID != order.ID {
			t.Fatalf("expected order %s, got %+v", order.ID, open)
		}
	})

	t.Run("payment fields round-trip", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round"})

		order := newOrder("it-1", "buyer-a")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}

		completed := now.Add(time.Hour)
		order.PaidAmount = decimal.NewFromInt(1000)
		order.PaymentStatus = domain.PaymentStatusPaid
		order.CompletedAt = &completed
		if err := repo.UpdatePayment(ctx, order); err != nil {
			t.Fatalf("update payment: %v", err)
		}

		got, err := repo.GetOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.PaymentStatus != domain.PaymentStatusPaid || !got.PaidAmount.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("unexpected payment state: %+v", got)
		}
		if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
			t.Fatalf("expected completedAt %v, got %v", completed, got.CompletedAt)
		}
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)

		if _, err := repo.GetOrder(ctx, uuid.NewString()); !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		if _, err := repo.GetOrder(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}

func TestOrderRepository_ItemTransitions(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewOrderRepository(pool)

	now := time.Now().UTC().Truncate(time.Millisecond)

	itemStatus := func(t *testing.T, id string) domain.Item {
		t.Helper()
		it, err := repo.GetItemForUpdate(ctx, id)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		return it
	}

	t.Run("reviewing requires the caller's hold", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-a", HeldAt: &now})

		if err := repo.MarkItemReviewing(ctx, "it-1", "buyer-b"); !errors.Is(err, domain.ErrNotHeldByBuyer) {
			t.Fatalf("foreign hold: expected ErrNotHeldByBuyer, got %v", err)
		}
		if err := repo.MarkItemReviewing(ctx, "it-1", "buyer-a"); err != nil {
			t.Fatalf("own hold: %v", err)
		}
		if got := itemStatus(t, "it-1").Status; got != domain.ItemStatusReviewing {
			t.Fatalf("expected reviewing, got %s", got)
		}

		// no longer on hold, so a repeat attempt loses the predicate
		if err := repo.MarkItemReviewing(ctx, "it-1", "buyer-a"); !errors.Is(err, domain.ErrNotHeldByBuyer) {
			t.Fatalf("repeat: expected ErrNotHeldByBuyer, got %v", err)
		}
	})

	t.Run("confirmed and sold are guarded by prior state", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusReviewing})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-2", StockNumber: "S-2", Shape: "round"})

		if err := repo.MarkItemConfirmed(ctx, "it-1"); err != nil {
			t.Fatalf("confirm from reviewing: %v", err)
		}
		if err := repo.MarkItemConfirmed(ctx, "it-1"); err != nil {
			t.Fatalf("confirm is idempotent: %v", err)
		}
		if err := repo.MarkItemConfirmed(ctx, "it-2"); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("confirm from available: expected ErrItemNotFound, got %v", err)
		}

		if err := repo.MarkItemSold(ctx, "it-2"); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("sell unconfirmed: expected ErrItemNotFound, got %v", err)
		}
		if err := repo.MarkItemSold(ctx, "it-1"); err != nil {
			t.Fatalf("sell confirmed: %v", err)
		}
		if err := repo.MarkItemSold(ctx, "it-1"); err != nil {
			t.Fatalf("sell is idempotent: %v", err)
		}
		if got := itemStatus(t, "it-1").Status; got != domain.ItemStatusSold {
			t.Fatalf("expected sold, got %s", got)
		}
	})

	t.Run("available clears the hold fields", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusReviewing, HeldBy: "buyer-a", HeldAt: &now})

		if err := repo.MarkItemAvailable(ctx, "it-1"); err != nil {
			t.Fatalf("mark available: %v", err)
		}
		it := itemStatus(t, "it-1")
		if it.Status != domain.ItemStatusAvailable || it.HeldBy != "" || it.HeldAt != nil {
			t.Fatalf("expected cleared hold fields, got %+v", it)
		}
	})

	t.Run("transaction rollback undoes both writes", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-a", HeldAt: &now})

		sentinel := errors.New("boom")
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			order := domain.Order{
				ID: uuid.NewString(), BuyerID: "buyer-a", ItemID: "it-1",
				Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending,
				CreatedAt: now,
			}
			if err := repo.CreateOrder(txCtx, order); err != nil {
				return err
			}
			if err := repo.MarkItemReviewing(txCtx, "it-1", "buyer-a"); err != nil {
				return err
			}
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected sentinel error, got %v", err)
		}

		if open, err := repo.GetOpenOrderByItemID(ctx, "it-1"); err != nil || open != nil {
			t.Fatalf("expected order rolled back, got %+v err %v", open, err)
		}
		if got := itemStatus(t, "it-1").Status; got != domain.ItemStatusHold {
			t.Fatalf("expected item still on hold, got %s", got)
		}
	})
}
