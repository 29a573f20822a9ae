package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/domain"
	"github.com/solera/gemvault/internal/testutil"
)

func TestItemRepository_Holds(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewItemRepository(pool)

	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("grants only rows still available", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-avail", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusAvailable})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-legacy", StockNumber: "S-2", Shape: "round"})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-held", StockNumber: "S-3", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-b", HeldAt: &now})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-sold", StockNumber: "S-4", Shape: "round", Status: domain.ItemStatusSold})

		granted, err := repo.HoldItems(ctx, []string{"it-avail", "it-legacy", "it-held", "it-sold", "it-missing"}, "buyer-a", now)
		if err != nil {
			t.Fatalf("hold items: %v", err)
		}
		if len(granted) != 2 {
			t.Fatalf("expected 2 grants, got %v", granted)
		}

		held, err := repo.ListHeldBy(ctx, "buyer-a")
		if err != nil {
			t.Fatalf("list held: %v", err)
		}
		if len(held) != 2 {
			t.Fatalf("expected 2 held items, got %d", len(held))
		}
		for _, it := range held {
			if it.Status != domain.ItemStatusHold || it.HeldBy != "buyer-a" || it.HeldAt == nil {
				t.Fatalf("expected hold fields set, got %+v", it)
			}
		}
	})

	t.Run("holding clears the basket mark", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-1", StockNumber: "S-1", Shape: "round", InBasketBy: "buyer-b", InBasketAt: &now})

		if _, err := repo.HoldItems(ctx, []string{"it-1"}, "buyer-a", now); err != nil {
			t.Fatalf("hold items: %v", err)
		}

		held, err := repo.ListHeldBy(ctx, "buyer-a")
		if err != nil {
			t.Fatalf("list held: %v", err)
		}
		if len(held) != 1 || held[0].InBasketBy != "" || held[0].InBasketAt != nil {
			t.Fatalf("expected basket mark cleared, got %+v", held)
		}
	})

	t.Run("release only touches the owner's holds", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-mine", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-a", HeldAt: &now})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-theirs", StockNumber: "S-2", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-b", HeldAt: &now})

		released, err := repo.ReleaseItems(ctx, []string{"it-mine", "it-theirs"}, "buyer-a")
		if err != nil {
			t.Fatalf("release items: %v", err)
		}
		if len(released) != 1 || released[0] != "it-mine" {
			t.Fatalf("expected only it-mine released, got %v", released)
		}

		othersHeld, err := repo.ListHeldBy(ctx, "buyer-b")
		if err != nil {
			t.Fatalf("list held: %v", err)
		}
		if len(othersHeld) != 1 {
			t.Fatalf("expected buyer-b's hold untouched, got %v", othersHeld)
		}
	})

	t.Run("reclaim reverts only expired holds", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		stale := now.Add(-49 * time.Hour)
		fresh := now.Add(-time.Hour)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-stale", StockNumber: "S-1", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-a", HeldAt: &stale, InBasketBy: "buyer-c", InBasketAt: &now})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-fresh", StockNumber: "S-2", Shape: "round", Status: domain.ItemStatusHold, HeldBy: "buyer-a", HeldAt: &fresh})

		n, err := repo.ReclaimExpired(ctx, now.Add(-48*time.Hour))
		if err != nil {
			t.Fatalf("reclaim: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 reclaimed, got %d", n)
		}

		held, err := repo.ListHeldBy(ctx, "buyer-a")
		if err != nil {
			t.Fatalf("list held: %v", err)
		}
		if len(held) != 1 || held[0].ID != "it-fresh" {
			t.Fatalf("expected only the fresh hold to survive, got %v", held)
		}

		// the reclaimed row can be granted again
		granted, err := repo.HoldItems(ctx, []string{"it-stale"}, "buyer-b", now)
		if err != nil {
			t.Fatalf("re-hold: %v", err)
		}
		if len(granted) != 1 {
			t.Fatalf("expected reclaimed item to be grantable, got %v", granted)
		}
	})
}

func TestItemRepository_Basket(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewItemRepository(pool)

	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("marks only purchasable rows", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-avail", StockNumber: "S-1", Shape: "round"})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-sold", StockNumber: "S-2", Shape: "round", Status: domain.ItemStatusSold})

		marked, err := repo.MarkBasket(ctx, []string{"it-avail", "it-sold"}, "buyer-a", now)
		if err != nil {
			t.Fatalf("mark basket: %v", err)
		}
		if len(marked) != 1 || marked[0] != "it-avail" {
			t.Fatalf("expected only the available row marked, got %v", marked)
		}
	})

	t.Run("clear only removes the caller's marks", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-mine", StockNumber: "S-1", Shape: "round", InBasketBy: "buyer-a", InBasketAt: &now})
		testutil.InsertItem(t, ctx, pool, domain.Item{ID: "it-theirs", StockNumber: "S-2", Shape: "round", InBasketBy: "buyer-b", InBasketAt: &now})

		cleared, err := repo.ClearBasket(ctx, []string{"it-mine", "it-theirs"}, "buyer-a")
		if err != nil {
			t.Fatalf("clear basket: %v", err)
		}
		if len(cleared) != 1 || cleared[0] != "it-mine" {
			t.Fatalf("expected only it-mine cleared, got %v", cleared)
		}
	})
}

func TestItemRepository_Search(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	repo := NewItemRepository(pool)
	testutil.TruncateAll(t, ctx, pool)

	seed := []domain.Item{
		{ID: "it-round-ex", StockNumber: "RD-100", Shape: "Round", Color: "D", Clarity: "VS1", Cut: "EX", Polish: "EX", Symmetry: "EX", Price: decimal.NewFromInt(2000), Carat: decimal.NewFromFloat(1.01)},
		{ID: "it-round-vg", StockNumber: "RD-101", Shape: "Round", Color: "E", Clarity: "VS2", Cut: "VG", Polish: "EX", Symmetry: "EX", Price: decimal.NewFromInt(1500), Carat: decimal.NewFromFloat(0.90)},
		{ID: "it-oval", StockNumber: "OV-200", Shape: "Oval", Color: "D", Clarity: "VS1", Polish: "EX", Symmetry: "EX", Price: decimal.NewFromInt(1000), Carat: decimal.NewFromFloat(1.20), Remarks: "vivid fluorescence"},
		{ID: "it-sold", StockNumber: "RD-102", Shape: "Round", Color: "D", Clarity: "VS1", Cut: "EX", Polish: "EX", Symmetry: "EX", Price: decimal.NewFromInt(900), Status: domain.ItemStatusSold},
		{ID: "it-reviewing", StockNumber: "RD-103", Shape: "Round", Color: "D", Clarity: "VS1", Cut: "EX", Polish: "EX", Symmetry: "EX", Price: decimal.NewFromInt(950), Status: domain.ItemStatusReviewing},
	}
	for _, it := range seed {
		testutil.InsertItem(t, ctx, pool, it)
	}

	t.Run("excludes sold and reviewing, sorts by price", func(t *testing.T) {
		items, err := repo.SearchItems(ctx, domain.SearchFilter{}, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}
		if items[0].ID != "it-oval" || items[1].ID != "it-round-vg" || items[2].ID != "it-round-ex" {
			t.Fatalf("expected price-ascending order, got %v", items)
		}
	})

	t.Run("finish grade needs cut only on round", func(t *testing.T) {
		items, err := repo.SearchItems(ctx, domain.SearchFilter{Finish: []string{"EX"}}, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		// it-round-vg has VG cut and drops out; the oval has no cut grade at all
		if len(items) != 2 || items[0].ID != "it-oval" || items[1].ID != "it-round-ex" {
			t.Fatalf("expected oval and round-ex, got %v", items)
		}
	})

	t.Run("range and membership filters", func(t *testing.T) {
		min := decimal.NewFromInt(1200)
		items, err := repo.SearchItems(ctx, domain.SearchFilter{Shapes: []string{"Round"}, PriceMin: &min}, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 rounds at or above 1200, got %v", items)
		}
	})

	t.Run("free text matches stock number and remarks", func(t *testing.T) {
		items, err := repo.SearchItems(ctx, domain.SearchFilter{Query: "ov-2"}, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(items) != 1 || items[0].ID != "it-oval" {
			t.Fatalf("expected stock-number match, got %v", items)
		}

		items, err = repo.SearchItems(ctx, domain.SearchFilter{Query: "vivid"}, 500)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(items) != 1 || items[0].ID != "it-oval" {
			t.Fatalf("expected remarks match, got %v", items)
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		items, err := repo.SearchItems(ctx, domain.SearchFilter{}, 2)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
	})
}
