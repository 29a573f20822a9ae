package app

import (
	"context"
	"sort"
	"time"

	"github.com/solera/gemvault/internal/clock"
	"github.com/solera/gemvault/internal/domain"
)

type CatalogRepository interface {
	ReclaimExpired(ctx context.Context, cutoff time.Time) (int, error)
	SearchItems(ctx context.Context, f domain.SearchFilter, limit int) ([]domain.Item, error)
	MarkBasket(ctx context.Context, itemIDs []string, buyerID string, now time.Time) ([]string, error)
	ClearBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)
}

// CatalogService produces the buyer-visible result set and manages the
// basket shortlist the results are annotated with.
type CatalogService struct {
	repo    CatalogRepository
	clock   clock.Clock
	holdTTL time.Duration
}

// SearchResultCap bounds every buyer search. When a measurement-derived
// filter is present the cap is applied after the in-process pass instead of
// in the store query, since length, width and diameter are not indexed
// fields.
const SearchResultCap = 500

func NewCatalogService(repo CatalogRepository, clk clock.Clock, opts ...CatalogOption) *CatalogService {
	svc := &CatalogService{
		repo:    repo,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CatalogOption func(*CatalogService)

// WithCatalogHoldTTL keeps the reclaim cutoff in step with the reservation
// engine's TTL.
func WithCatalogHoldTTL(d time.Duration) CatalogOption {
	return func(s *CatalogService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type SearchResult struct {
	Item     domain.Item
	InBasket bool
}

// Search reclaims expired holds, then runs the filter. Sold and reviewing
// items never appear. Results are sorted ascending by price and capped;
// InBasket reflects the requesting buyer's own shortlist marks only.
func (s *CatalogService) Search(ctx context.Context, f domain.SearchFilter, buyerID string) ([]SearchResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if _, err := s.repo.ReclaimExpired(ctx, now.Add(-s.holdTTL)); err != nil {
		return nil, err
	}

	deferCap := f.NeedsMeasurementPass()
	limit := SearchResultCap
	if deferCap {
		limit = 0
	}

	items, err := s.repo.SearchItems(ctx, f, limit)
	if err != nil {
		return nil, err
	}

	if deferCap {
		filtered := items[:0]
		for _, it := range items {
			if f.MatchesMeasurement(it.Measurement) {
				filtered = append(filtered, it)
			}
		}
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Price.LessThan(filtered[j].Price)
		})
		if len(filtered) > SearchResultCap {
			filtered = filtered[:SearchResultCap]
		}
		items = filtered
	}

	results := make([]SearchResult, 0, len(items))
	for _, it := range items {
		results = append(results, SearchResult{
			Item:     it,
			InBasket: buyerID != "" && it.InBasketBy == buyerID,
		})
	}
	return results, nil
}

// AddToBasket marks purchasable items as shortlisted by the buyer. The mark
// is advisory: it grants no exclusivity and any later hold clears it.
func (s *CatalogService) AddToBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, domain.ErrNoItems
	}
	if buyerID == "" {
		return nil, domain.ErrBuyerRequired
	}
	return s.repo.MarkBasket(ctx, itemIDs, buyerID, s.clock.Now())
}

func (s *CatalogService) RemoveFromBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, domain.ErrNoItems
	}
	if buyerID == "" {
		return nil, domain.ErrBuyerRequired
	}
	return s.repo.ClearBasket(ctx, itemIDs, buyerID)
}
