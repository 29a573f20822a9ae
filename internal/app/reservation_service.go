package app

import (
	"context"
	"time"

	"github.com/solera/gemvault/internal/clock"
	"github.com/solera/gemvault/internal/domain"
	"github.com/solera/gemvault/internal/metrics"
	"github.com/solera/gemvault/internal/ratelimit"
)

type ReservationRepository interface {
	ReclaimExpired(ctx context.Context, cutoff time.Time) (int, error)
	HoldItems(ctx context.Context, itemIDs []string, buyerID string, now time.Time) ([]string, error)
	ReleaseItems(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)
	ListHeldBy(ctx context.Context, buyerID string) ([]domain.Item, error)
}

// ReservationService grants and revokes exclusive holds. It never waits on
// another buyer's request: every mutation is a conditional update that
// either wins or affects zero rows.
type ReservationService struct {
	repo     ReservationRepository
	clock    clock.Clock
	notifier Notifier
	metrics  *metrics.Metrics

	holdTTL time.Duration

	limiter    ratelimit.Counter
	rateLimit  int
	rateWindow time.Duration
}

const defaultHoldTTL = 48 * time.Hour

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationOption) *ReservationService {
	svc := &ReservationService{
		repo:    repo,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationOption func(*ReservationService)

// WithHoldTTL overrides the default TTL for holds.
func WithHoldTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithReservationNotifier(n Notifier) ReservationOption {
	return func(s *ReservationService) {
		s.notifier = n
	}
}

func WithReservationMetrics(m *metrics.Metrics) ReservationOption {
	return func(s *ReservationService) {
		s.metrics = m
	}
}

// WithHoldRateLimit caps how many hold requests one buyer may issue per
// window. A nil counter leaves the check disabled.
func WithHoldRateLimit(c ratelimit.Counter, max int, window time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if c != nil && max > 0 && window > 0 {
			s.limiter = c
			s.rateLimit = max
			s.rateWindow = window
		}
	}
}

type HoldResult struct {
	GrantedCount int
	GrantedIDs   []string
}

// Hold attempts to reserve every listed item for the buyer. Items not in an
// eligible prior state are silently skipped; partial grant is normal, and
// the result reports which IDs actually transitioned. Establishing a hold
// clears any basket mark on the item.
func (s *ReservationService) Hold(ctx context.Context, itemIDs []string, buyerID string) (HoldResult, error) {
	if len(itemIDs) == 0 {
		return HoldResult{}, domain.ErrNoItems
	}
	if buyerID == "" {
		return HoldResult{}, domain.ErrBuyerRequired
	}

	if s.limiter != nil {
		n, err := s.limiter.Incr(ctx, "hold:"+buyerID, s.rateWindow)
		if err != nil {
			return HoldResult{}, err
		}
		if n > s.rateLimit {
			return HoldResult{}, domain.ErrHoldRateLimited
		}
	}

	now := s.clock.Now()
	if _, err := s.reclaim(ctx, now); err != nil {
		return HoldResult{}, err
	}

	granted, err := s.repo.HoldItems(ctx, itemIDs, buyerID, now)
	if err != nil {
		return HoldResult{}, err
	}

	if s.metrics != nil {
		s.metrics.HoldsGranted.Add(float64(len(granted)))
	}
	s.notify(ctx, granted, string(domain.ItemStatusHold), buyerID)

	return HoldResult{GrantedCount: len(granted), GrantedIDs: granted}, nil
}

// Release clears the buyer's holds on the listed items. Items held by a
// different buyer are left untouched: ownership is part of the update
// predicate, not a separate check.
func (s *ReservationService) Release(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
	if len(itemIDs) == 0 {
		return nil, domain.ErrNoItems
	}
	if buyerID == "" {
		return nil, domain.ErrBuyerRequired
	}

	released, err := s.repo.ReleaseItems(ctx, itemIDs, buyerID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, released, string(domain.ItemStatusAvailable), buyerID)
	return released, nil
}

// ListHeld returns the buyer's current holds after reclaiming expired ones.
func (s *ReservationService) ListHeld(ctx context.Context, buyerID string) ([]domain.Item, error) {
	if buyerID == "" {
		return nil, domain.ErrBuyerRequired
	}

	if _, err := s.reclaim(ctx, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.repo.ListHeldBy(ctx, buyerID)
}

// Reclaim runs the expiry sweep once and reports how many holds it
// reclaimed. The sweep also runs at the head of every search, hold and
// held-item listing, so calling it explicitly is operational hygiene for
// items nobody queries, not a correctness requirement.
func (s *ReservationService) Reclaim(ctx context.Context) (int, error) {
	return s.reclaim(ctx, s.clock.Now())
}

func (s *ReservationService) reclaim(ctx context.Context, now time.Time) (int, error) {
	count, err := s.repo.ReclaimExpired(ctx, now.Add(-s.holdTTL))
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.HoldsReclaimed.Add(float64(count))
	}
	return count, nil
}

func (s *ReservationService) notify(ctx context.Context, itemIDs []string, status, actor string) {
	if s.notifier == nil {
		return
	}
	for _, id := range itemIDs {
		s.notifier.StatusChanged(ctx, domain.StatusChange{ItemID: id, Status: status, Actor: actor})
	}
}
