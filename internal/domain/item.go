package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusHold      ItemStatus = "hold"
	ItemStatusReviewing ItemStatus = "reviewing"
	ItemStatusConfirmed ItemStatus = "confirmed"
	ItemStatusSold      ItemStatus = "sold"
)

// Item is a uniquely identified sellable stone. Descriptive attributes are
// populated by catalog ingestion and are read-only here; only status and the
// hold/basket fields are mutated by this service.
//
// A legacy row may carry an empty status; it is treated as available.
type Item struct {
	ID          string
	StockNumber string
	Shape       string
	Carat       decimal.Decimal
	Color       string
	Clarity     string
	Cut         string
	Polish      string
	Symmetry    string
	Measurement string
	Remarks     string
	Price       decimal.Decimal

	Status ItemStatus
	HeldBy string
	HeldAt *time.Time

	InBasketBy string
	InBasketAt *time.Time

	CreatedAt time.Time
}

// Holder returns the current holder and true when the item is on hold.
// Status and HeldBy are set and cleared together at the storage boundary,
// so checking both keeps an inconsistent row from ever looking held.
func (i Item) Holder() (string, bool) {
	if i.Status != ItemStatusHold || i.HeldBy == "" {
		return "", false
	}
	return i.HeldBy, true
}

// Purchasable reports whether the item can appear in buyer search results.
func (i Item) Purchasable() bool {
	return i.Status != ItemStatusSold && i.Status != ItemStatusReviewing
}
