package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solera/gemvault/internal/app"
	"github.com/solera/gemvault/internal/domain"
)

// CatalogSearcher is the minimal interface needed for buyer search.
type CatalogSearcher interface {
	Search(ctx context.Context, f domain.SearchFilter, buyerID string) ([]app.SearchResult, error)
}

// HandleSearch returns an HTTP handler for catalog search. The buyer header
// is optional here; without it results simply carry no basket annotation.
func HandleSearch(svc CatalogSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req searchRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		results, err := svc.Search(r.Context(), req.toFilter(), BuyerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := searchResponse{Count: len(results), Items: make([]itemResponse, 0, len(results))}
		for _, res := range results {
			resp.Items = append(resp.Items, toItemResponse(res.Item, res.InBasket))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type searchRequest struct {
	Query     string   `json:"query,omitempty"`
	Shapes    []string `json:"shapes,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Clarities []string `json:"clarities,omitempty"`
	Finish    []string `json:"finish,omitempty"`

	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`
	CaratMin *decimal.Decimal `json:"carat_min,omitempty"`
	CaratMax *decimal.Decimal `json:"carat_max,omitempty"`

	Diameter  string   `json:"diameter,omitempty"`
	LengthMin *float64 `json:"length_min,omitempty"`
	LengthMax *float64 `json:"length_max,omitempty"`
	WidthMin  *float64 `json:"width_min,omitempty"`
	WidthMax  *float64 `json:"width_max,omitempty"`
}

func (r searchRequest) toFilter() domain.SearchFilter {
	return domain.SearchFilter{
		Query:     r.Query,
		Shapes:    r.Shapes,
		Colors:    r.Colors,
		Clarities: r.Clarities,
		Finish:    r.Finish,
		PriceMin:  r.PriceMin,
		PriceMax:  r.PriceMax,
		CaratMin:  r.CaratMin,
		CaratMax:  r.CaratMax,
		Diameter:  r.Diameter,
		LengthMin: r.LengthMin,
		LengthMax: r.LengthMax,
		WidthMin:  r.WidthMin,
		WidthMax:  r.WidthMax,
	}
}

type searchResponse struct {
	Count int            `json:"count"`
	Items []itemResponse `json:"items"`
}

type itemResponse struct {
	ID          string          `json:"id"`
	StockNumber string          `json:"stock_number"`
	Shape       string          `json:"shape"`
	Carat       decimal.Decimal `json:"carat"`
	Color       string          `json:"color,omitempty"`
	Clarity     string          `json:"clarity,omitempty"`
	Cut         string          `json:"cut,omitempty"`
	Polish      string          `json:"polish,omitempty"`
	Symmetry    string          `json:"symmetry,omitempty"`
	Measurement string          `json:"measurement,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
	HeldAt      *time.Time      `json:"held_at,omitempty"`
	InBasket    bool            `json:"in_basket"`
}

func toItemResponse(it domain.Item, inBasket bool) itemResponse {
	status := it.Status
	if status == "" {
		status = domain.ItemStatusAvailable
	}
	return itemResponse{
		ID:          it.ID,
		StockNumber: it.StockNumber,
		Shape:       it.Shape,
		Carat:       it.Carat,
		Color:       it.Color,
		Clarity:     it.Clarity,
		Cut:         it.Cut,
		Polish:      it.Polish,
		Symmetry:    it.Symmetry,
		Measurement: it.Measurement,
		Remarks:     it.Remarks,
		Price:       it.Price,
		Status:      string(status),
		HeldAt:      it.HeldAt,
		InBasket:    inBasket,
	}
}
