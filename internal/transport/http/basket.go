package http

import (
	"context"
	"encoding/json"
	"net/http"
)

// BasketService is the minimal interface needed for the shortlist endpoints.
type BasketService interface {
	AddToBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)
	RemoveFromBasket(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)
}

// HandleBasket marks items as shortlisted; HandleBasketRemove clears the
// buyer's own marks. Both report which IDs were actually touched.
func HandleBasket(svc BasketService) http.HandlerFunc {
	return basketHandler(func(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
		return svc.AddToBasket(ctx, itemIDs, buyerID)
	})
}

func HandleBasketRemove(svc BasketService) http.HandlerFunc {
	return basketHandler(func(ctx context.Context, itemIDs []string, buyerID string) ([]string, error) {
		return svc.RemoveFromBasket(ctx, itemIDs, buyerID)
	})
}

func basketHandler(op func(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req itemIDsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		ids, err := op(r.Context(), req.ItemIDs, BuyerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := basketResponse{UpdatedCount: len(ids), UpdatedIDs: emptyIfNil(ids)}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type basketResponse struct {
	UpdatedCount int      `json:"updated_count"`
	UpdatedIDs   []string `json:"updated_ids"`
}
