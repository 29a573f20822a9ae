package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/solera/gemvault/internal/app"
	"github.com/solera/gemvault/internal/domain"
)

// HoldService is the minimal interface needed for the holds endpoints.
type HoldService interface {
	Hold(ctx context.Context, itemIDs []string, buyerID string) (app.HoldResult, error)
	Release(ctx context.Context, itemIDs []string, buyerID string) ([]string, error)
	ListHeld(ctx context.Context, buyerID string) ([]domain.Item, error)
}

// HandleHolds serves hold creation (POST) and the buyer's held-item listing
// (GET) on the same route.
func HandleHolds(svc HoldService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req itemIDsRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			result, err := svc.Hold(r.Context(), req.ItemIDs, BuyerID(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}

			// Granted IDs ride along with the count so callers no longer
			// have to re-query to learn which holds they won.
			resp := holdResponse{
				GrantedCount: result.GrantedCount,
				GrantedIDs:   emptyIfNil(result.GrantedIDs),
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return

		case http.MethodGet:
			items, err := svc.ListHeld(r.Context(), BuyerID(r.Context()))
			if err != nil {
				writeDomainError(w, err)
				return
			}

			resp := make([]itemResponse, 0, len(items))
			for _, it := range items {
				resp = append(resp, toItemResponse(it, false))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleReleaseHolds releases the buyer's holds on the listed items. Items
// held by someone else are silently skipped.
func HandleReleaseHolds(svc HoldService) http.HandlerFunc {
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

		released, err := svc.Release(r.Context(), req.ItemIDs, BuyerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := releaseResponse{
			ReleasedCount: len(released),
			ReleasedIDs:   emptyIfNil(released),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type itemIDsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type holdResponse struct {
	GrantedCount int      `json:"granted_count"`
	GrantedIDs   []string `json:"granted_ids"`
}

type releaseResponse struct {
	ReleasedCount int      `json:"released_count"`
	ReleasedIDs   []string `json:"released_ids"`
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
