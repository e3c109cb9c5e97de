package loyalty

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ecobazaarx/backend-eco/internal/common"
)

// LedgerStore is the slice of persistence the handlers need.
type LedgerStore interface {
	ListLedgerEntries(ctx context.Context, userID string, limit int) ([]Entry, error)
	SumLedger(ctx context.Context, userID string) (int, error)
}

// Handlers exposes the point history endpoint.
type Handlers struct {
	Ledger LedgerStore
}

// PointsHistory handles GET /api/v1/points/history?limit=n.
func (h *Handlers) PointsHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.Ledger.ListLedgerEntries(r.Context(), userID, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	balance, err := h.Ledger.SumLedger(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"balance": balance,
	})
}
