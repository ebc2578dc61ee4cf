// internal/info/info.go
package info

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"funnelgate/internal/data"
	"funnelgate/internal/logger"
	"funnelgate/internal/middleware"
)

// Handler serves the operational summary endpoint.
type Handler struct {
	db *data.DB
}

func NewHandler(db *data.DB) *Handler {
	return &Handler{db: db}
}

type summaryResponse struct {
	TotalSessions    int            `json:"total_sessions"`
	GrossAmount      int64          `json:"gross_amount_minor"`
	GrossAmountText  string         `json:"gross_amount"`
	SessionsByFunnel map[string]int `json:"sessions_by_funnel"`
	DecisionCounts   map[string]int `json:"decision_counts"`
}

// Summary handles GET /api/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.db.GetSummary(r.Context())
	if err != nil {
		logger.LogError("Summary query failed: %v", err)
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "failed to load summary", "")
		return
	}

	middleware.WriteJSON(w, summaryResponse{
		TotalSessions:    summary.TotalSessions,
		GrossAmount:      summary.GrossAmount,
		GrossAmountText:  fmt.Sprintf("$%s", humanize.CommafWithDigits(float64(summary.GrossAmount)/100, 2)),
		SessionsByFunnel: summary.SessionsByFunnel,
		DecisionCounts:   summary.DecisionCounts,
	})
}
