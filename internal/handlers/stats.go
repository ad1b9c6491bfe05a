package handlers

import (
	"net/http"

	"docquery/internal/service"
)

// StatsHandler handles HTTP requests for index statistics.
type StatsHandler struct {
	service service.DocumentService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc service.DocumentService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// StatsResponse represents the index statistics response.
type StatsResponse struct {
	TotalRecords   uint64 `json:"totalRecords"`
	Dimension      int    `json:"dimension"`
	IndexedVectors uint64 `json:"indexedVectors"`
	Segments       uint64 `json:"segments"`
	Status         string `json:"status"`
}

// ServeHTTP handles HTTP requests for index statistics.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.IndexStats(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to fetch index statistics")
		return
	}

	writeJSON(ctx, w, http.StatusOK, StatsResponse{
		TotalRecords:   stats.TotalRecords,
		Dimension:      stats.Dimension,
		IndexedVectors: stats.IndexedVectors,
		Segments:       stats.Segments,
		Status:         stats.Status,
	})
}
