package httpadapter

import (
	"net/http"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/filter"
	"mailcadence/internal/core/port"
)

func (h *Handler) handleAudiencePreview(w http.ResponseWriter, r *http.Request) {
	var t domain.Targeting
	if err := decode(r, &t); err != nil {
		h.writeError(w, "audience preview", err)
		return
	}
	preview, err := h.campaigns.PreviewAudience(r.Context(), t)
	if err != nil {
		h.writeError(w, "audience preview", err)
		return
	}
	resp := previewResponse{Households: preview.Households, Rows: make([]rollupResponse, 0, len(preview.Rows))}
	for _, row := range preview.Rows {
		resp.Rows = append(resp.Rows, rollupResponse{
			PostalCodeShort:    row.PostalCodeShort,
			Households:         row.Households,
			AverageCustomerLTV: row.AverageCustomerLTV,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleRuleCatalog lists every targeting rule with its allowed values.
func (h *Handler) handleRuleCatalog(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, filter.Catalog())
}

type bulkStatusRequest struct {
	Year   int                `json:"year"`
	Week   int                `json:"week"`
	Status domain.BatchStatus `json:"status"`
}

func (h *Handler) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var body bulkStatusRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, "bulk status", err)
		return
	}
	ev, err := h.bulk.ApplyBulkStatus(r.Context(), port.BulkStatusReq{Year: body.Year, Week: body.Week, Status: body.Status})
	if err != nil {
		h.writeError(w, "bulk status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, bulkStatusResponse{
		ID:               ev.ID,
		Year:             ev.Year,
		Week:             ev.Week,
		TargetStatus:     ev.TargetStatus,
		AffectedBatchIDs: ev.AffectedBatchIDs,
		CreatedAt:        ev.CreatedAt,
	})
}
