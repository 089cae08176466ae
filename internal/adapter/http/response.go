package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
)

type errorResponse struct {
	Code  domain.Code `json:"code"`
	Error string      `json:"error"`
}

func statusOf(code domain.Code) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError maps a coded error to its status. Transient failures are logged
// and their cause is not echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	code := domain.CodeOf(err)
	msg := err.Error()
	if code == domain.CodeTransient {
		h.logger.Error(op+" error", slog.Any("error", err))
		msg = "temporarily unavailable, retry later"
	}
	h.writeJSON(w, statusOf(code), errorResponse{Code: code, Error: msg})
}

type batchResponse struct {
	ID          int64              `json:"id"`
	Status      domain.BatchStatus `json:"status"`
	Size        int                `json:"size"`
	ProspectIDs []int64            `json:"prospect_ids"`
}

type weekResponse struct {
	ID                int64          `json:"id"`
	WeekNumber        int            `json:"week_number"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	IsMailingDropWeek bool           `json:"is_mailing_drop_week"`
	Batch             *batchResponse `json:"batch,omitempty"`
}

type iterationResponse struct {
	ID              int64                  `json:"id"`
	IterationNumber int                    `json:"iteration_number"`
	StartDate       time.Time              `json:"start_date"`
	EndDate         time.Time              `json:"end_date"`
	Status          domain.IterationStatus `json:"status"`
	Materialized    bool                   `json:"materialized"`
	Weeks           []weekResponse         `json:"weeks,omitempty"`
}

type campaignResponse struct {
	ID                    int64                 `json:"id"`
	IdempotencyKey        string                `json:"idempotency_key"`
	Name                  string                `json:"name"`
	StartDate             time.Time             `json:"start_date"`
	EndDate               time.Time             `json:"end_date"`
	MailingFrequencyWeeks int                   `json:"mailing_frequency_weeks"`
	MailingDropWeeks      []int                 `json:"mailing_drop_weeks"`
	Status                domain.CampaignStatus `json:"status"`
	Targeting             domain.Targeting      `json:"targeting"`
	Iterations            []iterationResponse   `json:"iterations"`
}

func newCampaignResponse(v *port.CampaignView) campaignResponse {
	c := v.Campaign
	resp := campaignResponse{
		ID:                    c.ID,
		IdempotencyKey:        c.IdempotencyKey,
		Name:                  c.Name,
		StartDate:             c.StartDate,
		EndDate:               c.EndDate,
		MailingFrequencyWeeks: c.MailingFrequencyWeeks,
		MailingDropWeeks:      c.MailingDropWeeks,
		Status:                c.Status,
		Targeting:             c.Targeting,
		Iterations:            make([]iterationResponse, 0, len(v.Iterations)),
	}
	for _, phase := range v.Iterations {
		it := phase.Header()
		ir := iterationResponse{
			ID:              it.ID,
			IterationNumber: it.IterationNumber,
			StartDate:       it.StartDate,
			EndDate:         it.EndDate,
			Status:          it.Status,
			Materialized:    it.Materialized(),
		}
		if m, ok := phase.(*domain.MaterializedIteration); ok {
			for _, w := range m.Weeks {
				wr := weekResponse{
					ID:                w.Week.ID,
					WeekNumber:        w.Week.WeekNumber,
					StartDate:         w.Week.StartDate,
					EndDate:           w.Week.EndDate,
					IsMailingDropWeek: w.Week.IsMailingDropWeek,
				}
				if b := w.Batch; b != nil {
					wr.Batch = &batchResponse{ID: b.ID, Status: b.Status, Size: len(b.ProspectIDs), ProspectIDs: b.ProspectIDs}
				}
				ir.Weeks = append(ir.Weeks, wr)
			}
		}
		resp.Iterations = append(resp.Iterations, ir)
	}
	return resp
}

type eventResponse struct {
	ID         int64                  `json:"id"`
	CampaignID *int64                 `json:"campaign_id"`
	FromStatus domain.LifecycleStatus `json:"from_status"`
	ToStatus   domain.LifecycleStatus `json:"to_status"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type rollupResponse struct {
	PostalCodeShort    string  `json:"postal_code_short"`
	Households         int64   `json:"households"`
	AverageCustomerLTV float64 `json:"average_customer_ltv"`
}

type previewResponse struct {
	Households int64            `json:"households"`
	Rows       []rollupResponse `json:"rows"`
}

type bulkStatusResponse struct {
	ID               int64              `json:"id"`
	Year             int                `json:"year"`
	Week             int                `json:"week"`
	TargetStatus     domain.BatchStatus `json:"target_status"`
	AffectedBatchIDs []int64            `json:"affected_batch_ids"`
	CreatedAt        time.Time          `json:"created_at"`
}
