package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
)

type createCampaignRequest struct {
	IdempotencyKey        string           `json:"idempotency_key"`
	Name                  string           `json:"name"`
	StartDate             string           `json:"start_date"`
	EndDate               string           `json:"end_date"`
	MailingFrequencyWeeks int              `json:"mailing_frequency_weeks"`
	MailingDropWeeks      []int            `json:"mailing_drop_weeks"`
	Targeting             domain.Targeting `json:"targeting"`
}

func (r createCampaignRequest) toReq() (port.CreateCampaignReq, error) {
	start, err := time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return port.CreateCampaignReq{}, domain.Validationf("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, r.EndDate)
	if err != nil {
		return port.CreateCampaignReq{}, domain.Validationf("end_date must be YYYY-MM-DD")
	}
	return port.CreateCampaignReq{
		IdempotencyKey:        r.IdempotencyKey,
		Name:                  r.Name,
		StartDate:             start,
		EndDate:               end,
		MailingFrequencyWeeks: r.MailingFrequencyWeeks,
		MailingDropWeeks:      r.MailingDropWeeks,
		Targeting:             r.Targeting,
	}, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.WrapError(domain.CodeValidation, "invalid JSON", err)
	}
	return nil
}

func campaignID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid campaign id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// handleCreateCampaign creates a campaign. The Idempotency-Key header is
// used when the body carries no key.
func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
	if err := decode(r, &body); err != nil {
		h.writeError(w, "create campaign", err)
		return
	}
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	req, err := body.toReq()
	if err != nil {
		h.writeError(w, "create campaign", err)
		return
	}
	view, err := h.campaigns.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, "create campaign", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newCampaignResponse(view))
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	h.lifecycle("get campaign", h.campaigns.Get)(w, r)
}

func (h *Handler) handleCampaignEvents(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		h.writeError(w, "campaign events", err)
		return
	}
	events, err := h.campaigns.Events(r.Context(), id)
	if err != nil {
		h.writeError(w, "campaign events", err)
		return
	}
	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			ID:         e.ID,
			CampaignID: e.CampaignID,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			OccurredAt: e.OccurredAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// lifecycle adapts a single-campaign operation to a handler that reads the
// id from the path and writes the resulting view.
func (h *Handler) lifecycle(op string, fn func(ctx context.Context, id int64) (*port.CampaignView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := campaignID(r)
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		view, err := fn(r.Context(), id)
		if err != nil {
			h.writeError(w, op, err)
			return
		}
		h.writeJSON(w, http.StatusOK, newCampaignResponse(view))
	}
}

func (h *Handler) handleActivateAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.campaigns.ActivatePendingAll(r.Context())
	if err != nil {
		h.writeError(w, "activate all", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{
		"campaigns": report.Campaigns,
		"failed":    report.Failed,
	})
}
