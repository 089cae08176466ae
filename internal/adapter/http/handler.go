package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailcadence/internal/core/port"
)

// Handler is the inbound HTTP adapter. It exposes the campaign lifecycle,
// audience preview and bulk status use cases as a small JSON API and serves
// Prometheus metrics from gatherer.
type Handler struct {
	campaigns port.CampaignUseCase
	bulk      port.BulkStatusUseCase
	logger    *slog.Logger
	router    chi.Router
}

// NewHandler creates a handler with all routes configured. A nil gatherer
// disables /metrics.
func NewHandler(campaigns port.CampaignUseCase, bulk port.BulkStatusUseCase, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	h := &Handler{campaigns: campaigns, bulk: bulk, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.handleCreateCampaign)
			r.Post("/activate", h.handleActivateAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetCampaign)
				r.Get("/events", h.handleCampaignEvents)
				r.Post("/pause", h.lifecycle("pause", h.campaigns.Pause))
				r.Post("/resume", h.lifecycle("resume", h.campaigns.Resume))
				r.Post("/stop", h.lifecycle("stop", h.campaigns.Stop))
				r.Post("/activate", h.lifecycle("activate", h.campaigns.ActivatePending))
			})
		})
		r.Post("/audience/preview", h.handleAudiencePreview)
		r.Get("/rules", h.handleRuleCatalog)
		r.Post("/bulk-status", h.handleBulkStatus)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(started)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
