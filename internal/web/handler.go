// Package web serves the consolidation form, a JSON API and Prometheus
// metrics over HTTP.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/nconklindev/tally/internal/types"
)

// PreviewRows is the number of consolidated rows echoed back to clients.
const PreviewRows = 5

// Runner executes one consolidation run.
type Runner interface {
	Run(ctx context.Context, req types.Request, progress chan<- float64) (*types.Result, error)
}

// Handler serves the web front end. Runs are serialized since every run
// rewrites the output workbook of its directory.
type Handler struct {
	runner  Runner
	metrics *Metrics
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewHandler creates a handler. A nil metrics value gets a fresh registry.
func NewHandler(runner Runner, metrics *Metrics, logger *slog.Logger) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		runner:  runner,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "web")),
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.showForm)
	r.Post("/", h.submitForm)
	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/consolidate", h.consolidate)
	})

	return r
}

func (h *Handler) run(ctx context.Context, req types.Request) (*types.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	res, err := h.runner.Run(ctx, req, nil)
	h.metrics.observe(res, err, time.Since(start))
	return res, err
}

// consolidate handles POST /api/v1/consolidate.
func (h *Handler) consolidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := &ConsolidateRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, newErrorResponse(r, http.StatusBadRequest, err))
		return
	}

	res, err := h.run(ctx, data.Request)
	if err != nil {
		status := statusFor(err)
		h.logger.WarnContext(ctx, "consolidation request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("request_id", middleware.GetReqID(ctx)))
		render.Render(w, r, newErrorResponse(r, status, err))
		return
	}

	render.JSON(w, r, newConsolidateResponse(res))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.InfoContext(r.Context(), "request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
