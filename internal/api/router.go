package api

import (
	"net/http"
	"time"

	"talent-shortlist/internal/common/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routerConfig struct {
	metrics    http.Handler
	middleware []func(http.Handler) http.Handler
}

type RouterOption func(*routerConfig)

// WithMetricsHandler replaces the default /metrics handler.
func WithMetricsHandler(h http.Handler) RouterOption {
	return func(cfg *routerConfig) { cfg.metrics = h }
}

func WithMiddlewares(mw ...func(http.Handler) http.Handler) RouterOption {
	return func(cfg *routerConfig) { cfg.middleware = append(cfg.middleware, mw...) }
}

// NewRouter mounts the health endpoints, /metrics and the shortlist API.
func NewRouter(shortlist *ShortlistHandlers, health *HealthHandlers, log logger.Logger, opts ...RouterOption) chi.Router {
	cfg := routerConfig{metrics: promhttp.Handler()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	for _, mw := range cfg.middleware {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(req.Context(), w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(req.Context(), w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	if health != nil {
		r.Get("/health", health.live)
		r.Get("/ready", health.ready)
	}
	r.Handle("/metrics", cfg.metrics)

	if shortlist != nil {
		r.Route("/api/v1/shortlist", shortlist.Routes)
	}
	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error("Request failed", fields)
				return
			}
			log.Debug("Request served", fields)
		})
	}
}
