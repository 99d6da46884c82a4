package api

import (
	"net/http"
	"time"

	"agent-evaluator/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

// MetricsRecorder is the part of the metrics collector the router needs.
type MetricsRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	Handler() http.Handler
}

type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	// AccessLog enables httplog request logging.
	AccessLog  bool
	JSONAccess bool
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:    "agent-evaluator",
		RequestTimeout: 30 * time.Second,
		AccessLog:      true,
		JSONAccess:     true,
	}
}

// NewRouter mounts the intake routes. metrics may be nil.
func NewRouter(cfg RouterConfig, h *Handler, metrics MetricsRecorder, logger output.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.AccessLog {
		r.Use(httplog.RequestLogger(httplog.NewLogger(cfg.ServiceName, httplog.Options{
			JSON:    cfg.JSONAccess,
			Concise: true,
		})))
	}
	r.Use(recoverer(logger))
	if metrics != nil {
		r.Use(instrument(metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", h.Health)
	r.Post("/evaluate", h.Evaluate)
	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", h.Evaluate)
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	return r
}

// recoverer answers 500 with the usual error body instead of chi's plain text.
func recoverer(logger output.LoggerPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("HTTP handler panicked",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", middleware.GetReqID(r.Context()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"detail":"Internal server error"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func instrument(metrics MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
