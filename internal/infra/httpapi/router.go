package httpapi

import (
	"context"
	"net/http"
	"time"

	"homestock_notifier/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Pinger exposes the health-check surface of the store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Enqueuer queues a background expiry check. Request reports false when one was already queued.
type Enqueuer interface {
	Request() bool
}

// RouterParams configure the HTTP API.
type RouterParams struct {
	Checker    app.ExpiryChecker
	Trigger    Enqueuer
	DB         Pinger              // Optional
	Gatherer   prometheus.Gatherer // Optional, enables /metrics
	Logger     *logrus.Entry
	RunTimeout time.Duration
}

func NewRouter(params RouterParams) http.Handler {
	h := &handlers{
		checker:    params.Checker,
		trigger:    params.Trigger,
		db:         params.DB,
		logger:     params.Logger.WithField("component", "http"),
		runTimeout: params.RunTimeout,
	}
	if h.runTimeout <= 0 {
		h.runTimeout = defaultRunTimeout
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(h.logger),
		middleware.Recoverer,
	)

	r.Get("/healthz", h.health)
	if params.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/notifications/check-expiring", h.checkExpiring)
		r.Post("/notifications/check-expiring/async", h.queueCheck)
		r.Post("/groceries/created", h.queueCheck)
	})
	return r
}

func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Debug("request handled")
		})
	}
}
