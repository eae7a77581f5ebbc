package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rcrowley/go-metrics"
)

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
					"bytes", ww.BytesWritten(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// trackRoute times every request to a route in registry and counts the ones
// answered with a 4xx or 5xx status under "route.<id>-err".
func trackRoute(registry metrics.Registry, metricID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		route := "route." + metricID
		routeTimer := metrics.GetOrRegisterTimer(route, registry)
		errCounter := metrics.GetOrRegisterCounter(route+"-err", registry)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqStart := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			routeTimer.UpdateSince(reqStart)
			if ww.Status() >= 400 {
				errCounter.Inc(1)
			}
		})
	}
}
