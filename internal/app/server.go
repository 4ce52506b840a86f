package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/RyanBlaney/tremor-analyzer/internal/session"
	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
)

// NewMetricsRouter serves the session metrics and a liveness probe
func NewMetricsRouter(path string, metrics *session.Metrics) *mux.Router {
	if path == "" {
		path = "/metrics"
	}

	r := mux.NewRouter()
	r.Handle(path, metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// serveMetrics starts the metrics endpoint when an address is configured.
// The returned func shuts it down.
func (app *TremorApp) serveMetrics() func() {
	addr := app.config.Metrics.Addr
	if addr == "" {
		return func() {}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMetricsRouter(app.config.Metrics.Path, app.metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	logger := app.logger.WithFields(logging.Fields{
		"function": "serveMetrics",
		"addr":     addr,
	})

	go func() {
		logger.Info("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics endpoint failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics endpoint shutdown failed", logging.Fields{
				"error": err.Error(),
			})
		}
	}
}
