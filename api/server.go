// Package api wires the HTTP surface of the scheduler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/evsched/api/runs"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/runlog"
)

const apiPrefix = "/api/v1"

// Options configures the router.
type Options struct {
	Store runlog.Store
	// Token protects the /api routes when set.
	Token string
	// Solver is reported by /health.
	Solver string
	// Metrics serves /metrics. Defaults to the global Prometheus gatherer.
	Metrics http.Handler
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Solver   string            `json:"solver,omitempty"`
	Services map[string]string `json:"services"`
}

// NewRouter builds the routes served by `evsched serve`.
func NewRouter(opts Options) *mux.Router {
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler(opts)).Methods(http.MethodGet)
	router.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)

	// Routes stay on the root router: a subrouter answers a method mismatch
	// with 404 instead of 405.
	router.Handle(apiPrefix+"/runs", runs.NewListHandler(opts.Store, opts.Token)).Methods(http.MethodGet)
	router.Handle(apiPrefix+"/runs/{id}", runs.NewGetHandler(opts.Store, opts.Token)).Methods(http.MethodGet)
	return router
}

func healthHandler(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Solver:   opts.Solver,
			Services: make(map[string]string),
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := opts.Store.Query(ctx, runlog.Query{Limit: 1}); err != nil {
			resp.Status = "degraded"
			resp.Services["runlog"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["runlog"] = "healthy"
		}
		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Serve runs an HTTP server on addr until ctx is canceled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("api listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
