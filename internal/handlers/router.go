package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter registers the operational endpoints served on the metrics port.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	return r
}

// NewServer wraps the router in an http.Server with the timeouts used for
// the metrics listener.
func NewServer(addr string, h *Handlers) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
