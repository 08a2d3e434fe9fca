package handlers

import (
	"net/http"
	"runtime"
	"time"

	"vrchat-albums/internal/indexer"
	"vrchat-albums/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Scanning bool   `json:"scanning"`
	LastScan string `json:"lastScan,omitempty"`

	// Progress of the current or last scan
	Stage          string `json:"stage,omitempty"`
	FilesProcessed int64  `json:"filesProcessed"`
	FilesTotal     int64  `json:"filesTotal"`

	// Last scan summary
	LastPersisted int            `json:"lastPersisted"`
	LastSkipped   map[string]int `json:"lastSkipped,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalPhotos    int   `json:"totalPhotos,omitempty"`
	KnownFolders   int   `json:"knownFolders,omitempty"`
	CacheSizeBytes int64 `json:"cacheSizeBytes,omitempty"`
}

// isReady reports whether at least one scan has completed.
func (h *Handlers) isReady() bool {
	return !h.status.LastScanTime().IsZero()
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.isReady()
	progress := h.status.Progress()

	response := HealthResponse{
		Ready:          ready,
		Version:        startup.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		Scanning:       h.status.IsScanning(),
		Stage:          progress.Stage,
		FilesProcessed: progress.FilesProcessed,
		FilesTotal:     progress.FilesTotal,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	if ready {
		response.Status = statusHealthy
		response.LastScan = h.status.LastScanTime().Format(time.RFC3339)
	} else {
		response.Status = statusStarting
	}

	if result := h.status.LastResult(); result != nil {
		response.LastPersisted = result.Persisted
		if result.Skips != nil && result.Skips.Total() > 0 {
			response.LastSkipped = result.Skips.Counts()
		}
	}

	// The latest scan aborted after an earlier one succeeded.
	if ready && progress.Stage == indexer.StageFailed {
		response.Status = statusDegraded
	}

	if h.stats != nil {
		stats := h.stats.GetStats()
		response.TotalPhotos = stats.TotalPhotos
		response.KnownFolders = stats.KnownFolders
		response.CacheSizeBytes = stats.CacheSizeBytes
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the first scan has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.isReady() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
