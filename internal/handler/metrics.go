package handler

import (
	"fmt"
	"net/http"

	"github.com/keygate/keygate/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "keygate_signups_total %d\n", snap.Signups)
	writeMetric(w, "keygate_logins_total{outcome=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "keygate_logins_total{outcome=\"failure\"} %d\n", snap.LoginFailures)

	writeMetric(w, "keygate_keys_created_total %d\n", snap.KeysCreated)
	writeMetric(w, "keygate_keys_revoked_total %d\n", snap.KeysRevoked)
	writeMetric(w, "keygate_keys_deleted_total %d\n", snap.KeysDeleted)

	writeMetric(w, "keygate_validation_cache_hits_total %d\n", snap.ValidationCacheHits)
	writeMetric(w, "keygate_validation_cache_misses_total %d\n", snap.ValidationCacheMisses)
	writeMetric(w, "keygate_validations_total{outcome=\"success\"} %d\n", snap.ValidationSuccesses)
	writeMetric(w, "keygate_validations_total{outcome=\"invalid\"} %d\n", snap.ValidationInvalid)
	writeMetric(w, "keygate_validations_total{outcome=\"expired\"} %d\n", snap.ValidationExpired)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
