package api

import (
	"io"
	"net/http"

	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterOps registers /stats, /healthz and /metrics on mux.
func RegisterOps(mux *http.ServeMux, instrumentedStore *store.InstrumentedStore, gatherer prometheus.Gatherer) {
	mux.Handle("GET /stats", StatsHandler(instrumentedStore))
	mux.Handle("GET /healthz", HealthHandler(instrumentedStore))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// StatsHandler returns current store metrics as JSON.
func StatsHandler(instrumentedStore *store.InstrumentedStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics := instrumentedStore.GetMetrics()

		response := map[string]interface{}{
			"operations": map[string]uint64{
				"get": metrics.GetCount,
				"set": metrics.SetCount,
			},
			"get_results": map[string]uint64{
				"hit":  metrics.GetHits,
				"miss": metrics.GetMisses,
			},
			"unavailable": metrics.Unavailable,
			"avg_latency": map[string]string{
				"get": metrics.GetAvgLatency.String(),
				"set": metrics.SetAvgLatency.String(),
			},
		}
		if n, err := instrumentedStore.Len(); err == nil {
			response["keys"] = n
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// HealthHandler reports 200 while the store is usable and 503 after its
// critical section has been aborted.
func HealthHandler(inspector store.Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !inspector.Available() {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, "unavailable")
			return
		}
		io.WriteString(w, "ok")
	}
}
