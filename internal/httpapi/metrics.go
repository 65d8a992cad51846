package httpapi

import "net/http"

// handleMetrics serves the registry's Prometheus text exposition directly,
// bypassing the JSON envelope since this endpoint has its own content type.
func handleMetrics(d Deps) http.HandlerFunc {
	if d.Registry == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		}
	}
	handler := d.Registry.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}
}
