package server

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewMux mounts the GraphQL handler at /graphql, a health probe at
// /healthz and, when metrics is non-nil, the metrics handler at /metrics.
func NewMux(gql http.Handler, health Pinger, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", gql)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if health != nil {
			if err := health.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}, false)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, false)
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}
