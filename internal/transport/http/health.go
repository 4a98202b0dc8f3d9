package http

import (
	"context"
	stdhttp "net/http"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth reports liveness, and store reachability when asked for
// readiness with ?ready=1.
func HandleHealth(store Pinger) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Query().Get("ready") != "" {
			if err := store.Ping(r.Context()); err != nil {
				writeError(w, stdhttp.StatusServiceUnavailable, codeStoreUnavailable, "store unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
