package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fsu-jena/matrix-notify/bot"
)

// readyStaleAfter is how old the last completed sync may be before the
// service reports not-ready. Sync long-polls return at least every 30 s, so
// a few minutes of silence means the session is wedged or restarting.
const readyStaleAfter = 5 * time.Minute

type Handlers struct {
	status *bot.Status
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports readiness: a session is up and syncing.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if !h.status.Ready(readyStaleAfter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "not_ready",
			"reason": "no recent sync",
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns a JSON snapshot of the running session.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.status.Snapshot())
}
