package http

import (
	"net/http"

	"go.uber.org/zap"
)

// ListExpiredSessions handles GET /admin/sessions/expired.
func (h *Handlers) ListExpiredSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Sessions.ListExpired(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_ids": ids, "count": len(ids)})
}

// PurgeExpiredSessions handles DELETE /admin/sessions/expired.
func (h *Handlers) PurgeExpiredSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sessions.PurgeExpired(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.Logger.Info("purged expired sessions", zap.Int("count", n))
	writeJSON(w, http.StatusOK, map[string]int{"purged": n})
}

// Healthz handles GET /healthz with a per-tier health summary.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	tiers := map[string]string{}
	healthy := true
	for name, err := range h.Fallback.Health(r.Context()) {
		if err != nil {
			tiers[name] = err.Error()
			healthy = false
			continue
		}
		tiers[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		// Degraded, not down: writes still succeed while any tier accepts.
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"healthy": healthy, "tiers": tiers})
}
