package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindtype-hq/mindtype/internal/session"
	"github.com/mindtype-hq/mindtype/internal/store"
)

type persistRequest struct {
	Session *session.Session `json:"session"`
	// Immediate bypasses the debounce and saves before responding;
	// submission boundaries use it.
	Immediate bool `json:"immediate,omitempty"`
}

type persistResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// PersistSession handles POST /api/sessions/{sessionID}. Routine state
// changes go through the debounced autosaver; the write is acknowledged as
// accepted. Immediate persists hit storage before the response.
func (h *Handlers) PersistSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req persistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Session == nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Session.ID != "" && req.Session.ID != id {
		http.Error(w, "session id mismatch", http.StatusBadRequest)
		return
	}
	req.Session.ID = id

	if req.Immediate {
		if err := h.Sessions.Save(r.Context(), req.Session); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, persistResponse{Success: false, Error: err.Error()})
			return
		}
	} else {
		h.Saver.Notify(req.Session)
	}
	writeJSON(w, http.StatusOK, persistResponse{Success: true, ExpiresAt: req.Session.ExpiresAt})
}

type recoverResponse struct {
	Session   *session.Session     `json:"session"`
	IsExpired bool                 `json:"is_expired"`
	Status    store.RecoveryStatus `json:"status"`
	Tier      string               `json:"tier,omitempty"`
}

// RecoverSession handles GET /api/sessions/{sessionID}. "Expired" and "not
// found" are distinct outcomes so the client can offer different
// remediation.
func (h *Handlers) RecoverSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, status, tier := h.Sessions.Recover(r.Context(), id)
	switch status {
	case store.StatusRecovered:
		writeJSON(w, http.StatusOK, recoverResponse{Session: sess, Status: status, Tier: tier})
	case store.StatusExpired:
		writeJSON(w, http.StatusOK, recoverResponse{Session: sess, IsExpired: true, Status: status, Tier: tier})
	default:
		writeJSON(w, http.StatusNotFound, recoverResponse{Status: store.StatusNotFound})
	}
}

// DeleteSession handles DELETE /api/sessions/{sessionID}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	deleted, err := h.Sessions.Delete(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"deleted": deleted, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

type activityResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	IsExpired bool      `json:"is_expired,omitempty"`
}

// TouchSession handles POST /api/sessions/{sessionID}/activity: the
// keep-alive signal. Extended-phase sessions recently active slide their
// expiry; core sessions and expired sessions are left alone.
func (h *Handlers) TouchSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, status, _ := h.Sessions.Recover(r.Context(), id)
	switch status {
	case store.StatusNotFound:
		writeJSON(w, http.StatusNotFound, activityResponse{})
		return
	case store.StatusExpired:
		writeJSON(w, http.StatusOK, activityResponse{IsExpired: true})
		return
	}

	mgr := session.NewManager(session.WithClock(h.Now))
	mgr.Adopt(sess)
	mgr.UpdateActivity()
	updated := mgr.Current()

	if err := h.Sessions.Save(r.Context(), updated); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, activityResponse{})
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{Success: true, ExpiresAt: updated.ExpiresAt})
}
