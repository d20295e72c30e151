// Package http exposes the assessment core over JSON endpoints: score
// submission, session persistence/recovery and the admin maintenance
// surface.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mindtype-hq/mindtype/internal/store"
)

// Handlers bundles the dependencies shared by the endpoint constructors.
type Handlers struct {
	Sessions *store.SessionStore
	Saver    *store.Autosaver
	Cache    *store.CalcCache
	Fallback *store.Fallback
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewHandlers(sessions *store.SessionStore, saver *store.Autosaver, cache *store.CalcCache, fb *store.Fallback, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Sessions: sessions,
		Saver:    saver,
		Cache:    cache,
		Fallback: fb,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
