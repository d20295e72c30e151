package store

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mindtype-hq/mindtype/internal/assessment"
	"github.com/mindtype-hq/mindtype/internal/events"
	"github.com/mindtype-hq/mindtype/internal/session"
)

// RecoveryStatus distinguishes the three recovery outcomes. Expired is a
// first-class outcome, not an error: the UI offers "start fresh" for
// expired state and nothing for absent state.
type RecoveryStatus string

const (
	StatusRecovered RecoveryStatus = "recovered"
	StatusExpired   RecoveryStatus = "expired"
	StatusNotFound  RecoveryStatus = "not_found"
)

func sessionKey(id string) string { return "session:" + id }
func saisKey(id string) string    { return "session:" + id + ":sais" }

// SessionStore persists session state through the tier fallback, with the
// compact side-encoding for sais response sets.
type SessionStore struct {
	store  *Fallback
	events *events.Log
	logger *zap.Logger
	now    func() time.Time
}

// SessionStoreOption configures a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithStoreClock substitutes the time source used by the expiry predicate.
func WithStoreClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) { s.now = now }
}

func NewSessionStore(fb *Fallback, log *events.Log, logger *zap.Logger, opts ...SessionStoreOption) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionStore{
		store:  fb,
		events: log,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Save durably records a session snapshot. For sais sessions the
// distribution responses are split off into the compact side record when
// they compress losslessly; everything else stays in the main record.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	record := *sess
	record.Responses = append([]assessment.Response(nil), sess.Responses...)

	prior, priorFound := s.priorPhase(ctx, sess.ID)

	sideWritten := false
	if sess.Methodology == assessment.MethodologySAIS {
		dist, rest := splitDistribution(record.Responses)
		if len(dist) > 0 {
			if compact, err := CompressResponses(dist); err == nil {
				if err := s.store.Set(ctx, saisKey(sess.ID), compact); err != nil {
					return err
				}
				record.Responses = rest
				sideWritten = true
			} else {
				// Not representable compactly; keep the plain encoding.
				s.logger.Debug("sais compression skipped",
					zap.String("session_id", sess.ID), zap.Error(err))
			}
		}
	}
	if !sideWritten {
		// An earlier save may have split responses into the side record.
		// Left in place it would resurface replaced answers on recovery.
		if err := s.store.Remove(ctx, saisKey(sess.ID)); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(&record)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionKey(sess.ID), payload); err != nil {
		return err
	}

	switch {
	case !priorFound:
		s.events.Append(ctx, events.TypeSessionCreated, sess.ID, map[string]any{"phase": sess.Phase})
	case prior == assessment.PhaseCore && sess.Phase == assessment.PhaseExtended:
		s.events.Append(ctx, events.TypeSessionTransitioned, sess.ID, map[string]any{
			"methodology": sess.Methodology,
		})
	}
	return nil
}

// priorPhase reads the stored snapshot's phase so Save can tell a first
// write from a phase transition. Unreadable prior state counts as absent.
func (s *SessionStore) priorPhase(ctx context.Context, id string) (assessment.Phase, bool) {
	payload, _, err := s.store.Get(ctx, sessionKey(id))
	if err != nil {
		return "", false
	}
	var probe struct {
		Phase assessment.Phase `json:"phase"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return "", false
	}
	return probe.Phase, true
}

// Recover looks up persisted state for a session id. The returned tier name
// tells the recovery UI where the hit came from; it carries no correctness
// weight.
func (s *SessionStore) Recover(ctx context.Context, id string) (*session.Session, RecoveryStatus, string) {
	payload, tier, err := s.store.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, StatusNotFound, ""
	}

	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		// Corrupt state reads as absent.
		s.logger.Warn("discarding unparseable session state",
			zap.String("session_id", id), zap.String("tier", tier), zap.Error(err))
		return nil, StatusNotFound, ""
	}

	if compact, _, err := s.store.Get(ctx, saisKey(id)); err == nil {
		sess.Responses = append(sess.Responses, DecompressResponses(id, compact)...)
	}

	if session.Expired(&sess, s.now()) {
		s.events.Append(ctx, events.TypeSessionExpired, id, map[string]any{"expires_at": sess.ExpiresAt})
		return &sess, StatusExpired, tier
	}
	s.events.Append(ctx, events.TypeSessionRecovered, id, map[string]any{"tier": tier})
	return &sess, StatusRecovered, tier
}

// Delete removes the session and its compressed side record from every
// tier. Orphaned side blobs are a defect, so both keys always go together.
func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	_, _, err := s.store.Get(ctx, sessionKey(id))
	existed := err == nil

	if err := s.store.Remove(ctx, sessionKey(id)); err != nil {
		return existed, err
	}
	if err := s.store.Remove(ctx, saisKey(id)); err != nil {
		return existed, err
	}
	if existed {
		s.events.Append(ctx, events.TypeSessionDeleted, id, nil)
	}
	return existed, nil
}

// ListExpired returns the ids of persisted sessions whose expiry has
// passed, evaluated lazily against the current clock.
func (s *SessionStore) ListExpired(ctx context.Context) ([]string, error) {
	keys, err := s.store.ListKeys(ctx, "session:")
	if err != nil {
		return nil, err
	}

	now := s.now()
	var expired []string
	for _, key := range keys {
		id, ok := idFromKey(key)
		if !ok {
			continue
		}
		payload, _, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var sess session.Session
		if err := json.Unmarshal(payload, &sess); err != nil {
			continue
		}
		if session.Expired(&sess, now) {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

// PurgeExpired deletes every expired session, returning how many went.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int, error) {
	ids, err := s.ListExpired(ctx)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, id := range ids {
		if _, err := s.Delete(ctx, id); err == nil {
			purged++
		}
	}
	return purged, nil
}

// Events exposes the event log for callers that record their own entries.
func (s *SessionStore) Events() *events.Log { return s.events }

func splitDistribution(responses []assessment.Response) (dist, rest []assessment.Response) {
	for _, r := range responses {
		if r.ResponseType == assessment.ResponseDistribution {
			dist = append(dist, r)
		} else {
			rest = append(rest, r)
		}
	}
	return dist, rest
}

func idFromKey(key string) (string, bool) {
	const prefix = "session:"
	if len(key) <= len(prefix) {
		return "", false
	}
	id := key[len(prefix):]
	// Side records ("session:<id>:sais") are not sessions themselves.
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return "", false
		}
	}
	return id, true
}
