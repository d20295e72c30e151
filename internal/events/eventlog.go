// Package events appends session lifecycle events to the event_log table.
// The log is an audit trail, written best-effort: a failed append never
// blocks the flow that produced the event.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Event types recorded over a session's life.
const (
	TypeSessionCreated      = "SessionCreated"
	TypeSessionTransitioned = "SessionTransitioned"
	TypeSessionRecovered    = "SessionRecovered"
	TypeSessionExpired      = "SessionExpiredDetected"
	TypeSessionDeleted      = "SessionDeleted"
	TypeScoringCompleted    = "ScoringCompleted"
)

type Event struct {
	Type      string
	Key       string // natural key: session id
	Data      any
	CreatedAt int64
}

// Log writes events through database/sql. A nil *Log is valid and drops
// everything, so callers never need to guard appends.
type Log struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewLog(db *sql.DB, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Append records one event. Failures are logged and swallowed.
func (l *Log) Append(ctx context.Context, typ, key string, data any) {
	if l == nil || l.db == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(payload), l.now().Unix())
	if err != nil {
		l.logger.Warn("event append failed",
			zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}
