package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLTier is the durable backend, backed by the session_store key-value
// table (sqlite or postgres; see internal/db). Upserts replace the whole
// row, so readers always see a complete value.
type SQLTier struct {
	db  *sql.DB
	now func() time.Time
}

// SQLOption configures a SQLTier.
type SQLOption func(*SQLTier)

// WithSQLClock substitutes the updated_at timestamp source.
func WithSQLClock(now func() time.Time) SQLOption {
	return func(t *SQLTier) { t.now = now }
}

func NewSQLTier(db *sql.DB, opts ...SQLOption) *SQLTier {
	t := &SQLTier{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *SQLTier) Name() string { return "sql" }

func (t *SQLTier) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := t.db.QueryRowContext(ctx,
		`SELECT value FROM session_store WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (t *SQLTier) Set(ctx context.Context, key string, value []byte) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO session_store (key, value, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, string(value), t.now().Unix())
	return err
}

func (t *SQLTier) Remove(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM session_store WHERE key=$1`, key)
	return err
}

func (t *SQLTier) HealthCheck(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// EvictOldestHalf deletes the stalest half of the rows by updated_at.
func (t *SQLTier) EvictOldestHalf(ctx context.Context) (int, error) {
	var total int
	if err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_store`).Scan(&total); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	half := (total + 1) / 2
	res, err := t.db.ExecContext(ctx,
		`DELETE FROM session_store WHERE key IN (
		   SELECT key FROM session_store ORDER BY updated_at ASC LIMIT $1)`, half)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (t *SQLTier) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT key FROM session_store WHERE key LIKE $1 ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
