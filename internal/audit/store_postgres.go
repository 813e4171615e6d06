package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"authgate/pkg/platform/sentinel"
)

// PostgresStore persists audit events in PostgreSQL. The table is append-only;
// nothing in the gateway updates or deletes rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	action      TEXT        NOT NULL,
	user_id     TEXT        NOT NULL DEFAULT '',
	email       TEXT        NOT NULL DEFAULT '',
	ip          TEXT        NOT NULL DEFAULT '',
	device      TEXT        NOT NULL DEFAULT '',
	request_id  TEXT        NOT NULL DEFAULT '',
	reason      TEXT        NOT NULL DEFAULT '',
	method      TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_id_ts_idx ON audit_events (user_id, ts);
`

// NewPostgresStore connects to dsn and ensures the audit schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events (id, ts, action, user_id, email, ip, device, request_id, reason, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		event.ID, event.Timestamp, string(event.Action), event.UserID,
		event.Email, event.IP, event.Device, event.RequestID, event.Reason, event.Method,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Event, error) {
	const query = `
		SELECT id, ts, action, user_id, email, ip, device, request_id, reason, method
		FROM audit_events
		WHERE user_id = $1
		ORDER BY ts
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.UserID,
			&e.Email, &e.IP, &e.Device, &e.RequestID, &e.Reason, &e.Method); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

// Health reports whether the database is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
