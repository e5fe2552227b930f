package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"replicare/pkg/platform/sentinel"
)

// Schema creates the audit_events table. Applied at startup when Postgres is
// configured; integration tests apply it against a disposable container.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id UUID PRIMARY KEY,
	ts TIMESTAMPTZ NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	subject TEXT NOT NULL,
	outcome TEXT NOT NULL,
	severity TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	compaction_eligible BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS audit_events_ts_id_idx ON audit_events (ts, id);
CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject);
`

// PostgresStore is the durable trail. Appends are idempotent per event ID via
// ON CONFLICT DO NOTHING so callers can retry with the same ID.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, ts, actor, action, subject, outcome, severity, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.Actor,
		event.Action,
		event.Subject,
		string(event.Outcome),
		string(event.Severity),
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return nil
}

func (s *PostgresStore) Page(ctx context.Context, filter Filter, after Token, limit int) ([]Event, Token, error) {
	query := `
		SELECT id, ts, actor, action, subject, outcome, severity, detail, compaction_eligible
		FROM audit_events
		WHERE (ts, id) > ($1, $2)
		  AND ($3 = '' OR subject = $3)
		  AND ($4 = '' OR action = $4)
		  AND ($5 = '' OR actor = $5)
		  AND ($6::timestamptz IS NULL OR ts >= $6)
		  AND ($7::timestamptz IS NULL OR ts <= $7)
		ORDER BY ts, id
		LIMIT $8
	`
	if limit <= 0 {
		limit = 100
	}
	afterTS := after.Timestamp
	if after.IsZero() {
		afterTS = time.Time{}
	}

	rows, err := s.db.QueryContext(ctx, query,
		afterTS,
		after.ID,
		filter.Subject,
		filter.Action,
		filter.Actor,
		nullableTime(filter.From),
		nullableTime(filter.To),
		limit,
	)
	if err != nil {
		return nil, after, fmt.Errorf("query audit events: %w (%w)", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	token := after
	for rows.Next() {
		var (
			e        Event
			outcome  string
			severity string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &e.Subject,
			&outcome, &severity, &e.Detail, &e.CompactionEligible); err != nil {
			return nil, after, fmt.Errorf("scan audit event: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Severity = Severity(severity)
		events = append(events, e)
		token = Token{Timestamp: e.Timestamp, ID: e.ID}
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, token, nil
}

func (s *PostgresStore) MarkCompactable(ctx context.Context, before time.Time, protection Protection) (int, error) {
	subjects := make([]string, 0, len(protection.Subjects))
	for subj := range protection.Subjects {
		subjects = append(subjects, subj)
	}
	actions := make([]string, 0, len(protection.Actions))
	for action := range protection.Actions {
		actions = append(actions, action)
	}

	query := `
		UPDATE audit_events
		SET compaction_eligible = TRUE
		WHERE ts < $1
		  AND NOT compaction_eligible
		  AND NOT (subject = ANY($2))
		  AND NOT (action = ANY($3))
	`
	res, err := s.db.ExecContext(ctx, query, before, pq.Array(subjects), pq.Array(actions))
	if err != nil {
		return 0, fmt.Errorf("mark compactable: %w (%w)", err, sentinel.ErrUnavailable)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
