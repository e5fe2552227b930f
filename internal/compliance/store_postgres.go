package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"replicare/pkg/platform/sentinel"
)

// Schema creates the verdicts and reports tables. Category results and
// violation buckets live in JSONB: the core filters by region and window and
// replays aggregation in process.
const Schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	id UUID PRIMARY KEY,
	record_id TEXT NOT NULL,
	region TEXT NOT NULL,
	rule_set_version TEXT NOT NULL,
	evaluated_at TIMESTAMPTZ NOT NULL,
	categories JSONB NOT NULL,
	overall BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS verdicts_region_time_idx ON verdicts (region, evaluated_at);

CREATE TABLE IF NOT EXISTS compliance_reports (
	id UUID PRIMARY KEY,
	region TEXT NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	window_end TIMESTAMPTZ NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	score NUMERIC(5,2) NOT NULL,
	total INT NOT NULL,
	passed INT NOT NULL,
	violations JSONB NOT NULL,
	worst_offenders JSONB NOT NULL,
	alert_triggered BOOLEAN NOT NULL,
	threshold NUMERIC(5,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_region_generated_idx ON compliance_reports (region, generated_at DESC);
`

// PostgresVerdictStore is the durable verdict store. Deterministic verdict
// IDs plus ON CONFLICT DO NOTHING make replayed evaluations no-ops.
type PostgresVerdictStore struct {
	db *sql.DB
}

func NewPostgresVerdictStore(db *sql.DB) *PostgresVerdictStore {
	return &PostgresVerdictStore{db: db}
}

func (s *PostgresVerdictStore) Save(ctx context.Context, v Verdict) error {
	categories, err := json.Marshal(v.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	query := `
		INSERT INTO verdicts (id, record_id, region, rule_set_version, evaluated_at, categories, overall)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		v.ID, v.RecordID, v.Region, v.RuleSetVersion, v.EvaluatedAt, categories, v.Overall)
	if err != nil {
		return fmt.Errorf("insert verdict: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return nil
}

func (s *PostgresVerdictStore) ListByWindow(ctx context.Context, region string, from, to time.Time) ([]Verdict, error) {
	query := `
		SELECT id, record_id, region, rule_set_version, evaluated_at, categories, overall
		FROM verdicts
		WHERE ($1 = '' OR region = $1) AND evaluated_at >= $2 AND evaluated_at <= $3
		ORDER BY evaluated_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, region, from, to)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w (%w)", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var (
			v          Verdict
			categories []byte
		)
		if err := rows.Scan(&v.ID, &v.RecordID, &v.Region, &v.RuleSetVersion,
			&v.EvaluatedAt, &categories, &v.Overall); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		if err := json.Unmarshal(categories, &v.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return out, nil
}

// PostgresReportStore is the durable report store.
type PostgresReportStore struct {
	db *sql.DB
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{db: db}
}

func (s *PostgresReportStore) Save(ctx context.Context, r Report) error {
	violations, err := json.Marshal(r.Violations)
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}
	offenders, err := json.Marshal(r.WorstOffenders)
	if err != nil {
		return fmt.Errorf("marshal worst offenders: %w", err)
	}
	query := `
		INSERT INTO compliance_reports
			(id, region, window_start, window_end, generated_at, score, total, passed, violations, worst_offenders, alert_triggered, threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Region, r.WindowStart, r.WindowEnd, r.GeneratedAt,
		r.Score, r.Total, r.Passed, violations, offenders, r.AlertTriggered, r.Threshold)
	if err != nil {
		return fmt.Errorf("insert report: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return nil
}

func (s *PostgresReportStore) Latest(ctx context.Context, region string) (Report, error) {
	query := `
		SELECT id, region, window_start, window_end, generated_at, score, total, passed, violations, worst_offenders, alert_triggered, threshold
		FROM compliance_reports
		WHERE region = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`
	var (
		r          Report
		violations []byte
		offenders  []byte
	)
	err := s.db.QueryRowContext(ctx, query, region).Scan(
		&r.ID, &r.Region, &r.WindowStart, &r.WindowEnd, &r.GeneratedAt,
		&r.Score, &r.Total, &r.Passed, &violations, &offenders, &r.AlertTriggered, &r.Threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("query latest report: %w (%w)", err, sentinel.ErrUnavailable)
	}
	if err := json.Unmarshal(violations, &r.Violations); err != nil {
		return Report{}, fmt.Errorf("unmarshal violations: %w", err)
	}
	if err := json.Unmarshal(offenders, &r.WorstOffenders); err != nil {
		return Report{}, fmt.Errorf("unmarshal worst offenders: %w", err)
	}
	return r, nil
}
