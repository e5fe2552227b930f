package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"replicare/pkg/platform/sentinel"
)

// Schema creates the records table. The compliance facts live in a JSONB
// column: the core queries records by ID only and replays compliance logic in
// process, so a normalized layout buys nothing here.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	classification TEXT NOT NULL,
	region TEXT NOT NULL,
	residency_origin TEXT NOT NULL,
	compliance_info JSONB,
	processing JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	last_modified TIMESTAMPTZ NOT NULL
);
`

// PostgresStore is the durable record store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	compliance, err := json.Marshal(rec.Compliance)
	if err != nil {
		return fmt.Errorf("marshal compliance info: %w", err)
	}
	processing, err := json.Marshal(rec.Processing)
	if err != nil {
		return fmt.Errorf("marshal processing metadata: %w", err)
	}

	query := `
		INSERT INTO records (id, classification, region, residency_origin, compliance_info, processing, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Classification, rec.Region, rec.ResidencyOrigin,
		compliance, processing, rec.CreatedAt, rec.LastModified,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert record: %w (%w)", err, sentinel.ErrUnavailable)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Record, error) {
	query := `
		SELECT id, classification, region, residency_origin, compliance_info, processing, created_at, last_modified
		FROM records WHERE id = $1
	`
	return s.scanRecord(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) AmendConsent(ctx context.Context, id string, amendment ConsentAmendment, at time.Time) (Record, error) {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Compliance == nil {
		rec.Compliance = &ComplianceInfo{}
	}
	rec.Compliance.ConsentGiven = amendment.ConsentGiven
	rec.Compliance.ConsentMethod = amendment.ConsentMethod
	rec.Compliance.ConsentScope = amendment.ConsentScope
	rec.Compliance.CrossBorderTransferConsent = amendment.CrossBorderTransferConsent
	ts := at
	rec.Compliance.ConsentTimestamp = &ts
	rec.LastModified = at
	return rec, s.updateCompliance(ctx, rec)
}

func (s *PostgresStore) MarkDisposed(ctx context.Context, id string, at time.Time) (Record, error) {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Compliance == nil {
		rec.Compliance = &ComplianceInfo{}
	}
	rec.Compliance.Disposed = true
	ts := at
	rec.Compliance.DisposalDate = &ts
	rec.LastModified = at
	return rec, s.updateCompliance(ctx, rec)
}

func (s *PostgresStore) updateCompliance(ctx context.Context, rec Record) error {
	compliance, err := json.Marshal(rec.Compliance)
	if err != nil {
		return fmt.Errorf("marshal compliance info: %w", err)
	}
	query := `UPDATE records SET compliance_info = $2, last_modified = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, rec.ID, compliance, rec.LastModified)
	if err != nil {
		return fmt.Errorf("update record compliance: %w (%w)", err, sentinel.ErrUnavailable)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanRecord(row *sql.Row) (Record, error) {
	var (
		rec        Record
		compliance []byte
		processing []byte
	)
	err := row.Scan(&rec.ID, &rec.Classification, &rec.Region, &rec.ResidencyOrigin,
		&compliance, &processing, &rec.CreatedAt, &rec.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan record: %w (%w)", err, sentinel.ErrUnavailable)
	}
	if len(compliance) > 0 && string(compliance) != "null" {
		rec.Compliance = &ComplianceInfo{}
		if err := json.Unmarshal(compliance, rec.Compliance); err != nil {
			return Record{}, fmt.Errorf("unmarshal compliance info: %w", err)
		}
	}
	if err := json.Unmarshal(processing, &rec.Processing); err != nil {
		return Record{}, fmt.Errorf("unmarshal processing metadata: %w", err)
	}
	return rec, nil
}
