package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Record is a replicated healthcare record as seen by the compliance core.
// The payload itself stays with the storage collaborator; the core reasons
// over the classification and the compliance facts attached to it.
//
// Records are immutable once written except for consent and retention
// amendments, each of which produces a new audit event.
type Record struct {
	ID              string          `json:"id"`
	Classification  string          `json:"classification"`
	Region          string          `json:"region"`
	ResidencyOrigin string          `json:"residency_origin"`
	Compliance      *ComplianceInfo `json:"compliance_info"`
	CreatedAt       time.Time       `json:"created_at"`
	LastModified    time.Time       `json:"last_modified"`

	// Processing enrichment, set at ingestion.
	Processing ProcessingMetadata `json:"processing"`
}

// ComplianceInfo carries the reported compliance facts for one record. The
// core consumes encryption and replication status as facts and reasons over
// them; it never performs cryptography itself.
type ComplianceInfo struct {
	ConsentGiven               bool       `json:"consent_given"`
	ConsentTimestamp           *time.Time `json:"consent_timestamp,omitempty"`
	ConsentMethod              string     `json:"consent_method,omitempty"`
	ConsentScope               []string   `json:"consent_scope,omitempty"`
	EncryptionLevel            string     `json:"encryption_level"`
	RetentionPolicy            string     `json:"retention_policy"`
	DisposalDate               *time.Time `json:"disposal_date,omitempty"`
	Disposed                   bool       `json:"disposed"`
	CrossBorderTransferConsent bool       `json:"cross_border_transfer_consent"`
}

// ProcessingMetadata enriches an ingested record for traceability.
type ProcessingMetadata struct {
	ProcessingID string    `json:"processing_id"`
	ProcessedAt  time.Time `json:"processed_at"`
	ProcessedBy  string    `json:"processed_by"`
	DataHash     string    `json:"data_hash"`
	BackupStatus string    `json:"backup_status"`
}

// Hash computes the canonical SHA-256 digest of the record's compliance-
// relevant fields, excluding processing metadata so re-hashing an enriched
// record reproduces the ingestion-time digest.
func (r Record) Hash() string {
	shadow := r
	shadow.Processing = ProcessingMetadata{}
	data, _ := json.Marshal(shadow)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
