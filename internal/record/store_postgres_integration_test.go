//go:build integration

package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replicare/internal/record"
	"replicare/pkg/platform/sentinel"
	"replicare/pkg/testutil/containers"
)

func setupRecordStore(t *testing.T) *record.PostgresStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() {
		_ = pg.DB.Close()
		_ = pg.Container.Terminate(context.Background())
	})
	require.NoError(t, pg.Apply(context.Background(), record.Schema))
	return record.NewPostgresStore(pg.DB)
}

func storedRecord(id string, at time.Time) record.Record {
	consentAt := at.Add(-24 * time.Hour)
	return record.Record{
		ID:              id,
		Classification:  "clinical_notes",
		Region:          "ca-central-1",
		ResidencyOrigin: "ca-central-1",
		Compliance: &record.ComplianceInfo{
			ConsentGiven:     true,
			ConsentTimestamp: &consentAt,
			ConsentMethod:    "written",
			EncryptionLevel:  "AES-256",
			RetentionPolicy:  "7y",
		},
		Processing: record.ProcessingMetadata{
			ProcessingID: "proc-" + id,
			ProcessedAt:  at,
			ProcessedBy:  "replicare-core",
			BackupStatus: "replicated",
		},
		CreatedAt:    at,
		LastModified: at,
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupRecordStore(t)
	at := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Save(ctx, storedRecord("rec-1", at)))

	got, err := store.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "clinical_notes", got.Classification)
	assert.Equal(t, "proc-rec-1", got.Processing.ProcessingID)
	require.NotNil(t, got.Compliance)
	assert.True(t, got.Compliance.ConsentGiven)
	assert.True(t, got.CreatedAt.Equal(at))

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStoreDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	store := setupRecordStore(t)
	at := time.Now().UTC()

	require.NoError(t, store.Save(ctx, storedRecord("rec-1", at)))
	assert.ErrorIs(t, store.Save(ctx, storedRecord("rec-1", at)), sentinel.ErrConflict)
}

func TestPostgresStoreAmendConsent(t *testing.T) {
	ctx := context.Background()
	store := setupRecordStore(t)
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, storedRecord("rec-1", at)))

	amendedAt := at.Add(time.Hour)
	amended, err := store.AmendConsent(ctx, "rec-1", record.ConsentAmendment{
		ConsentGiven:  false,
		ConsentMethod: "withdrawal_form",
	}, amendedAt)
	require.NoError(t, err)
	assert.False(t, amended.Compliance.ConsentGiven)

	got, err := store.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.False(t, got.Compliance.ConsentGiven)
	assert.Equal(t, "withdrawal_form", got.Compliance.ConsentMethod)
	require.NotNil(t, got.Compliance.ConsentTimestamp)
	assert.True(t, got.Compliance.ConsentTimestamp.Equal(amendedAt))
	assert.True(t, got.LastModified.Equal(amendedAt))

	_, err = store.AmendConsent(ctx, "missing", record.ConsentAmendment{}, amendedAt)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStoreMarkDisposed(t *testing.T) {
	ctx := context.Background()
	store := setupRecordStore(t)
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, storedRecord("rec-1", at)))

	disposedAt := at.Add(time.Hour)
	_, err := store.MarkDisposed(ctx, "rec-1", disposedAt)
	require.NoError(t, err)

	got, err := store.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, got.Compliance.Disposed)
	require.NotNil(t, got.Compliance.DisposalDate)
	assert.True(t, got.Compliance.DisposalDate.Equal(disposedAt))
}
