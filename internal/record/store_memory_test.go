package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replicare/pkg/platform/sentinel"
	"replicare/pkg/testutil"
)

func testRecord(id string) Record {
	return Record{
		ID:              id,
		Classification:  "clinical_notes",
		Region:          "ca-central-1",
		ResidencyOrigin: "ca-central-1",
		Compliance: &ComplianceInfo{
			ConsentGiven:    true,
			EncryptionLevel: "AES-256",
			RetentionPolicy: "7y",
		},
	}
}

func TestInMemoryStoreSaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Save(ctx, testRecord("rec-1")))

	rec, err := store.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Save(ctx, testRecord("rec-1")))
	assert.ErrorIs(t, store.Save(ctx, testRecord("rec-1")), sentinel.ErrConflict)
}

func TestInMemoryStoreAmendConsent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	original := testRecord("rec-1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var amended Record

	testutil.Given(t, "a stored record with consent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, original))
	})

	testutil.When(t, "consent is withdrawn", func(t *testing.T) {
		var err error
		amended, err = store.AmendConsent(ctx, "rec-1", ConsentAmendment{
			ConsentGiven:  false,
			ConsentMethod: "withdrawal_form",
		}, at)
		require.NoError(t, err)
	})

	testutil.Then(t, "the amendment is recorded", func(t *testing.T) {
		assert.False(t, amended.Compliance.ConsentGiven)
		assert.Equal(t, "withdrawal_form", amended.Compliance.ConsentMethod)
		assert.Equal(t, at, amended.LastModified)
		require.NotNil(t, amended.Compliance.ConsentTimestamp)
		assert.Equal(t, at, *amended.Compliance.ConsentTimestamp)
	})

	testutil.Then(t, "the caller's copy stays untouched", func(t *testing.T) {
		// The amendment must not reach through the shared pointer.
		assert.True(t, original.Compliance.ConsentGiven)
	})

	_, err := store.AmendConsent(ctx, "missing", ConsentAmendment{}, at)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreMarkDisposed(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Save(ctx, testRecord("rec-1")))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec, err := store.MarkDisposed(ctx, "rec-1", at)
	require.NoError(t, err)

	assert.True(t, rec.Compliance.Disposed)
	require.NotNil(t, rec.Compliance.DisposalDate)
	assert.Equal(t, at, *rec.Compliance.DisposalDate)
}

func TestRecordHashExcludesProcessing(t *testing.T) {
	rec := testRecord("rec-1")
	before := rec.Hash()

	rec.Processing = ProcessingMetadata{ProcessingID: "proc-1", DataHash: before}
	assert.Equal(t, before, rec.Hash(), "enrichment must not change the canonical digest")

	rec.Region = "us-east-1"
	assert.NotEqual(t, before, rec.Hash(), "compliance-relevant fields participate in the digest")
}
