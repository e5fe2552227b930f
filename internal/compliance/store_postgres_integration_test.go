//go:build integration

package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replicare/internal/compliance"
	"replicare/pkg/platform/sentinel"
	"replicare/pkg/testutil/containers"
)

func setupComplianceStores(t *testing.T) (*compliance.PostgresVerdictStore, *compliance.PostgresReportStore) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() {
		_ = pg.DB.Close()
		_ = pg.Container.Terminate(context.Background())
	})
	require.NoError(t, pg.Apply(context.Background(), compliance.Schema))
	return compliance.NewPostgresVerdictStore(pg.DB), compliance.NewPostgresReportStore(pg.DB)
}

func storedVerdict(recordID, region string, at time.Time, overall bool) compliance.Verdict {
	return compliance.Verdict{
		ID:             compliance.VerdictID(recordID, "test-1", at),
		RecordID:       recordID,
		Region:         region,
		RuleSetVersion: "test-1",
		EvaluatedAt:    at,
		Categories: map[compliance.Category]compliance.CategoryResult{
			compliance.CategoryConsent: {Passed: overall},
		},
		Overall: overall,
	}
}

func TestPostgresVerdictStoreWindowing(t *testing.T) {
	ctx := context.Background()
	verdicts, _ := setupComplianceStores(t)
	at := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, verdicts.Save(ctx, storedVerdict("rec-1", "ca-central-1", at, true)))
	require.NoError(t, verdicts.Save(ctx, storedVerdict("rec-2", "ca-central-1", at.Add(-48*time.Hour), false)))
	require.NoError(t, verdicts.Save(ctx, storedVerdict("rec-3", "ca-west-1", at, false)))

	// Replaying a deterministic ID is a no-op.
	require.NoError(t, verdicts.Save(ctx, storedVerdict("rec-1", "ca-central-1", at, true)))

	inWindow, err := verdicts.ListByWindow(ctx, "ca-central-1", at.Add(-24*time.Hour), at.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, inWindow, 1)
	assert.Equal(t, "rec-1", inWindow[0].RecordID)
	assert.True(t, inWindow[0].Overall)
	assert.True(t, inWindow[0].Categories[compliance.CategoryConsent].Passed)

	allRegions, err := verdicts.ListByWindow(ctx, "", at.Add(-24*time.Hour), at.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, allRegions, 2)
}

func TestPostgresReportStoreLatest(t *testing.T) {
	ctx := context.Background()
	_, reports := setupComplianceStores(t)
	at := time.Now().UTC().Truncate(time.Millisecond)

	first := compliance.Report{
		ID:             uuid.New(),
		Region:         "ca-central-1",
		WindowStart:    at.Add(-24 * time.Hour),
		WindowEnd:      at.Add(-time.Hour),
		GeneratedAt:    at.Add(-time.Hour),
		Score:          80,
		Total:          10,
		Passed:         8,
		Violations:     map[compliance.Category]int{compliance.CategoryEncryption: 2},
		WorstOffenders: []string{"rec-a", "rec-b"},
		AlertTriggered: true,
		Threshold:      100,
	}
	require.NoError(t, reports.Save(ctx, first))

	second := first
	second.ID = uuid.New()
	second.GeneratedAt = at
	second.Score = 98.5
	second.AlertTriggered = false
	require.NoError(t, reports.Save(ctx, second))

	latest, err := reports.Latest(ctx, "ca-central-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.InDelta(t, 98.5, latest.Score, 0.001)
	assert.Equal(t, 2, latest.Violations[compliance.CategoryEncryption])
	assert.Equal(t, []string{"rec-a", "rec-b"}, latest.WorstOffenders)
	assert.False(t, latest.AlertTriggered)

	_, err = reports.Latest(ctx, "us-east-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
