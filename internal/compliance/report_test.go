package compliance

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func passingVerdict(recordID string) Verdict {
	return Verdict{
		RecordID:    recordID,
		Region:      "ca-central-1",
		EvaluatedAt: evalTime,
		Categories: map[Category]CategoryResult{
			CategoryConsent:     {Passed: true},
			CategoryEncryption:  {Passed: true},
			CategoryRetention:   {Passed: true},
			CategoryCrossBorder: {Passed: true},
		},
		Overall: true,
	}
}

func failingVerdict(recordID string, failed ...Category) Verdict {
	v := passingVerdict(recordID)
	v.Overall = false
	for _, c := range failed {
		v.Categories[c] = CategoryResult{Reason: "violation"}
	}
	return v
}

func TestScoreEmptyPopulation(t *testing.T) {
	report := Score(nil, 100)

	assert.Equal(t, float64(100), report.Score, "no evaluated records means no observed violations")
	assert.False(t, report.AlertTriggered)
	assert.Zero(t, report.Total)
	assert.Empty(t, report.Violations)
}

func TestScoreTenVerdictsTwoEncryptionFailures(t *testing.T) {
	var verdicts []Verdict
	for i := 0; i < 8; i++ {
		verdicts = append(verdicts, passingVerdict(fmt.Sprintf("rec-%d", i)))
	}
	verdicts = append(verdicts,
		failingVerdict("rec-8", CategoryEncryption),
		failingVerdict("rec-9", CategoryEncryption),
	)

	report := Score(verdicts, 100)

	assert.Equal(t, 80.00, report.Score)
	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 8, report.Passed)
	assert.Equal(t, 2, report.Violations[CategoryEncryption])
	assert.True(t, report.AlertTriggered, "default threshold 100 alerts on any violation")
}

func TestScoreThresholdBoundary(t *testing.T) {
	verdicts := []Verdict{
		passingVerdict("rec-1"),
		passingVerdict("rec-2"),
		passingVerdict("rec-3"),
		failingVerdict("rec-4", CategoryConsent),
	}

	report := Score(verdicts, 75)

	assert.Equal(t, 75.00, report.Score)
	assert.False(t, report.AlertTriggered, "alert fires strictly below the threshold")
}

func TestScoreIdempotent(t *testing.T) {
	verdicts := []Verdict{
		passingVerdict("rec-1"),
		failingVerdict("rec-2", CategoryConsent, CategoryEncryption),
	}

	first := Score(verdicts, 100)
	second := Score(verdicts, 100)

	assert.Equal(t, first, second, "scoring an immutable verdict set is idempotent")
}

func TestScoreWorstOffendersRankedAndBounded(t *testing.T) {
	var verdicts []Verdict
	// rec-b fails two categories, the rest fail one each.
	verdicts = append(verdicts, failingVerdict("rec-b", CategoryConsent, CategoryEncryption))
	for _, id := range []string{"rec-a", "rec-c", "rec-d", "rec-e", "rec-f", "rec-g"} {
		verdicts = append(verdicts, failingVerdict(id, CategoryConsent))
	}

	report := Score(verdicts, 100)

	assert.Len(t, report.WorstOffenders, 5, "offender list is capped")
	assert.Equal(t, "rec-b", report.WorstOffenders[0], "most failing categories ranks first")
	assert.Equal(t, []string{"rec-b", "rec-a", "rec-c", "rec-d", "rec-e"}, report.WorstOffenders,
		"ties break by record ID for determinism")
}

func TestScoreRounding(t *testing.T) {
	verdicts := []Verdict{
		passingVerdict("rec-1"),
		passingVerdict("rec-2"),
		failingVerdict("rec-3", CategoryRetention),
	}

	report := Score(verdicts, 100)

	assert.Equal(t, 66.67, report.Score, "score is rounded to two decimals")
}

func TestVerdictIDDeterminism(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := VerdictID("rec-1", "v1", at)
	b := VerdictID("rec-1", "v1", at)
	c := VerdictID("rec-1", "v2", at)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "rule set version participates in the identity")
}
