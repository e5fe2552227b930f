package compliance

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report aggregates verdicts over a time window for one region. Each audit
// cycle creates a new report; the previous one is superseded, not overwritten.
type Report struct {
	ID             uuid.UUID        `json:"id"`
	Region         string           `json:"region"`
	WindowStart    time.Time        `json:"window_start"`
	WindowEnd      time.Time        `json:"window_end"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Score          float64          `json:"score"`
	Total          int              `json:"total"`
	Passed         int              `json:"passed"`
	Violations     map[Category]int `json:"violations"`
	WorstOffenders []string         `json:"worst_offenders"`
	AlertTriggered bool             `json:"alert_triggered"`
	Threshold      float64          `json:"threshold"`
}

// maxWorstOffenders caps the offender list so reports stay bounded.
const maxWorstOffenders = 5

// Score computes the aggregate over an immutable verdict set. Running it
// twice over the same set produces identical results; only the report's own
// generation timestamp differs, and that is set by the caller.
//
// An empty verdict set scores 100 with zero violations: vacuous compliance.
// This is deliberate - no evaluated records means no observed violations.
func Score(verdicts []Verdict, threshold float64) Report {
	report := Report{
		Score:      100,
		Violations: make(map[Category]int),
		Threshold:  threshold,
	}
	if len(verdicts) == 0 {
		return report
	}

	failuresByRecord := make(map[string]int)
	for _, v := range verdicts {
		report.Total++
		if v.Overall {
			report.Passed++
			continue
		}
		// One failing verdict contributes to every bucket it violates.
		for _, c := range v.FailingCategories() {
			report.Violations[c]++
			failuresByRecord[v.RecordID]++
		}
	}

	report.Score = round2(100 * float64(report.Passed) / float64(report.Total))
	report.AlertTriggered = report.Score < threshold
	report.WorstOffenders = worstOffenders(failuresByRecord)
	return report
}

// worstOffenders ranks record IDs by failing-category count, ties broken by
// ID so the ordering is deterministic.
func worstOffenders(failures map[string]int) []string {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if failures[ids[i]] != failures[ids[j]] {
			return failures[ids[i]] > failures[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > maxWorstOffenders {
		ids = ids[:maxWorstOffenders]
	}
	return ids
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
