package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Category names a compliance rule. New categories plug into the rule set
// registry without touching the validator loop.
type Category string

const (
	CategoryConsent      Category = "consent"
	CategoryEncryption   Category = "encryption"
	CategoryRetention    Category = "retention"
	CategoryCrossBorder  Category = "cross_border"
	CategoryMissingField Category = "missing_field"
)

// CategoryResult is the outcome of one rule against one record.
type CategoryResult struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Verdict is the immutable outcome of evaluating one record against one rule
// set version at a point in time. A re-evaluation produces a new Verdict;
// history is never overwritten.
type Verdict struct {
	ID             uuid.UUID                   `json:"id"`
	RecordID       string                      `json:"record_id"`
	Region         string                      `json:"region"`
	RuleSetVersion string                      `json:"rule_set_version"`
	EvaluatedAt    time.Time                   `json:"evaluated_at"`
	Categories     map[Category]CategoryResult `json:"categories"`
	Overall        bool                        `json:"overall"`
}

// verdictNamespace keys deterministic verdict IDs: identical (record, rule
// set version, evaluation time) inputs always produce the identical ID,
// enabling replay-based testing and idempotent persistence.
var verdictNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// VerdictID derives the deterministic ID for a (record, rule set, time) triple.
func VerdictID(recordID, ruleSetVersion string, evaluatedAt time.Time) uuid.UUID {
	seed := fmt.Sprintf("%s|%s|%d", recordID, ruleSetVersion, evaluatedAt.UnixNano())
	return uuid.NewSHA1(verdictNamespace, []byte(seed))
}

// FailingCategories returns the categories that failed, in stable order.
func (v Verdict) FailingCategories() []Category {
	var out []Category
	for _, c := range allCategories {
		if res, ok := v.Categories[c]; ok && !res.Passed {
			out = append(out, c)
		}
	}
	// Categories registered beyond the built-ins keep a deterministic tail.
	var custom []Category
	for c, res := range v.Categories {
		if !res.Passed && !isBuiltin(c) {
			custom = append(custom, c)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i] < custom[j] })
	return append(out, custom...)
}

var allCategories = []Category{
	CategoryConsent,
	CategoryEncryption,
	CategoryRetention,
	CategoryCrossBorder,
	CategoryMissingField,
}

func isBuiltin(c Category) bool {
	for _, b := range allCategories {
		if b == c {
			return true
		}
	}
	return false
}
