package compliance

import (
	"fmt"
	"time"

	"replicare/internal/record"
)

// Rule is an independently pluggable predicate keyed by category name. Rules
// are evaluated against the compliance facts only; they perform no I/O so the
// validator stays pure.
type Rule interface {
	Category() Category
	Evaluate(rec record.Record, at time.Time) CategoryResult
}

// RuleSet is a versioned registry of rules. Every rule is evaluated
// independently so one violation never short-circuits discovery of others.
type RuleSet struct {
	Version string
	rules   map[Category]Rule
	order   []Category
}

// NewRuleSet creates an empty rule set with the given version.
func NewRuleSet(version string) *RuleSet {
	return &RuleSet{Version: version, rules: make(map[Category]Rule)}
}

// Register adds a rule, replacing a previous rule of the same category.
func (rs *RuleSet) Register(r Rule) {
	if _, ok := rs.rules[r.Category()]; !ok {
		rs.order = append(rs.order, r.Category())
	}
	rs.rules[r.Category()] = r
}

// Rules returns the registered rules in registration order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, 0, len(rs.order))
	for _, c := range rs.order {
		out = append(out, rs.rules[c])
	}
	return out
}

// DefaultRuleSetConfig carries the thresholds the built-in rules need.
type DefaultRuleSetConfig struct {
	RequiredEncryptionLevel string
	ConsentTTL              time.Duration
	// RetentionPeriods maps a record classification to its retention period;
	// classifications not listed fall back to DefaultRetention.
	RetentionPeriods map[string]time.Duration
	DefaultRetention time.Duration
}

// DefaultRuleSet registers the four PIPEDA rule categories.
func DefaultRuleSet(version string, cfg DefaultRuleSetConfig) *RuleSet {
	rs := NewRuleSet(version)
	rs.Register(ConsentRule{TTL: cfg.ConsentTTL})
	rs.Register(EncryptionRule{Required: cfg.RequiredEncryptionLevel})
	rs.Register(RetentionRule{Periods: cfg.RetentionPeriods, Default: cfg.DefaultRetention})
	rs.Register(CrossBorderRule{})
	return rs
}

// ConsentRule fails when consent is withheld, undated, or expired. A record
// without consent can never be compliant regardless of other fields.
type ConsentRule struct {
	// TTL bounds consent validity; zero means consent never expires.
	TTL time.Duration
}

func (ConsentRule) Category() Category { return CategoryConsent }

func (r ConsentRule) Evaluate(rec record.Record, at time.Time) CategoryResult {
	info := complianceFacts(rec)
	if !info.ConsentGiven {
		return CategoryResult{Reason: "consent not given"}
	}
	if info.ConsentTimestamp == nil {
		return CategoryResult{Reason: "consent timestamp absent"}
	}
	if r.TTL > 0 && at.After(info.ConsentTimestamp.Add(r.TTL)) {
		return CategoryResult{Reason: "consent expired"}
	}
	return CategoryResult{Passed: true}
}

// EncryptionRule requires a byte-for-byte match with the configured level.
// "aes-256" and "AES-256" are different levels unless the rule set says so.
type EncryptionRule struct {
	Required string
}

func (EncryptionRule) Category() Category { return CategoryEncryption }

func (r EncryptionRule) Evaluate(rec record.Record, _ time.Time) CategoryResult {
	info := complianceFacts(rec)
	if info.EncryptionLevel != r.Required {
		return CategoryResult{Reason: fmt.Sprintf("encryption level %q, require %q", info.EncryptionLevel, r.Required)}
	}
	return CategoryResult{Passed: true}
}

// RetentionRule fails when no retention policy is declared, when the disposal
// date passed without a disposal action, or when the classification's
// retention period elapsed undisposed.
type RetentionRule struct {
	Periods map[string]time.Duration
	Default time.Duration
}

func (RetentionRule) Category() Category { return CategoryRetention }

func (r RetentionRule) Evaluate(rec record.Record, at time.Time) CategoryResult {
	info := complianceFacts(rec)
	if info.RetentionPolicy == "" {
		return CategoryResult{Reason: "retention policy absent"}
	}
	if info.Disposed {
		return CategoryResult{Passed: true}
	}
	if info.DisposalDate != nil && info.DisposalDate.Before(at) {
		return CategoryResult{Reason: "disposal date passed without disposal"}
	}
	period, ok := r.Periods[rec.Classification]
	if !ok {
		period = r.Default
	}
	if period > 0 && !rec.CreatedAt.IsZero() && at.After(rec.CreatedAt.Add(period)) {
		return CategoryResult{Reason: "retention period exceeded without disposal"}
	}
	return CategoryResult{Passed: true}
}

// CrossBorderRule fails only when the record left its residency origin
// without cross-border transfer consent. Matching regions pass automatically.
type CrossBorderRule struct{}

func (CrossBorderRule) Category() Category { return CategoryCrossBorder }

func (CrossBorderRule) Evaluate(rec record.Record, _ time.Time) CategoryResult {
	if rec.Region == rec.ResidencyOrigin {
		return CategoryResult{Passed: true}
	}
	info := complianceFacts(rec)
	if !info.CrossBorderTransferConsent {
		return CategoryResult{Reason: "cross-border transfer without consent"}
	}
	return CategoryResult{Passed: true}
}

// complianceFacts returns the record's compliance info, substituting the zero
// value when it is structurally missing so rules stay crash-free; the
// missing_field category reports the absence itself.
func complianceFacts(rec record.Record) record.ComplianceInfo {
	if rec.Compliance == nil {
		return record.ComplianceInfo{}
	}
	return *rec.Compliance
}
