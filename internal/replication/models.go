package replication

import (
	"fmt"
	"strings"
	"time"
)

// HealthState classifies a region pair's replication health.
type HealthState string

const (
	HealthHealthy  HealthState = "HEALTHY"
	HealthDegraded HealthState = "DEGRADED"
	HealthBreached HealthState = "BREACHED"
)

// RegionPair identifies a replication direction: writes flow Source→Target.
type RegionPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// String renders the pair as "source->target", the form used as audit subject
// and cache key.
func (p RegionPair) String() string {
	return p.Source + "->" + p.Target
}

// ParsePair parses "source->target".
func ParsePair(s string) (RegionPair, error) {
	parts := strings.SplitN(s, "->", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RegionPair{}, fmt.Errorf("malformed region pair %q", s)
	}
	return RegionPair{Source: parts[0], Target: parts[1]}, nil
}

// Snapshot is the per-pair health view published after each sampling tick.
// Only the monitor mutates it; consumers read their latest known copy.
type Snapshot struct {
	Pair                RegionPair    `json:"pair"`
	Lag                 time.Duration `json:"lag"`
	SampledAt           time.Time     `json:"sampled_at"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	State               HealthState   `json:"state"`
}
