package failover

// State is the deployment-wide failover posture. There is exactly one State
// per deployment and the orchestrator owns every transition.
type State string

const (
	StateStable            State = "STABLE"
	StateDegraded          State = "DEGRADED"
	StateFailoverInitiated State = "FAILOVER_INITIATED"
	StateFailoverActive    State = "FAILOVER_ACTIVE"
	StateRecovering        State = "RECOVERING"
)

// gaugeValue maps states onto a monotone scale for the state gauge.
func gaugeValue(s State) float64 {
	switch s {
	case StateStable:
		return 0
	case StateDegraded:
		return 1
	case StateFailoverInitiated:
		return 2
	case StateFailoverActive:
		return 3
	case StateRecovering:
		return 4
	default:
		return -1
	}
}
