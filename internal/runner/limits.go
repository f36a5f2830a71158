package runner

import (
	"fmt"
	"time"
)

// Limits bounds a saturation run. A zero field takes its value from
// DefaultLimits.
type Limits struct {
	Iterations int           `yaml:"iterations"`
	Nodes      int           `yaml:"nodes"`
	Time       time.Duration `yaml:"time"`
}

const (
	DefaultIterationLimit = 100
	DefaultNodeLimit      = 30_000
	DefaultTimeLimit      = 120 * time.Second
)

// DefaultLimits returns 100 iterations, 30,000 nodes and two minutes.
func DefaultLimits() Limits {
	return Limits{
		Iterations: DefaultIterationLimit,
		Nodes:      DefaultNodeLimit,
		Time:       DefaultTimeLimit,
	}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.Iterations == 0 {
		l.Iterations = d.Iterations
	}
	if l.Nodes == 0 {
		l.Nodes = d.Nodes
	}
	if l.Time == 0 {
		l.Time = d.Time
	}
	return l
}

// Validate rejects negative limits.
func (l Limits) Validate() error {
	switch {
	case l.Iterations < 0:
		return fmt.Errorf("iteration limit must not be negative, got %d", l.Iterations)
	case l.Nodes < 0:
		return fmt.Errorf("node limit must not be negative, got %d", l.Nodes)
	case l.Time < 0:
		return fmt.Errorf("time limit must not be negative, got %s", l.Time)
	}
	return nil
}

// StopReason records why a run ended.
type StopReason int

const (
	Running StopReason = iota
	// Saturated means a full iteration produced no new union.
	Saturated
	IterationLimitReached
	NodeLimitReached
	TimeLimitReached
	// GoalReached means the caller's goal predicate held; see WithGoal.
	GoalReached
)

var stopReasonNames = [...]string{
	Running:               "running",
	Saturated:             "saturated",
	IterationLimitReached: "iteration-limit",
	NodeLimitReached:      "node-limit",
	TimeLimitReached:      "time-limit",
	GoalReached:           "goal-reached",
}

func (s StopReason) String() string {
	if s < 0 || int(s) >= len(stopReasonNames) {
		return fmt.Sprintf("StopReason(%d)", int(s))
	}
	return stopReasonNames[s]
}

// Limited reports whether the run was cut short by a resource limit, in
// which case the graph holds only a partial saturation.
func (s StopReason) Limited() bool {
	return s == IterationLimitReached || s == NodeLimitReached || s == TimeLimitReached
}
