package scaling

// Action represents a scaling decision action.
type Action string

const (
	// ActionScaleUp indicates the concurrency limit should be raised.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown indicates the concurrency limit should be lowered.
	ActionScaleDown Action = "scale_down"

	// ActionNone indicates no change is needed.
	ActionNone Action = "none"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Decision is the result of evaluating the scaling policy against a queue
// snapshot.
type Decision struct {
	// Action is the recommended scaling action.
	Action Action

	// Delta is the change to the concurrency limit: positive to raise,
	// negative to lower. Zero when Action is ActionNone.
	Delta int

	// Reason is a human-readable explanation of the decision.
	Reason string
}

// Target returns the concurrency limit the decision asks for, starting from
// current.
func (d Decision) Target(current int) int {
	return current + d.Delta
}

// Scaler is the queue surface a Monitor drives.
type Scaler interface {
	Name() string
	Concurrency() int
	UpdateConcurrency(n int) error
}
