package executor

import "fmt"

// IsTerminal reports whether the task is finished.
func IsTerminal(s TaskState) bool {
	switch s {
	case StateVerified, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to TaskState) bool {
	switch from {
	case StatePending:
		return to == StateRunning
	case StateRunning:
		return to == StateVerified || to == StateSkipped || to == StateRetrying || to == StateFailed
	case StateRetrying:
		return to == StateRunning || to == StateFailed
	default:
		return false
	}
}

func (o *Outcome) transition(to TaskState) error {
	if !isAllowedTransition(o.State, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", o.Task.Name, o.State, to)
	}
	o.State = to
	return nil
}
