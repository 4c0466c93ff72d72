package scheduling

import (
	"github.com/smileworks/clinic-core/pkg/types"
)

// statusTransitions is the appointment state machine. Completed and
// cancelled are terminal; nothing leaves them. Completion straight
// from pending is allowed: walk-ins get treated without a separate
// confirmation step.
var statusTransitions = map[types.AppointmentStatus][]types.AppointmentStatus{
	types.StatusPending:    {types.StatusConfirmed, types.StatusCompleted, types.StatusCancelled},
	types.StatusConfirmed:  {types.StatusInProgress, types.StatusCompleted, types.StatusCancelled},
	types.StatusInProgress: {types.StatusCompleted, types.StatusCancelled},
}

// CanTransition reports whether an appointment may move from one
// status to another.
func CanTransition(from, to types.AppointmentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func transitionError(from, to types.AppointmentStatus) error {
	if from.IsTerminal() {
		return types.NewIntegrityError(types.ErrCodeTerminalStatus,
			"appointment is "+string(from)+" and can no longer change")
	}
	return types.NewIntegrityError(types.ErrCodeInvalidTransition,
		"cannot move appointment from "+string(from)+" to "+string(to))
}
