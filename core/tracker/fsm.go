package tracker

import (
	"fmt"

	"github.com/huangsam/waypoint/internal/contract"
	"github.com/huangsam/waypoint/schema"
)

// allowed lists the forward transitions of the unit state machine.
// Completed is terminal; Failed only goes back through retry.
var allowed = map[schema.UnitStatus]map[schema.UnitStatus]bool{
	schema.StatusPending: {
		schema.StatusInProgress: true,
		schema.StatusCompleted:  true,
		schema.StatusFailed:     true,
	},
	schema.StatusInProgress: {
		schema.StatusCompleted: true,
		schema.StatusFailed:    true,
	},
}

// retryable lists the transitions only an explicit retry may take.
var retryable = map[schema.UnitStatus]schema.UnitStatus{
	schema.StatusFailed: schema.StatusPending,
}

// CanTransition reports whether a unit may move from one status to another.
// Retry transitions are only permitted when retry is set.
func CanTransition(from, to schema.UnitStatus, retry bool) bool {
	if retry {
		target, ok := retryable[from]
		return ok && target == to
	}
	return allowed[from][to]
}

// checkTransition returns a typed error for an illegal transition.
func checkTransition(op string, u schema.SourceUnit, to schema.UnitStatus, retry bool) error {
	if CanTransition(u.Status, to, retry) {
		return nil
	}
	return contract.NewOpError(contract.KindInvalidTransition, op,
		fmt.Sprintf("unit %s cannot move from %s to %s", u.Path, u.Status, to), contract.ErrInvalidTransition)
}
