package engine

import (
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

// EventKind identifies a state machine notification
type EventKind int

const (
	EventRunStarted EventKind = iota
	EventTicked
	EventBlockStarted
	EventBlockCompleted
	EventRepeatCompleted
	EventRoundCompleted
	EventPlanCompleted
	EventRunPaused
	EventRunResumed
	EventRunAbandoned
)

func (k EventKind) String() string {
	switch k {
	case EventRunStarted:
		return "run_started"
	case EventTicked:
		return "ticked"
	case EventBlockStarted:
		return "block_started"
	case EventBlockCompleted:
		return "block_completed"
	case EventRepeatCompleted:
		return "repeat_completed"
	case EventRoundCompleted:
		return "round_completed"
	case EventPlanCompleted:
		return "plan_completed"
	case EventRunPaused:
		return "run_paused"
	case EventRunResumed:
		return "run_resumed"
	case EventRunAbandoned:
		return "run_abandoned"
	default:
		return "unknown"
	}
}

// Event is emitted synchronously by the engine. Round and Block describe the
// plan element the event is about; Completed is set for EventBlockCompleted
// and Record for EventPlanCompleted and EventRunAbandoned.
type Event struct {
	Kind      EventKind
	Position  Position
	Round     interval.Round
	Block     interval.Block
	Completed *history.CompletedBlock
	Record    *history.WorkoutRecord
}
