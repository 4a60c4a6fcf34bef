package engine

import "github.com/lowaak/interval-split/internal/interval"

// Position locates the running block inside a plan
type Position struct {
	RoundIndex       int  `json:"roundIndex"`
	RepeatIndex      int  `json:"repeatIndex"` // 1-based
	BlockIndex       int  `json:"blockIndex"`
	RemainingSeconds int  `json:"remainingSeconds"`
	IsRunning        bool `json:"isRunning"`
}

// Transition describes what a block boundary crossed
type Transition int

const (
	TransitionNone Transition = iota
	TransitionBlock
	TransitionRepeat
	TransitionRound
	TransitionComplete
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionBlock:
		return "block"
	case TransitionRepeat:
		return "repeat"
	case TransitionRound:
		return "round"
	case TransitionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// StartPosition returns the first block of the first round that has blocks.
// ok is false when the plan has nothing to run.
func StartPosition(plan interval.Plan) (pos Position, ok bool) {
	idx := nextRunnableRound(plan, -1)
	if idx < 0 {
		return Position{}, false
	}
	return Position{
		RoundIndex:       idx,
		RepeatIndex:      1,
		BlockIndex:       0,
		RemainingSeconds: plan.Rounds[idx].Blocks[0].Seconds(),
	}, true
}

// Advance consumes one second at pos. The returned transition is
// TransitionNone when the block still has time left.
func Advance(plan interval.Plan, pos Position) (Position, Transition) {
	if pos.RemainingSeconds > 1 {
		pos.RemainingSeconds--
		return pos, TransitionNone
	}
	return NextBlock(plan, pos)
}

// NextBlock moves past the block at pos. The first matching rule wins:
// next block of the repeat, next repeat of the round, next round with
// blocks, plan complete.
func NextBlock(plan interval.Plan, pos Position) (Position, Transition) {
	if pos.RoundIndex < 0 || pos.RoundIndex >= len(plan.Rounds) {
		return completedAt(pos), TransitionComplete
	}
	round := plan.Rounds[pos.RoundIndex]

	if pos.BlockIndex+1 < len(round.Blocks) {
		pos.BlockIndex++
		pos.RemainingSeconds = round.Blocks[pos.BlockIndex].Seconds()
		return pos, TransitionBlock
	}

	if pos.RepeatIndex < round.Repeats() && !round.IsEmpty() {
		pos.RepeatIndex++
		pos.BlockIndex = 0
		pos.RemainingSeconds = round.Blocks[0].Seconds()
		return pos, TransitionRepeat
	}

	if next := nextRunnableRound(plan, pos.RoundIndex); next >= 0 {
		return Position{
			RoundIndex:       next,
			RepeatIndex:      1,
			BlockIndex:       0,
			RemainingSeconds: plan.Rounds[next].Blocks[0].Seconds(),
			IsRunning:        pos.IsRunning,
		}, TransitionRound
	}

	return completedAt(pos), TransitionComplete
}

func completedAt(pos Position) Position {
	pos.RemainingSeconds = 0
	pos.IsRunning = false
	return pos
}

// nextRunnableRound returns the index of the first round after `after` that
// has at least one block, or -1. Empty rounds are never entered.
func nextRunnableRound(plan interval.Plan, after int) int {
	for i := after + 1; i < len(plan.Rounds); i++ {
		if !plan.Rounds[i].IsEmpty() {
			return i
		}
	}
	return -1
}
