package engine

import "github.com/lowaak/interval-split/internal/interval"

// Progress is the overall completion of a run
type Progress struct {
	Elapsed  int     `json:"elapsed"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
}

// ElapsedSeconds counts the planned seconds before pos: whole rounds, whole
// repeats of the current round, whole blocks of the current repeat and the
// consumed part of the current block.
func ElapsedSeconds(plan interval.Plan, pos Position) int {
	if len(plan.Rounds) == 0 || pos.RoundIndex < 0 {
		return 0
	}
	if pos.RoundIndex >= len(plan.Rounds) {
		return plan.TotalSeconds()
	}

	elapsed := 0
	for _, r := range plan.Rounds[:pos.RoundIndex] {
		elapsed += r.TotalSeconds()
	}

	round := plan.Rounds[pos.RoundIndex]
	if pos.RepeatIndex > 1 {
		elapsed += (pos.RepeatIndex - 1) * round.RepeatSeconds()
	}

	for i, b := range round.Blocks {
		if i >= pos.BlockIndex {
			break
		}
		elapsed += b.Seconds()
	}

	if pos.BlockIndex >= 0 && pos.BlockIndex < len(round.Blocks) {
		consumed := round.Blocks[pos.BlockIndex].Seconds() - pos.RemainingSeconds
		if consumed > 0 {
			elapsed += consumed
		}
	}

	if total := plan.TotalSeconds(); elapsed > total {
		return total
	}
	return elapsed
}

// Fraction returns elapsed/total in [0, 1]. A zero total yields 0.
func Fraction(elapsed, total int) float64 {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return float64(elapsed) / float64(total)
}

// ComputeProgress combines ElapsedSeconds and Fraction for pos
func ComputeProgress(plan interval.Plan, pos Position) Progress {
	total := plan.TotalSeconds()
	elapsed := ElapsedSeconds(plan, pos)
	return Progress{Elapsed: elapsed, Total: total, Fraction: Fraction(elapsed, total)}
}
