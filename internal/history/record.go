// Package history holds finished workout records and the statistics derived from them.
package history

import (
	"time"

	"github.com/lowaak/interval-split/internal/interval"
)

// Status is the outcome of a recorded run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// CompletedBlock is one block as it was actually run
type CompletedBlock struct {
	BlockID         string            `json:"blockId"`
	Tag             interval.BlockTag `json:"tag"`
	PlannedDuration int               `json:"plannedDuration"`
	ActualDuration  int               `json:"actualDuration"`
	PlannedSpeed    float64           `json:"plannedSpeed"`
}

// DistanceKm estimates the distance covered assuming the planned speed was held
func (b CompletedBlock) DistanceKm() float64 {
	return b.PlannedSpeed * float64(b.ActualDuration) / 3600
}

// CompletedRound collects the blocks run for one round across all of its repeats
type CompletedRound struct {
	RoundID          string           `json:"roundId"`
	RoundName        string           `json:"roundName"`
	CompletedRepeats int              `json:"completedRepeats"`
	Blocks           []CompletedBlock `json:"blocks"`
}

// WorkoutRecord is the immutable result of a run
type WorkoutRecord struct {
	ID              string           `json:"id"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         *time.Time       `json:"endTime"`
	Config          interval.Plan    `json:"config"`
	CompletedRounds []CompletedRound `json:"completedRounds"`
	TotalDuration   int              `json:"totalDuration"` // seconds, end minus start
	PausedDuration  int              `json:"pausedDuration"`
	Status          Status           `json:"status"`
}

// DistanceKm sums the estimated distance of every completed block
func (r WorkoutRecord) DistanceKm() float64 {
	total := 0.0
	for _, round := range r.CompletedRounds {
		for _, b := range round.Blocks {
			total += b.DistanceKm()
		}
	}
	return total
}

// BlockCount returns the number of completed blocks in the record
func (r WorkoutRecord) BlockCount() int {
	n := 0
	for _, round := range r.CompletedRounds {
		n += len(round.Blocks)
	}
	return n
}

// Clone returns a deep copy so callers can hand records across goroutines
func (r WorkoutRecord) Clone() WorkoutRecord {
	out := r
	out.Config = r.Config.Clone()
	if r.EndTime != nil {
		end := *r.EndTime
		out.EndTime = &end
	}
	if r.CompletedRounds != nil {
		out.CompletedRounds = make([]CompletedRound, len(r.CompletedRounds))
		for i, round := range r.CompletedRounds {
			out.CompletedRounds[i] = round
			if round.Blocks != nil {
				out.CompletedRounds[i].Blocks = make([]CompletedBlock, len(round.Blocks))
				copy(out.CompletedRounds[i].Blocks, round.Blocks)
			}
		}
	}
	return out
}
