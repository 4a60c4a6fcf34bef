package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

// Clock supplies wall-clock time to the recorder
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock {
	return systemClock{}
}

// Timing is the wall-clock bookkeeping of a run. PausedAt is zero unless the
// run is paused.
type Timing struct {
	RunStart    time.Time     `json:"runStart"`
	BlockStart  time.Time     `json:"blockStart"`
	PausedAt    time.Time     `json:"pausedAt"`
	BlockPaused time.Duration `json:"blockPaused"`
	RunPaused   time.Duration `json:"runPaused"`
}

// Paused reports whether a pause is open
func (t Timing) Paused() bool {
	return !t.PausedAt.IsZero()
}

// Recorder turns block transitions into CompletedRounds and a final
// WorkoutRecord. Actual block durations exclude time spent paused.
type Recorder struct {
	clock  Clock
	plan   interval.Plan
	timing Timing
	rounds []history.CompletedRound
	active bool
}

func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		panic("Recorder: clock cannot be nil")
	}
	return &Recorder{clock: clock}
}

// Begin captures the run start. plan must be the snapshot the run traverses;
// hasBlock is false for plans with nothing to run.
func (r *Recorder) Begin(plan interval.Plan, pos Position, hasBlock bool) {
	now := r.clock.Now()
	r.plan = plan
	r.timing = Timing{RunStart: now, BlockStart: now}
	r.rounds = []history.CompletedRound{}
	r.active = true
	if hasBlock {
		r.enterRound(pos.RoundIndex)
	}
}

// Active reports whether a run is being recorded
func (r *Recorder) Active() bool {
	return r.active
}

// Timing returns a copy of the current timestamps
func (r *Recorder) Timing() Timing {
	return r.timing
}

// Pause opens a pause interval. Repeated calls keep the first timestamp.
func (r *Recorder) Pause() {
	if !r.active || r.timing.Paused() {
		return
	}
	r.timing.PausedAt = r.clock.Now()
}

// Resume closes the open pause interval
func (r *Recorder) Resume() {
	if !r.active || !r.timing.Paused() {
		return
	}
	d := r.clock.Now().Sub(r.timing.PausedAt)
	if d < 0 {
		d = 0
	}
	r.timing.BlockPaused += d
	r.timing.RunPaused += d
	r.timing.PausedAt = time.Time{}
}

// CompleteBlock records the block at from as finished and updates the
// repeat bookkeeping for the transition to `to`.
func (r *Recorder) CompleteBlock(from, to Position, kind Transition) history.CompletedBlock {
	now := r.clock.Now()
	block := r.blockAt(from)
	done := history.CompletedBlock{
		BlockID:         block.ID,
		Tag:             block.Tag,
		PlannedDuration: block.Seconds(),
		ActualDuration:  wholeSeconds(now.Sub(r.timing.BlockStart) - r.timing.BlockPaused),
		PlannedSpeed:    block.Speed,
	}

	if current := r.current(); current != nil {
		current.Blocks = append(current.Blocks, done)
		switch kind {
		case TransitionRepeat:
			current.CompletedRepeats = from.RepeatIndex
		case TransitionRound, TransitionComplete:
			current.CompletedRepeats = r.plan.Rounds[from.RoundIndex].Repeats()
		}
	}

	if kind == TransitionRound {
		r.enterRound(to.RoundIndex)
	}

	r.timing.BlockStart = now
	r.timing.BlockPaused = 0
	return done
}

// Finish assembles the completed record and clears the run state
func (r *Recorder) Finish() history.WorkoutRecord {
	now := r.clock.Now()
	record := r.build(now, history.StatusCompleted)
	record.EndTime = &now
	r.clear()
	return record
}

// Abandon returns the partial record of a run that was reset and clears the
// run state. The record has no end time.
func (r *Recorder) Abandon() history.WorkoutRecord {
	r.Resume()
	record := r.build(r.clock.Now(), history.StatusCancelled)
	r.clear()
	return record
}

func (r *Recorder) build(now time.Time, status history.Status) history.WorkoutRecord {
	rounds := make([]history.CompletedRound, len(r.rounds))
	for i, round := range r.rounds {
		round.Blocks = append([]history.CompletedBlock{}, round.Blocks...)
		rounds[i] = round
	}
	return history.WorkoutRecord{
		ID:              uuid.NewString(),
		StartTime:       r.timing.RunStart,
		Config:          r.plan.Clone(),
		CompletedRounds: rounds,
		TotalDuration:   wholeSeconds(now.Sub(r.timing.RunStart)),
		PausedDuration:  wholeSeconds(r.timing.RunPaused),
		Status:          status,
	}
}

func (r *Recorder) clear() {
	r.plan = interval.Plan{}
	r.timing = Timing{}
	r.rounds = nil
	r.active = false
}

func (r *Recorder) enterRound(idx int) {
	if idx < 0 || idx >= len(r.plan.Rounds) {
		return
	}
	round := r.plan.Rounds[idx]
	r.rounds = append(r.rounds, history.CompletedRound{
		RoundID:   round.ID,
		RoundName: round.Name,
		Blocks:    []history.CompletedBlock{},
	})
}

func (r *Recorder) current() *history.CompletedRound {
	if len(r.rounds) == 0 {
		return nil
	}
	return &r.rounds[len(r.rounds)-1]
}

func (r *Recorder) blockAt(pos Position) interval.Block {
	if pos.RoundIndex < 0 || pos.RoundIndex >= len(r.plan.Rounds) {
		return interval.Block{}
	}
	blocks := r.plan.Rounds[pos.RoundIndex].Blocks
	if pos.BlockIndex < 0 || pos.BlockIndex >= len(blocks) {
		return interval.Block{}
	}
	return blocks[pos.BlockIndex]
}

// wholeSeconds floors d to seconds, never below zero
func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
