// Package engine runs an interval plan: the traversal state machine, progress,
// the run recorder and the ticking goroutine that drives them.
package engine

import (
	"errors"
	"log"
	"time"

	"github.com/lowaak/interval-split/internal/events"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

// Status is the engine lifecycle state
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ErrRunInProgress is returned when a plan is loaded while running or paused
var ErrRunInProgress = errors.New("run in progress")

// Sink receives finished records. Submit must not block.
type Sink interface {
	Submit(record history.WorkoutRecord) error
}

// Snapshot is a read-only view of the engine for presentation
type Snapshot struct {
	Status      Status          `json:"status"`
	Position    Position        `json:"position"`
	Round       *interval.Round `json:"round,omitempty"`
	Block       *interval.Block `json:"block,omitempty"`
	RoundNumber int             `json:"roundNumber"` // 1-based, 0 when there is no round
	RoundCount  int             `json:"roundCount"`
	Progress    Progress        `json:"progress"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
}

// Engine is the interval state machine. It is not safe for concurrent use;
// Runner owns one on a single goroutine. Event listeners run synchronously
// and must not call back into the engine.
type Engine struct {
	clock    Clock
	sink     Sink
	logger   *log.Logger
	recorder *Recorder
	events   *events.CallbackEvent[Event]

	plan   interval.Plan // loaded plan, used for the next start
	run    interval.Plan // snapshot being traversed
	status Status
	pos    Position
}

func NewEngine(plan interval.Plan, sink Sink, clock Clock, logger *log.Logger) *Engine {
	if sink == nil {
		panic("Engine: sink cannot be nil")
	}
	if clock == nil {
		panic("Engine: clock cannot be nil")
	}
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	return &Engine{
		clock:    clock,
		sink:     sink,
		logger:   logger,
		recorder: NewRecorder(clock),
		events:   events.NewCallbackEvent[Event](false),
		plan:     plan.Clone(),
		status:   StatusIdle,
	}
}

// Listen registers an event callback and returns its unregister function
func (e *Engine) Listen(callback func(Event)) func() {
	return e.events.Listen(callback)
}

// Load replaces the plan used by the next start. A completed run is cleared.
func (e *Engine) Load(plan interval.Plan) error {
	if e.status == StatusRunning || e.status == StatusPaused {
		e.logger.Printf("Engine: Cannot load plan while %s", e.status)
		return ErrRunInProgress
	}
	e.plan = plan.Clone()
	e.status = StatusIdle
	e.pos = Position{}
	e.logger.Printf("Engine: Plan loaded (%d rounds, %ds)", len(plan.Rounds), plan.TotalSeconds())
	return nil
}

func (e *Engine) Plan() interval.Plan {
	return e.plan.Clone()
}

func (e *Engine) Status() Status {
	return e.status
}

func (e *Engine) Position() Position {
	return e.pos
}

// Timing exposes the recorder timestamps of the current run
func (e *Engine) Timing() Timing {
	return e.recorder.Timing()
}

// Progress reports elapsed and total seconds of the current run, or of the
// loaded plan when idle.
func (e *Engine) Progress() Progress {
	switch e.status {
	case StatusIdle:
		total := e.plan.TotalSeconds()
		return Progress{Total: total}
	case StatusCompleted:
		total := e.run.TotalSeconds()
		return Progress{Elapsed: total, Total: total, Fraction: Fraction(total, total)}
	default:
		return ComputeProgress(e.run, e.pos)
	}
}

// Start begins a run from Idle or resumes a paused one. It is a no-op while
// running and after completion until Reset.
func (e *Engine) Start() {
	switch e.status {
	case StatusRunning:
		e.logger.Printf("Engine: Already running")
	case StatusCompleted:
		e.logger.Printf("Engine: Run completed, reset before starting again")
	case StatusPaused:
		e.recorder.Resume()
		e.status = StatusRunning
		e.pos.IsRunning = true
		e.logger.Printf("Engine: Resumed")
		e.emit(Event{Kind: EventRunResumed, Position: e.pos})
	case StatusIdle:
		e.begin()
	}
}

// Pause stops a running run without changing its position
func (e *Engine) Pause() {
	if e.status != StatusRunning {
		return
	}
	e.recorder.Pause()
	e.status = StatusPaused
	e.pos.IsRunning = false
	e.logger.Printf("Engine: Paused at round %d repeat %d block %d (%ds left)",
		e.pos.RoundIndex, e.pos.RepeatIndex, e.pos.BlockIndex, e.pos.RemainingSeconds)
	e.emit(Event{Kind: EventRunPaused, Position: e.pos})
}

// Toggle pauses a running run and starts otherwise
func (e *Engine) Toggle() {
	if e.status == StatusRunning {
		e.Pause()
		return
	}
	e.Start()
}

// Reset returns to Idle. An unfinished run is discarded: the sink is not
// called and listeners get EventRunAbandoned with the partial record.
func (e *Engine) Reset() {
	switch e.status {
	case StatusIdle:
		return
	case StatusRunning, StatusPaused:
		partial := e.recorder.Abandon()
		e.logger.Printf("Engine: Run abandoned after %ds", partial.TotalDuration)
		e.emit(Event{Kind: EventRunAbandoned, Position: e.pos, Record: &partial})
	}
	e.status = StatusIdle
	e.pos = Position{}
	e.run = interval.Plan{}
}

// Tick consumes one second. Ignored unless running.
func (e *Engine) Tick() {
	if e.status != StatusRunning {
		return
	}

	next, kind := Advance(e.run, e.pos)
	if kind == TransitionNone {
		e.pos = next
		e.emit(Event{Kind: EventTicked, Position: e.pos})
		return
	}

	e.transition(next, kind)
	e.settle()
	e.emit(Event{Kind: EventTicked, Position: e.pos})
}

// Snapshot describes the current state. Idle snapshots preview the start of
// the loaded plan.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{Status: e.status, Progress: e.Progress()}

	plan, pos := e.run, e.pos
	if e.status == StatusIdle {
		plan = e.plan
		pos, _ = StartPosition(plan)
	}
	snap.Position = pos
	snap.RoundCount = len(plan.Rounds)

	if pos.RoundIndex >= 0 && pos.RoundIndex < len(plan.Rounds) && len(plan.Rounds) > 0 {
		round := plan.Rounds[pos.RoundIndex].Clone()
		snap.Round = &round
		snap.RoundNumber = pos.RoundIndex + 1
		if pos.BlockIndex >= 0 && pos.BlockIndex < len(round.Blocks) {
			block := round.Blocks[pos.BlockIndex]
			snap.Block = &block
		}
	}

	if e.recorder.Active() {
		start := e.recorder.Timing().RunStart
		snap.StartedAt = &start
	}
	return snap
}

func (e *Engine) begin() {
	e.run = e.plan.Clone()
	pos, ok := StartPosition(e.run)
	e.recorder.Begin(e.run, pos, ok)
	e.pos = pos
	e.status = StatusRunning
	e.pos.IsRunning = true

	e.logger.Printf("Engine: Run started (%d rounds, %ds)", len(e.run.Rounds), e.run.TotalSeconds())
	e.emit(Event{Kind: EventRunStarted, Position: e.pos})

	if !ok {
		e.finish()
		return
	}
	e.emit(e.blockEvent(EventBlockStarted, e.pos))
	e.settle()
}

// settle runs through zero-length blocks so a running position always has
// at least one second left
func (e *Engine) settle() {
	for e.status == StatusRunning && e.pos.RemainingSeconds <= 0 {
		next, kind := NextBlock(e.run, e.pos)
		e.transition(next, kind)
	}
}

func (e *Engine) transition(next Position, kind Transition) {
	from := e.pos
	done := e.recorder.CompleteBlock(from, next, kind)

	completed := e.blockEvent(EventBlockCompleted, from)
	completed.Completed = &done
	e.emit(completed)

	switch kind {
	case TransitionRepeat:
		e.emit(e.blockEvent(EventRepeatCompleted, from))
	case TransitionRound, TransitionComplete:
		e.emit(e.blockEvent(EventRoundCompleted, from))
	}

	if kind == TransitionComplete {
		e.pos = next
		e.finish()
		return
	}

	next.IsRunning = true
	e.pos = next
	e.emit(e.blockEvent(EventBlockStarted, e.pos))
}

func (e *Engine) finish() {
	record := e.recorder.Finish()
	e.status = StatusCompleted
	e.pos.IsRunning = false
	e.pos.RemainingSeconds = 0

	e.logger.Printf("Engine: Plan complete (record %s, %ds)", record.ID, record.TotalDuration)
	if err := e.sink.Submit(record); err != nil {
		e.logger.Printf("Engine: Failed to submit record %s: %v", record.ID, err)
	}
	e.emit(Event{Kind: EventPlanCompleted, Position: e.pos, Record: &record})
}

func (e *Engine) blockEvent(kind EventKind, pos Position) Event {
	ev := Event{Kind: kind, Position: pos}
	if pos.RoundIndex >= 0 && pos.RoundIndex < len(e.run.Rounds) {
		ev.Round = e.run.Rounds[pos.RoundIndex].Clone()
		if pos.BlockIndex >= 0 && pos.BlockIndex < len(ev.Round.Blocks) {
			ev.Block = ev.Round.Blocks[pos.BlockIndex]
		}
	}
	return ev
}

func (e *Engine) emit(ev Event) {
	e.events.Notify(ev)
}
