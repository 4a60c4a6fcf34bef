package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-split/internal/events"
	"github.com/lowaak/interval-split/internal/go_func_utils"
	"github.com/lowaak/interval-split/internal/interval"
)

// DefaultTickInterval is one engine second
const DefaultTickInterval = time.Second

// ErrRunnerStopped is returned by commands issued after Shutdown
var ErrRunnerStopped = errors.New("runner stopped")

// runnerCommand represents commands sent to the runner goroutine
type runnerCommand int

const (
	cmdLoad runnerCommand = iota
	cmdStart
	cmdPause
	cmdToggle
	cmdReset
	cmdSnapshot
	cmdPlan
)

type commandRequest struct {
	cmd   runnerCommand
	plan  interval.Plan
	reply chan commandResult
}

type commandResult struct {
	snapshot Snapshot
	plan     interval.Plan
	err      error
}

// Runner owns an Engine on its own goroutine and drives it with a ticker
// that only runs while the engine is running. Commands and ticks are handled
// one at a time, so a pause or reset never races a tick.
type Runner struct {
	engine       *Engine
	logger       *log.Logger
	tickInterval time.Duration

	snapshotEvent *events.ChannelEvent[Snapshot]

	// Goroutine management
	cmdChan      chan commandRequest
	doneChan     chan struct{} // Closed to signal shutdown
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewRunner starts the runner goroutine. tickInterval <= 0 selects one second.
func NewRunner(engine *Engine, tickInterval time.Duration, logger *log.Logger) *Runner {
	if engine == nil {
		panic("Runner: engine cannot be nil")
	}
	if logger == nil {
		panic("Runner: logger cannot be nil")
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}

	r := &Runner{
		engine:        engine,
		logger:        logger,
		tickInterval:  tickInterval,
		snapshotEvent: events.NewChannelEvent[Snapshot](true),
		cmdChan:       make(chan commandRequest),
		doneChan:      make(chan struct{}),
	}
	r.snapshotEvent.Notify(engine.Snapshot())

	r.wg.Add(1)
	go_func_utils.SafeGo(logger, "Runner", r.runLoop)

	return r
}

// ListenToSnapshots registers a channel that receives a snapshot after every
// command and tick. The latest snapshot is replayed on registration.
func (r *Runner) ListenToSnapshots(ch chan<- Snapshot) func() {
	return r.snapshotEvent.Listen(ch)
}

// ListenToEvents registers an engine event callback. Callbacks run on the
// runner goroutine and must return quickly.
func (r *Runner) ListenToEvents(callback func(Event)) func() {
	return r.engine.Listen(callback)
}

// Load replaces the plan for the next run. Fails with ErrRunInProgress while
// running or paused.
func (r *Runner) Load(plan interval.Plan) (Snapshot, error) {
	res := r.do(commandRequest{cmd: cmdLoad, plan: plan})
	return res.snapshot, res.err
}

func (r *Runner) Start() (Snapshot, error) {
	res := r.do(commandRequest{cmd: cmdStart})
	return res.snapshot, res.err
}

func (r *Runner) Pause() (Snapshot, error) {
	res := r.do(commandRequest{cmd: cmdPause})
	return res.snapshot, res.err
}

func (r *Runner) Toggle() (Snapshot, error) {
	res := r.do(commandRequest{cmd: cmdToggle})
	return res.snapshot, res.err
}

func (r *Runner) Reset() (Snapshot, error) {
	res := r.do(commandRequest{cmd: cmdReset})
	return res.snapshot, res.err
}

// Snapshot returns the current engine state. After Shutdown it returns the
// last published snapshot.
func (r *Runner) Snapshot() Snapshot {
	res := r.do(commandRequest{cmd: cmdSnapshot})
	if res.err != nil {
		last, _ := r.snapshotEvent.Last()
		return last
	}
	return res.snapshot
}

// Plan returns a copy of the loaded plan
func (r *Runner) Plan() (interval.Plan, error) {
	res := r.do(commandRequest{cmd: cmdPlan})
	return res.plan, res.err
}

// Shutdown stops the runner goroutine. A run in progress is left as is and
// no record is written. Safe to call multiple times.
func (r *Runner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.logger.Printf("Runner: Shutting down")
		close(r.doneChan)
		r.wg.Wait()
		r.logger.Printf("Runner: Shutdown complete")
	})
}

func (r *Runner) do(req commandRequest) commandResult {
	req.reply = make(chan commandResult, 1)
	select {
	case r.cmdChan <- req:
	case <-r.doneChan:
		return commandResult{err: ErrRunnerStopped}
	}
	select {
	case res := <-req.reply:
		return res
	case <-r.doneChan:
		return commandResult{err: ErrRunnerStopped}
	}
}

func (r *Runner) handleCommand(req commandRequest) commandResult {
	var res commandResult
	switch req.cmd {
	case cmdLoad:
		res.err = r.engine.Load(req.plan)
	case cmdStart:
		r.engine.Start()
	case cmdPause:
		r.engine.Pause()
	case cmdToggle:
		r.engine.Toggle()
	case cmdReset:
		r.engine.Reset()
	case cmdPlan:
		res.plan = r.engine.Plan()
	}
	res.snapshot = r.engine.Snapshot()
	return res
}

// runLoop is the goroutine that owns the engine
func (r *Runner) runLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.tickInterval)
	ticker.Stop() // armed only while running
	armed := false

	syncTicker := func() {
		running := r.engine.Status() == StatusRunning
		switch {
		case running && !armed:
			ticker.Reset(r.tickInterval)
			armed = true
		case !running && armed:
			ticker.Stop()
			armed = false
		}
	}

	for {
		select {
		case <-r.doneChan:
			ticker.Stop()
			r.logger.Printf("Runner: Goroutine exiting")
			return

		case req := <-r.cmdChan:
			res := r.handleCommand(req)
			syncTicker()
			req.reply <- res
			if req.cmd != cmdSnapshot && req.cmd != cmdPlan {
				r.snapshotEvent.Notify(res.snapshot)
			}

		case <-ticker.C:
			r.engine.Tick()
			syncTicker()
			r.snapshotEvent.Notify(r.engine.Snapshot())
		}
	}
}
