package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

type chanSink struct {
	records chan history.WorkoutRecord
}

func (s *chanSink) Submit(record history.WorkoutRecord) error {
	s.records <- record
	return nil
}

func waitForStatus(t *testing.T, ch <-chan Snapshot, status Status) Snapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Status == status {
				return snap
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s snapshot", status)
			return Snapshot{}
		}
	}
}

func TestRunner_RunsPlanToCompletion(t *testing.T) {
	sink := &chanSink{records: make(chan history.WorkoutRecord, 1)}
	engine := NewEngine(makePlan(makeRound("a", 2, 1, 2)), sink, SystemClock(), discardLogger())
	runner := NewRunner(engine, 2*time.Millisecond, discardLogger())
	defer runner.Shutdown()

	snapshots := make(chan Snapshot, 64)
	runner.ListenToSnapshots(snapshots)
	idle := waitForStatus(t, snapshots, StatusIdle)
	assert.Equal(t, 6, idle.Progress.Total)

	done := make(chan struct{})
	runner.ListenToEvents(func(ev Event) {
		if ev.Kind == EventPlanCompleted {
			close(done)
		}
	})

	started, err := runner.Start()
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, started.Status)

	final := waitForStatus(t, snapshots, StatusCompleted)
	assert.Equal(t, 1.0, final.Progress.Fraction)

	select {
	case record := <-sink.records:
		assert.Equal(t, history.StatusCompleted, record.Status)
		require.Len(t, record.CompletedRounds, 1)
		assert.Len(t, record.CompletedRounds[0].Blocks, 4)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for record")
	}

	<-done
	assert.Equal(t, StatusCompleted, runner.Snapshot().Status)
}

func TestRunner_Commands(t *testing.T) {
	engine := NewEngine(makePlan(makeRound("a", 1, 60)), &fakeSink{}, SystemClock(), discardLogger())
	// long interval so no tick fires during the test
	runner := NewRunner(engine, time.Hour, discardLogger())
	defer runner.Shutdown()

	snap, err := runner.Toggle()
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)

	_, err = runner.Load(makePlan(makeRound("b", 1, 5)))
	assert.ErrorIs(t, err, ErrRunInProgress)

	snap, err = runner.Pause()
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, snap.Status)
	assert.Equal(t, 60, snap.Position.RemainingSeconds)

	snap, err = runner.Reset()
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, snap.Status)

	snap, err = runner.Load(makePlan(makeRound("b", 1, 5)))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Progress.Total)

	plan, err := runner.Plan()
	require.NoError(t, err)
	assert.Equal(t, "b", plan.Rounds[0].ID)
}

func TestRunner_Shutdown(t *testing.T) {
	engine := NewEngine(interval.DefaultPlan(), &fakeSink{}, SystemClock(), discardLogger())
	runner := NewRunner(engine, time.Hour, discardLogger())

	_, err := runner.Start()
	require.NoError(t, err)

	runner.Shutdown()
	runner.Shutdown()

	_, err = runner.Start()
	assert.ErrorIs(t, err, ErrRunnerStopped)
	_, err = runner.Plan()
	assert.ErrorIs(t, err, ErrRunnerStopped)
	assert.Equal(t, StatusRunning, runner.Snapshot().Status)
}

func TestNewRunner_NilArgumentsPanic(t *testing.T) {
	engine := NewEngine(interval.Plan{}, &fakeSink{}, SystemClock(), discardLogger())
	assert.Panics(t, func() { NewRunner(nil, time.Second, discardLogger()) })
	assert.Panics(t, func() { NewRunner(engine, time.Second, nil) })
}
