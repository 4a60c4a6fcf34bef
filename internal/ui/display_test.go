package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/treadmill"
)

func runningSnapshot(roundIndex, repeat, blockIndex, remaining int) engine.Snapshot {
	plan := interval.DefaultPlan()
	round := plan.Rounds[roundIndex]
	block := round.Blocks[blockIndex]
	return engine.Snapshot{
		Status: engine.StatusRunning,
		Position: engine.Position{
			RoundIndex:       roundIndex,
			RepeatIndex:      repeat,
			BlockIndex:       blockIndex,
			RemainingSeconds: remaining,
			IsRunning:        true,
		},
		Round:       &round,
		Block:       &block,
		RoundNumber: roundIndex + 1,
		RoundCount:  len(plan.Rounds),
		Progress:    engine.Progress{Elapsed: 600, Total: 1950, Fraction: 600.0 / 1950.0},
	}
}

func TestNewTimerDisplay_RepeatedRound(t *testing.T) {
	d := NewTimerDisplay(runningSnapshot(1, 2, 0, 75))

	assert.Equal(t, "Running", d.StatusLabel)
	assert.Equal(t, interval.TagFast, d.Tag)
	assert.Equal(t, "Fast", d.TagLabel)
	assert.Equal(t, "01:15", d.Remaining)
	assert.Equal(t, "Round 1 (2/3)", d.RoundLine)
	assert.Equal(t, "12.0 km/h (5'00 /km)", d.SpeedLine)
	assert.Equal(t, "Round 2 / 4", d.RoundCounter)
	assert.Equal(t, "10:00", d.Elapsed)
	assert.Equal(t, "32:30", d.Total)
	assert.InDelta(t, 0.3077, d.Fraction, 0.001)
}

func TestNewTimerDisplay_FixedRoundHasNoRepeatCounter(t *testing.T) {
	d := NewTimerDisplay(runningSnapshot(0, 1, 0, 300))

	assert.Equal(t, "Warm-up", d.RoundLine)
	assert.Equal(t, "Warm-up", d.TagLabel)
	assert.Equal(t, "8.0 km/h (7'30 /km)", d.SpeedLine)
	assert.Equal(t, "05:00", d.Remaining)
}

func TestNewTimerDisplay_IdleAndCompleted(t *testing.T) {
	idle := NewTimerDisplay(engine.Snapshot{Status: engine.StatusIdle})
	assert.Equal(t, "Ready", idle.TagLabel)
	assert.Equal(t, "Ready", idle.StatusLabel)
	assert.Empty(t, idle.RoundLine)
	assert.Empty(t, idle.SpeedLine)

	snap := runningSnapshot(3, 1, 0, 0)
	snap.Status = engine.StatusCompleted
	done := NewTimerDisplay(snap)
	assert.Equal(t, "Finished", done.TagLabel)
	assert.Equal(t, "Finished", done.StatusLabel)
	assert.Equal(t, "00:00", done.Remaining)
	assert.Empty(t, done.SpeedLine)
}

func TestKeyHint(t *testing.T) {
	assert.Equal(t, "Space Start", KeyHint(engine.StatusIdle))
	assert.Equal(t, "Space Pause  |  R Reset", KeyHint(engine.StatusRunning))
	assert.Equal(t, "Space Resume  |  R Reset", KeyHint(engine.StatusPaused))
	assert.Equal(t, "R Reset", KeyHint(engine.StatusCompleted))
	assert.Equal(t, "[yellow]Space[white] Pause  |  [yellow]R[white] Reset", hintMarkup(KeyHint(engine.StatusRunning)))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "██░░", ProgressBar(0.5, 4))
	assert.Equal(t, "░░░", ProgressBar(-1, 3))
	assert.Equal(t, "██", ProgressBar(2, 2))
	assert.Equal(t, "", ProgressBar(0.5, 0))
}

func TestPlanLines(t *testing.T) {
	plan := interval.Plan{Rounds: []interval.Round{{
		ID:          "r",
		Name:        "Intervals",
		RepeatCount: 2,
		Blocks: []interval.Block{
			{ID: "f", Tag: interval.TagFast, Duration: 60, Speed: 12},
			{ID: "s", Tag: interval.TagSlow, Duration: 60, Speed: 6},
		},
	}}}

	assert.Equal(t, []string{
		"Intervals x2  04:00",
		"  Fast      01:00 @ 12.0 km/h (5'00 /km)",
		"  Slow      01:00 @ 6.0 km/h (10'00 /km)",
		"Total 4 min (04:00)",
	}, PlanLines(plan))

	assert.Equal(t, []string{"No rounds"}, PlanLines(interval.Plan{}))

	lines := PlanLines(interval.DefaultPlan())
	assert.Equal(t, "Warm-up  05:00", lines[0])
	assert.Equal(t, "Total 32 min (32:30)", lines[len(lines)-1])
}

func TestHistoryLines(t *testing.T) {
	start := time.Date(2026, 4, 1, 6, 30, 0, 0, time.UTC)
	records := []history.WorkoutRecord{{
		ID:            "a",
		StartTime:     start,
		Status:        history.StatusCompleted,
		TotalDuration: 1800,
		CompletedRounds: []history.CompletedRound{{
			RoundID:          "round-1",
			RoundName:        "Round 1",
			CompletedRepeats: 1,
			Blocks: []history.CompletedBlock{
				{BlockID: "f", Tag: interval.TagFast, PlannedDuration: 900, ActualDuration: 900, PlannedSpeed: 12},
				{BlockID: "s", Tag: interval.TagSlow, PlannedDuration: 900, ActualDuration: 900, PlannedSpeed: 8},
			},
		}},
	}}
	loc := time.FixedZone("plus2", 2*3600)

	lines := HistoryLines(history.ComputeStats(records), history.AllDailyRecords(records, loc), loc)
	require.Len(t, lines, 5)
	assert.Equal(t, "Workouts 1  |  Time 30 min  |  Distance 5.00 km", lines[0])
	assert.Equal(t, "Average 30:00  |  Longest 30:00  |  Shortest 30:00", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "2026-04-01  1 rounds  30 min", lines[3])
	assert.Equal(t, "  08:30  completed 30:00  5.00 km", lines[4])
}

func TestHistoryLines_Empty(t *testing.T) {
	assert.Equal(t, []string{
		"Workouts 0  |  Time 0 min  |  Distance 0.00 km",
		"",
		"No workouts yet",
	}, HistoryLines(history.Stats{}, nil, nil))
}

func TestTreadmillLine(t *testing.T) {
	assert.Equal(t, "", TreadmillLine(nil))
	assert.Equal(t, "Treadmill mock disconnected", TreadmillLine(&treadmill.State{Address: "mock"}))
	assert.Equal(t, "Treadmill mock running at 12.0 km/h",
		TreadmillLine(&treadmill.State{Address: "mock", Connected: true, Running: true, TargetSpeedKmh: 12}))
	assert.Equal(t, "Treadmill mock stopped (last error: gatt busy)",
		TreadmillLine(&treadmill.State{Address: "mock", Connected: true, LastError: "gatt busy"}))
}
