package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/interval"
)

func record(id string, start time.Time, seconds int, status Status, rounds ...CompletedRound) WorkoutRecord {
	end := start.Add(time.Duration(seconds) * time.Second)
	return WorkoutRecord{
		ID:              id,
		StartTime:       start,
		EndTime:         &end,
		CompletedRounds: rounds,
		TotalDuration:   seconds,
		Status:          status,
	}
}

func round(blocks ...CompletedBlock) CompletedRound {
	return CompletedRound{RoundID: "r", RoundName: "Round", CompletedRepeats: 1, Blocks: blocks}
}

func block(speed float64, actual int) CompletedBlock {
	return CompletedBlock{BlockID: "b", Tag: interval.TagFast, PlannedDuration: actual, ActualDuration: actual, PlannedSpeed: speed}
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))

	cancelled := record("c", time.Now(), 100, StatusCancelled, round(block(10, 100)))
	assert.Equal(t, Stats{}, ComputeStats([]WorkoutRecord{cancelled}))
}

func TestComputeStats_CompletedOnly(t *testing.T) {
	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	records := []WorkoutRecord{
		// 12 km/h for 30 min = 6 km, plus 6 km/h for 10 min = 1 km
		record("a", start, 2400, StatusCompleted, round(block(12, 1800)), round(block(6, 600))),
		record("b", start.Add(24*time.Hour), 1200, StatusCompleted, round(block(10, 1200))),
		record("c", start.Add(48*time.Hour), 5000, StatusCancelled, round(block(20, 5000))),
	}

	stats := ComputeStats(records)

	assert.Equal(t, 2, stats.TotalWorkouts)
	assert.Equal(t, 3600, stats.TotalDuration)
	assert.InDelta(t, 9.0, stats.TotalDistance, 1e-9)
	assert.Equal(t, 3, stats.CompletedRounds)
	assert.InDelta(t, 1800.0, stats.AverageDuration, 1e-9)
	assert.Equal(t, 2400, stats.LongestWorkout)
	assert.Equal(t, 1200, stats.ShortestWorkout)
}

func TestDailyRecords(t *testing.T) {
	day := time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)
	records := []WorkoutRecord{
		record("late", day, 600, StatusCompleted, round(), round()),
		record("cancelled", day.Add(-time.Hour), 300, StatusCancelled, round()),
		record("next", day.Add(time.Hour), 900, StatusCompleted, round()),
	}

	daily := DailyRecords(records, "2026-05-10", nil)
	require.Len(t, daily.Records, 2)
	assert.Equal(t, "late", daily.Records[0].ID)
	assert.Equal(t, 600, daily.TotalDuration, "cancelled runs do not add time")
	assert.Equal(t, 3, daily.TotalRounds, "cancelled runs still count rounds")

	empty := DailyRecords(records, "2020-01-01", nil)
	assert.Equal(t, "2020-01-01", empty.Date)
	assert.NotNil(t, empty.Records)
	assert.Empty(t, empty.Records)
}

func TestDailyRecords_Location(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	start := time.Date(2026, 5, 10, 20, 0, 0, 0, time.UTC) // 05:00 on the 11th in KST
	records := []WorkoutRecord{record("r", start, 60, StatusCompleted)}

	assert.Len(t, DailyRecords(records, "2026-05-10", time.UTC).Records, 1)
	assert.Len(t, DailyRecords(records, "2026-05-11", seoul).Records, 1)
	assert.Empty(t, DailyRecords(records, "2026-05-10", seoul).Records)
}

func TestAllDailyRecords_NewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	records := []WorkoutRecord{
		record("d1-a", base, 100, StatusCompleted),
		record("d3", base.Add(48*time.Hour), 300, StatusCompleted),
		record("d1-b", base.Add(2*time.Hour), 50, StatusPaused),
		record("d2", base.Add(24*time.Hour), 200, StatusCompleted, round()),
	}

	days := AllDailyRecords(records, nil)

	require.Len(t, days, 3)
	assert.Equal(t, "2026-01-03", days[0].Date)
	assert.Equal(t, "2026-01-02", days[1].Date)
	assert.Equal(t, "2026-01-01", days[2].Date)
	assert.Equal(t, 1, days[1].TotalRounds)
	require.Len(t, days[2].Records, 2)
	assert.Equal(t, "d1-a", days[2].Records[0].ID)
	assert.Equal(t, 100, days[2].TotalDuration)
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	records := []WorkoutRecord{
		record("old", base, 1, StatusCompleted),
		record("new", base.Add(time.Hour), 1, StatusCompleted),
	}
	SortNewestFirst(records)
	assert.Equal(t, "new", records[0].ID)
}

func TestWorkoutRecord_CloneIsDeep(t *testing.T) {
	rec := record("a", time.Now(), 10, StatusCompleted, round(block(10, 10)))
	rec.Config = interval.DefaultPlan()

	clone := rec.Clone()
	clone.CompletedRounds[0].Blocks[0].ActualDuration = 99
	clone.Config.Rounds[0].Name = "x"
	*clone.EndTime = clone.EndTime.Add(time.Hour)

	assert.Equal(t, 10, rec.CompletedRounds[0].Blocks[0].ActualDuration)
	assert.Equal(t, "Warm-up", rec.Config.Rounds[0].Name)
	assert.NotEqual(t, *rec.EndTime, *clone.EndTime)
	assert.Equal(t, 1, rec.BlockCount())
}
