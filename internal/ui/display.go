package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/treadmill"
)

// TimerDisplay holds the text of the timer screen for one snapshot. It is
// independent of the UI framework.
type TimerDisplay struct {
	Status       engine.Status
	StatusLabel  string
	Tag          interval.BlockTag // empty when there is no current block
	TagLabel     string
	Remaining    string // mm:ss
	RoundLine    string // round name with (repeat/count) unless fixed
	SpeedLine    string // target speed with pace, empty without a block
	RoundCounter string // "Round i / n"
	Fraction     float64
	Elapsed      string
	Total        string
}

// NewTimerDisplay builds the timer screen text for snap
func NewTimerDisplay(snap engine.Snapshot) TimerDisplay {
	d := TimerDisplay{
		Status:       snap.Status,
		StatusLabel:  StatusLabel(snap.Status),
		TagLabel:     "Ready",
		Remaining:    interval.FormatClock(snap.Position.RemainingSeconds),
		RoundCounter: fmt.Sprintf("Round %d / %d", snap.RoundNumber, snap.RoundCount),
		Fraction:     snap.Progress.Fraction,
		Elapsed:      interval.FormatClock(snap.Progress.Elapsed),
		Total:        interval.FormatClock(snap.Progress.Total),
	}

	if snap.Status == engine.StatusCompleted {
		d.TagLabel = "Finished"
		d.Remaining = interval.FormatClock(0)
		return d
	}

	if snap.Round != nil {
		d.RoundLine = snap.Round.Name
		if !snap.Round.IsFixed {
			d.RoundLine += fmt.Sprintf(" (%d/%d)", snap.Position.RepeatIndex, snap.Round.Repeats())
		}
	}
	if snap.Block != nil {
		d.Tag = snap.Block.Tag
		d.TagLabel = snap.Block.Tag.Label()
		d.SpeedLine = fmt.Sprintf("%s (%s /km)", interval.FormatSpeed(snap.Block.Speed), interval.FormatPace(snap.Block.Speed))
	}
	return d
}

// StatusLabel returns the human readable run status
func StatusLabel(status engine.Status) string {
	switch status {
	case engine.StatusIdle:
		return "Ready"
	case engine.StatusRunning:
		return "Running"
	case engine.StatusPaused:
		return "Paused"
	case engine.StatusCompleted:
		return "Finished"
	default:
		return string(status)
	}
}

// KeyHint lists the timer keys that make sense for status
func KeyHint(status engine.Status) string {
	switch status {
	case engine.StatusRunning:
		return "Space Pause  |  R Reset"
	case engine.StatusPaused:
		return "Space Resume  |  R Reset"
	case engine.StatusCompleted:
		return "R Reset"
	default:
		return "Space Start"
	}
}

// ProgressBar renders fraction as a bar of width cells
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// PlanLines describes every round and block of plan, ending with the total
func PlanLines(plan interval.Plan) []string {
	if len(plan.Rounds) == 0 {
		return []string{"No rounds"}
	}

	lines := make([]string, 0)
	for _, round := range plan.Rounds {
		title := round.Name
		if !round.IsFixed {
			title += fmt.Sprintf(" x%d", round.Repeats())
		}
		lines = append(lines, fmt.Sprintf("%s  %s", title, interval.FormatClock(round.TotalSeconds())))
		for _, block := range round.Blocks {
			lines = append(lines, fmt.Sprintf("  %-9s %s @ %s (%s /km)",
				block.Tag.Label(), interval.FormatClock(block.Duration),
				interval.FormatSpeed(block.Speed), interval.FormatPace(block.Speed)))
		}
	}
	total := plan.TotalSeconds()
	lines = append(lines, fmt.Sprintf("Total %s (%s)", interval.FormatDuration(total), interval.FormatClock(total)))
	return lines
}

// HistoryLines describes the totals and then each day, newest first, with
// its records in loc
func HistoryLines(stats history.Stats, days []history.DailyRecord, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}

	lines := []string{
		fmt.Sprintf("Workouts %d  |  Time %s  |  Distance %.2f km", stats.TotalWorkouts, interval.FormatDuration(stats.TotalDuration), stats.TotalDistance),
	}
	if stats.TotalWorkouts > 0 {
		lines = append(lines, fmt.Sprintf("Average %s  |  Longest %s  |  Shortest %s",
			interval.FormatClock(int(stats.AverageDuration)),
			interval.FormatClock(stats.LongestWorkout),
			interval.FormatClock(stats.ShortestWorkout)))
	}

	if len(days) == 0 {
		return append(lines, "", "No workouts yet")
	}
	for _, day := range days {
		lines = append(lines, "", fmt.Sprintf("%s  %d rounds  %s", day.Date, day.TotalRounds, interval.FormatDuration(day.TotalDuration)))
		for _, r := range day.Records {
			lines = append(lines, fmt.Sprintf("  %s  %-9s %s  %.2f km",
				r.StartTime.In(loc).Format("15:04"), r.Status, interval.FormatClock(r.TotalDuration), r.DistanceKm()))
		}
	}
	return lines
}

// TreadmillLine summarises the treadmill state, empty when there is none
func TreadmillLine(state *treadmill.State) string {
	if state == nil {
		return ""
	}
	if !state.Connected {
		return fmt.Sprintf("Treadmill %s disconnected", state.Address)
	}
	line := fmt.Sprintf("Treadmill %s", state.Address)
	if state.Running {
		line += fmt.Sprintf(" running at %s", interval.FormatSpeed(state.TargetSpeedKmh))
	} else {
		line += " stopped"
	}
	if state.LastError != "" {
		line += fmt.Sprintf(" (last error: %s)", state.LastError)
	}
	return line
}
