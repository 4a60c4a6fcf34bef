package history

import (
	"sort"
	"time"
)

// DateLayout is the calendar day key used for daily grouping
const DateLayout = "2006-01-02"

// Stats summarises completed workouts
type Stats struct {
	TotalWorkouts   int     `json:"totalWorkouts"`
	TotalDuration   int     `json:"totalDuration"`
	TotalDistance   float64 `json:"totalDistance"` // km, estimated from planned speed
	CompletedRounds int     `json:"completedRounds"`
	AverageDuration float64 `json:"averageDuration"`
	LongestWorkout  int     `json:"longestWorkout"`
	ShortestWorkout int     `json:"shortestWorkout"`
}

// DailyRecord groups the records started on one calendar day
type DailyRecord struct {
	Date          string          `json:"date"`
	Records       []WorkoutRecord `json:"records"`
	TotalDuration int             `json:"totalDuration"` // completed records only
	TotalRounds   int             `json:"totalRounds"`
}

// ComputeStats aggregates every record with status completed. Other records
// are ignored.
func ComputeStats(records []WorkoutRecord) Stats {
	var stats Stats
	for _, r := range records {
		if r.Status != StatusCompleted {
			continue
		}
		if stats.TotalWorkouts == 0 || r.TotalDuration > stats.LongestWorkout {
			stats.LongestWorkout = r.TotalDuration
		}
		if stats.TotalWorkouts == 0 || r.TotalDuration < stats.ShortestWorkout {
			stats.ShortestWorkout = r.TotalDuration
		}
		stats.TotalWorkouts++
		stats.TotalDuration += r.TotalDuration
		stats.CompletedRounds += len(r.CompletedRounds)
		stats.TotalDistance += r.DistanceKm()
	}
	if stats.TotalWorkouts > 0 {
		stats.AverageDuration = float64(stats.TotalDuration) / float64(stats.TotalWorkouts)
	}
	return stats
}

// DayKey returns the calendar date of t in loc. A nil loc means UTC.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// DailyRecords returns the records whose start time falls on date (YYYY-MM-DD) in loc
func DailyRecords(records []WorkoutRecord, date string, loc *time.Location) DailyRecord {
	day := DailyRecord{Date: date, Records: []WorkoutRecord{}}
	for _, r := range records {
		if DayKey(r.StartTime, loc) == date {
			day.add(r)
		}
	}
	return day
}

// AllDailyRecords groups records by start date, newest date first. Records
// keep their input order within a day.
func AllDailyRecords(records []WorkoutRecord, loc *time.Location) []DailyRecord {
	byDate := make(map[string]*DailyRecord)
	for _, r := range records {
		key := DayKey(r.StartTime, loc)
		day, ok := byDate[key]
		if !ok {
			day = &DailyRecord{Date: key}
			byDate[key] = day
		}
		day.add(r)
	}

	days := make([]DailyRecord, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date > days[j].Date
	})
	return days
}

func (d *DailyRecord) add(r WorkoutRecord) {
	d.Records = append(d.Records, r)
	if r.Status == StatusCompleted {
		d.TotalDuration += r.TotalDuration
	}
	d.TotalRounds += len(r.CompletedRounds)
}

// SortNewestFirst orders records by start time, most recent first
func SortNewestFirst(records []WorkoutRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
}
