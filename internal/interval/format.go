package interval

import "fmt"

// FormatClock formats seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatPace converts a speed in km/h to a running pace in minutes per km,
// e.g. 12 km/h -> 5'00. Zero or negative speed has no pace.
func FormatPace(kmh float64) string {
	if kmh <= 0 {
		return "-"
	}
	minutesPerKm := 60 / kmh
	mins := int(minutesPerKm)
	secs := int((minutesPerKm - float64(mins)) * 60)
	return fmt.Sprintf("%d'%02d", mins, secs)
}

// FormatDuration formats a duration for summaries, e.g. "1h 5m" or "25 min"
func FormatDuration(seconds int) string {
	minutes := seconds / 60
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%d min", minutes)
}

// FormatSpeed formats a target speed with one decimal place
func FormatSpeed(kmh float64) string {
	return fmt.Sprintf("%.1f km/h", kmh)
}
