package mapview

import (
	"fmt"
	"math"
)

// FormatDistance renders meters as kilometres with one decimal, or "N/A".
func FormatDistance(meters *float64) string {
	if meters == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f km", *meters/1000)
}

// FormatDuration renders seconds as "N min" or "H h M min", or "N/A".
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	mins := int(math.Round(*seconds / 60))
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	return fmt.Sprintf("%d h %d min", mins/60, mins%60)
}

// FormatScore renders a score with three decimals, or "" when absent.
func FormatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *score)
}
