package aggregate

import (
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// heatmapThresholds map daily TSS to intensity levels 1..5. A day must
// exceed the threshold to reach the level; zero TSS is always level 0.
var heatmapThresholds = []float64{0, 40, 80, 120, 180}

// HeatmapLevel maps a day's total TSS to its 0-5 intensity level.
func HeatmapLevel(tss float64) int {
	level := 0
	for _, threshold := range heatmapThresholds {
		if tss > threshold {
			level++
		}
	}
	return level
}

// Heatmap produces one cell per calendar day in [from, to], oldest
// first. Days with no activity appear as level 0. Deterministic for a
// given corpus and window.
func Heatmap(activities []types.ActivityRecord, from, to time.Time) []types.HeatmapCell {
	if to.Before(from) {
		return nil
	}

	tssByDate := make(map[string]float64)
	for _, a := range activities {
		tssByDate[a.Date()] += a.TSS
	}

	var cells []types.HeatmapCell
	for day := truncateDay(from); !day.After(truncateDay(to)); day = day.AddDate(0, 0, 1) {
		date := day.Format(types.DateLayout)
		tss := tssByDate[date]
		cells = append(cells, types.HeatmapCell{
			Date:  date,
			Level: HeatmapLevel(tss),
			TSS:   tss,
		})
	}
	return cells
}
