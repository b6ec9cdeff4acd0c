// Package aggregate derives presentation views from the reconciled
// corpus: weekly load buckets, personal bests, the calendar heatmap and
// year-to-date totals. Everything here is a pure read over the corpus;
// outputs are recomputed per request and never persisted.
package aggregate

import (
	"fmt"
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// Category is the discipline an activity's load is booked under.
type Category string

const (
	CategoryRide  Category = "ride"
	CategoryRun   Category = "run"
	CategoryRow   Category = "row"
	CategoryOther Category = "other"
)

// Classify maps an activity type to its load category. Total: every
// type lands somewhere, so no activity's TSS is ever dropped.
func Classify(activityType string) Category {
	switch activityType {
	case "Ride", "VirtualRide":
		return CategoryRide
	case "Run", "VirtualRun":
		return CategoryRun
	case "Rowing", "Kayaking":
		return CategoryRow
	default:
		return CategoryOther
	}
}

// WeeklyLoad buckets TSS by ISO week over the [from, to] window. Weeks
// with no activity still appear with zero totals; activities outside
// the window are ignored. Buckets are returned oldest first.
func WeeklyLoad(activities []types.ActivityRecord, from, to time.Time) []types.WeeklyBucket {
	if to.Before(from) {
		return nil
	}

	index := make(map[string]int)
	var buckets []types.WeeklyBucket

	// Zero-fill every ISO week the window touches.
	for monday := mondayOf(from); !monday.After(to); monday = monday.AddDate(0, 0, 7) {
		label := weekLabel(monday)
		if _, ok := index[label]; ok {
			continue
		}
		index[label] = len(buckets)
		buckets = append(buckets, types.WeeklyBucket{Week: label})
	}

	for _, a := range activities {
		day := truncateDay(a.StartTime)
		if day.Before(truncateDay(from)) || day.After(truncateDay(to)) {
			continue
		}
		i, ok := index[weekLabel(a.StartTime)]
		if !ok {
			// Window edge: the activity's week starts before the
			// window's first Monday.
			continue
		}
		switch Classify(a.Type) {
		case CategoryRide:
			buckets[i].Ride += a.TSS
		case CategoryRun:
			buckets[i].Run += a.TSS
		case CategoryRow:
			buckets[i].Row += a.TSS
		default:
			buckets[i].Other += a.TSS
		}
	}

	return buckets
}

// weekLabel formats the ISO week of t, e.g. "2026-W07".
func weekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// mondayOf returns the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	t = truncateDay(t)
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return t.AddDate(0, 0, -offset)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
