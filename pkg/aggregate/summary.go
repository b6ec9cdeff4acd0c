package aggregate

import (
	"math"
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// YearToDate sums volume for the calendar year containing now, split by
// discipline. Distance is reported in whole kilometres, time in hours
// to one decimal.
func YearToDate(activities []types.ActivityRecord, now time.Time) types.YTDTotals {
	year := now.Year()
	out := types.YTDTotals{Year: year}

	for _, a := range activities {
		if a.StartTime.Year() != year || a.StartTime.After(now) {
			continue
		}
		addTotals(&out.Total, a)
		switch Classify(a.Type) {
		case CategoryRide:
			addTotals(&out.Cycling, a)
		case CategoryRun:
			addTotals(&out.Running, a)
		case CategoryRow:
			addTotals(&out.Rowing, a)
		}
	}

	for _, c := range []*types.CategoryTotals{&out.Total, &out.Cycling, &out.Running, &out.Rowing} {
		c.DistanceKM = math.Round(c.DistanceKM)
		c.Hours = math.Round(c.Hours*10) / 10
	}
	return out
}

func addTotals(c *types.CategoryTotals, a types.ActivityRecord) {
	c.DistanceKM += a.Distance / 1000
	c.Hours += a.Duration / 3600
	c.TSS += a.TSS
	c.Count++
}

// Athlete extracts the most recent athlete state from the corpus.
// Activities are newest-first, so the first record carrying a value
// wins; weight falls back to the newest wellness entry.
func Athlete(activities []types.ActivityRecord, wellness []types.WellnessRecord) types.AthleteSummary {
	var out types.AthleteSummary
	for _, a := range activities {
		if out.Weight == nil && a.Weight != nil {
			out.Weight = a.Weight
		}
		if out.FTP == nil && a.FTP != nil {
			out.FTP = a.FTP
		}
		if out.WPrime == nil && a.WPrime != nil {
			out.WPrime = a.WPrime
		}
		if out.Weight != nil && out.FTP != nil && out.WPrime != nil {
			break
		}
	}
	if out.Weight == nil {
		// Wellness is oldest-first.
		for i := len(wellness) - 1; i >= 0; i-- {
			if wellness[i].Weight != nil {
				out.Weight = wellness[i].Weight
				break
			}
		}
	}
	return out
}

// FitnessTrend projects the wellness series onto the CTL/ATL/TSB trend
// for [from, to], oldest first. Days without a wellness record are
// omitted; the trend is sparse where reporting was.
func FitnessTrend(wellness []types.WellnessRecord, from, to time.Time) []types.TrendPoint {
	fromDate := from.Format(types.DateLayout)
	toDate := to.Format(types.DateLayout)

	var out []types.TrendPoint
	for _, w := range wellness {
		if w.Date < fromDate || w.Date > toDate {
			continue
		}
		point := types.TrendPoint{
			Date: w.Date,
			CTL:  w.CTL,
			ATL:  w.ATL,
			TSB:  w.TSB,
		}
		if w.DailyTSS != nil {
			point.TSS = *w.DailyTSS
		}
		out = append(out, point)
	}
	return out
}
