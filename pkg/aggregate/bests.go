package aggregate

import (
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// MethodExtrapolated marks bests derived from a single whole-activity
// average by a fixed pacing model, not from raw sensor streams. The
// corpus only holds per-activity summaries, so this is the only method
// this aggregator produces; it is stamped on every result and results
// of different methods must never be mixed in one view.
const MethodExtrapolated = "extrapolated"

// DefaultBestsWindow is the trailing window personal bests are drawn
// from.
const DefaultBestsWindow = 90 * 24 * time.Hour

// powerBucket is a named duration bucket for cycling power bests.
// Factor scales a whole-ride average power to an estimated best for the
// bucket's duration (short efforts run hotter than the ride average).
type powerBucket struct {
	Label   string
	Seconds float64
	Factor  float64
}

var powerBuckets = []powerBucket{
	{"5s", 5, 2.20},
	{"1m", 60, 1.55},
	{"5m", 300, 1.18},
	{"20m", 1200, 1.05},
	{"60m", 3600, 1.00},
	{"90m", 5400, 0.95},
}

// paceBucket is a named distance bucket for running pace bests.
type paceBucket struct {
	Label  string
	Meters float64
}

var paceBuckets = []paceBucket{
	{"400m", 400},
	{"1k", 1000},
	{"5k", 5000},
	{"10k", 10000},
	{"half", 21097.5},
	{"marathon", 42195},
}

// PowerBests extrapolates the best power per duration bucket from rides
// in the trailing window. Value is watts; higher wins, ties go to the
// most recent ride. A bucket longer than every candidate ride is
// omitted rather than extrapolated upward.
func PowerBests(activities []types.ActivityRecord, now time.Time, window time.Duration) []types.PersonalBest {
	if window <= 0 {
		window = DefaultBestsWindow
	}
	cutoff := now.Add(-window)

	var out []types.PersonalBest
	for _, bucket := range powerBuckets {
		var best *types.PersonalBest
		for _, a := range activities {
			if Classify(a.Type) != CategoryRide || a.AvgPower == nil {
				continue
			}
			if a.StartTime.Before(cutoff) || a.StartTime.After(now) {
				continue
			}
			if a.Duration < bucket.Seconds {
				continue
			}
			value := *a.AvgPower * bucket.Factor
			if better := best == nil ||
				value > best.Value ||
				(value == best.Value && a.Date() > best.AchievedAt); better {
				best = &types.PersonalBest{
					Label:      bucket.Label,
					Value:      value,
					AchievedAt: a.Date(),
					ActivityID: a.Identity(),
					Method:     MethodExtrapolated,
				}
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	return out
}

// PaceBests estimates the fastest time per distance bucket from runs in
// the trailing window, assuming even pacing across each run. Value is
// seconds for the bucket distance; lower wins, ties go to the most
// recent run. Runs shorter than the bucket distance never qualify.
func PaceBests(activities []types.ActivityRecord, now time.Time, window time.Duration) []types.PersonalBest {
	if window <= 0 {
		window = DefaultBestsWindow
	}
	cutoff := now.Add(-window)

	var out []types.PersonalBest
	for _, bucket := range paceBuckets {
		var best *types.PersonalBest
		for _, a := range activities {
			if Classify(a.Type) != CategoryRun {
				continue
			}
			if a.StartTime.Before(cutoff) || a.StartTime.After(now) {
				continue
			}
			if a.Distance < bucket.Meters || a.Duration <= 0 {
				continue
			}
			value := a.Duration * (bucket.Meters / a.Distance)
			if better := best == nil ||
				value < best.Value ||
				(value == best.Value && a.Date() > best.AchievedAt); better {
				best = &types.PersonalBest{
					Label:      bucket.Label,
					Value:      value,
					AchievedAt: a.Date(),
					ActivityID: a.Identity(),
					Method:     MethodExtrapolated,
				}
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	return out
}
