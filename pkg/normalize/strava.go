package normalize

import (
	"fmt"
	"log/slog"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// StravaActivity is the wire shape of a Strava summary activity.
type StravaActivity struct {
	ID               flexID   `json:"id"`
	Name             *string  `json:"name"`
	Type             *string  `json:"type"`
	SportType        *string  `json:"sport_type"`
	StartDateLocal   string   `json:"start_date_local"`
	MovingTime       *float64 `json:"moving_time"`
	Distance         *float64 `json:"distance"`
	ElevationGain    *float64 `json:"total_elevation_gain"`
	AverageWatts     *float64 `json:"average_watts"`
	WeightedWatts    *float64 `json:"weighted_average_watts"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	MaxHeartrate     *float64 `json:"max_heartrate"`
	AverageSpeed     *float64 `json:"average_speed"`
	AverageCadence   *float64 `json:"average_cadence"`
	Calories         *float64 `json:"calories"`
	DeviceName       *string  `json:"device_name"`
}

// stravaTypeMap folds Strava sport types onto the canonical type set.
// Unknown sports fall through unchanged.
var stravaTypeMap = map[string]string{
	"Ride":           "Ride",
	"VirtualRide":    "VirtualRide",
	"Run":            "Run",
	"VirtualRun":     "VirtualRun",
	"Rowing":         "Rowing",
	"Kayaking":       "Kayaking",
	"WeightTraining": "WeightTraining",
	"Workout":        "Workout",
	"Yoga":           "Yoga",
	"Walk":           "Walk",
	"Hike":           "Hike",
	"Swim":           "Swim",
	"Crossfit":       "Crossfit",
	"Elliptical":     "Cardio",
	"StairStepper":   "Cardio",
}

// StravaActivityRecord converts one Strava payload. Strava carries no
// training-load score, so TSS is zero; identity is prefixed to keep the
// namespace disjoint from intervals ids.
func StravaActivityRecord(p StravaActivity) (types.ActivityRecord, error) {
	if p.ID == "" {
		return types.ActivityRecord{}, fmt.Errorf("%w: strava activity without id", ErrMalformedRecord)
	}
	start, err := parseStartTime(p.StartDateLocal)
	if err != nil {
		return types.ActivityRecord{}, err
	}

	rawType := stringOr(p.SportType, stringOr(p.Type, ""))
	actType, ok := stravaTypeMap[rawType]
	if !ok {
		if rawType == "" {
			actType = "Other"
		} else {
			actType = rawType
		}
	}

	duration := orZero(p.MovingTime)
	distance := orZero(p.Distance)

	rec := types.ActivityRecord{
		ID:         fmt.Sprintf("strava_%s", p.ID),
		StravaID:   string(p.ID),
		Source:     types.SourceStrava,
		Name:       cleanText(stringOr(p.Name, "Activity")),
		Type:       actType,
		StartTime:  start,
		Duration:   duration,
		Distance:   distance,
		Elevation:  orZero(p.ElevationGain),
		AvgPower:   p.AverageWatts,
		NormPower:  p.WeightedWatts,
		AvgHR:      p.AverageHeartrate,
		MaxHR:      p.MaxHeartrate,
		AvgCadence: p.AverageCadence,
		Calories:   p.Calories,
		Device:     cleanText(stringOr(p.DeviceName, "")),
	}
	if p.AverageSpeed != nil && *p.AverageSpeed > 0 {
		pace := 1000 / *p.AverageSpeed
		rec.AvgPace = &pace
	} else {
		rec.AvgPace = paceSecPerKM(duration, distance)
	}
	return rec, nil
}

// StravaActivities normalizes a batch with skip-and-count semantics.
func StravaActivities(logger *slog.Logger, batch []StravaActivity) ([]types.ActivityRecord, int) {
	out := make([]types.ActivityRecord, 0, len(batch))
	dropped := 0
	for _, p := range batch {
		rec, err := StravaActivityRecord(p)
		if err != nil {
			dropped++
			logDropped(logger, types.SourceStrava, err)
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}
