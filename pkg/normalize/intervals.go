package normalize

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// IntervalsActivity is the wire shape of an intervals.icu activity.
// Pointer fields distinguish "not reported" from a measured zero.
type IntervalsActivity struct {
	ID                 flexID   `json:"id"`
	StravaID           flexID   `json:"strava_id"`
	Source             string   `json:"source"`
	Name               *string  `json:"name"`
	Type               *string  `json:"type"`
	StartDateLocal     string   `json:"start_date_local"`
	MovingTime         *float64 `json:"moving_time"`
	ElapsedTime        *float64 `json:"elapsed_time"`
	Distance           *float64 `json:"distance"`
	TotalElevationGain *float64 `json:"total_elevation_gain"`
	ICUAverageWatts    *float64 `json:"icu_average_watts"`
	ICUWeightedWatts   *float64 `json:"icu_weighted_avg_watts"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	MaxHeartrate       *float64 `json:"max_heartrate"`
	AverageSpeed       *float64 `json:"average_speed"` // m/s
	AverageCadence     *float64 `json:"average_cadence"`
	Calories           *float64 `json:"calories"`
	ICUTrainingLoad    *float64 `json:"icu_training_load"`
	ICUIntensity       *float64 `json:"icu_intensity"` // percent, 0-150
	ICUFTP             *float64 `json:"icu_ftp"`
	ICUWPrime          *float64 `json:"icu_w_prime"`
	ICUWeight          *float64 `json:"icu_weight"`
	DeviceName         *string  `json:"device_name"`

	// Intervals emits placeholder stubs for activities it knows about
	// but has not ingested; they carry a note and no type.
	Note *string `json:"_note"`
}

// IntervalsWellness is the wire shape of one intervals.icu wellness day.
// The document id doubles as the calendar date.
type IntervalsWellness struct {
	ID           string   `json:"id"` // YYYY-MM-DD
	CTL          *float64 `json:"ctl"`
	ATL          *float64 `json:"atl"`
	TSB          *float64 `json:"tsb"`
	TrainingLoad *float64 `json:"trainingLoad"`
	HRV          *float64 `json:"hrv"`
	RestingHR    *float64 `json:"restingHR"`
	SleepSecs    *float64 `json:"sleepSecs"`
	Weight       *float64 `json:"weight"`
	Fatigue      *float64 `json:"fatigue"`
	Mood         *float64 `json:"mood"`
}

// IntervalsActivityRecord converts one intervals.icu activity payload to
// its canonical form. Stub payloads and payloads without a parsable
// start time fail with ErrMalformedRecord.
func IntervalsActivityRecord(p IntervalsActivity) (types.ActivityRecord, error) {
	if p.Note != nil || p.Type == nil || *p.Type == "" {
		return types.ActivityRecord{}, fmt.Errorf("%w: intervals stub without type", ErrMalformedRecord)
	}
	start, err := parseStartTime(p.StartDateLocal)
	if err != nil {
		return types.ActivityRecord{}, err
	}

	duration := orZero(p.MovingTime)
	if duration == 0 {
		duration = orZero(p.ElapsedTime)
	}
	distance := orZero(p.Distance)

	rec := types.ActivityRecord{
		ID:         string(p.ID),
		StravaID:   string(p.StravaID),
		Source:     types.SourceIntervals,
		Name:       cleanText(stringOr(p.Name, "Activity")),
		Type:       *p.Type,
		StartTime:  start,
		Duration:   duration,
		Distance:   distance,
		Elevation:  orZero(p.TotalElevationGain),
		AvgPower:   p.ICUAverageWatts,
		NormPower:  p.ICUWeightedWatts,
		AvgHR:      p.AverageHeartrate,
		MaxHR:      p.MaxHeartrate,
		AvgCadence: p.AverageCadence,
		Calories:   p.Calories,
		TSS:        round(orZero(p.ICUTrainingLoad)),
		FTP:        p.ICUFTP,
		WPrime:     p.ICUWPrime,
		Weight:     p.ICUWeight,
		Device:     cleanText(stringOr(p.DeviceName, "")),
	}

	if p.ICUIntensity != nil {
		ifVal := *p.ICUIntensity / 100
		rec.IntensityFactor = &ifVal
	}
	if p.AverageSpeed != nil && *p.AverageSpeed > 0 {
		pace := 1000 / *p.AverageSpeed
		rec.AvgPace = &pace
	} else {
		rec.AvgPace = paceSecPerKM(duration, distance)
	}

	return rec, nil
}

// IntervalsActivities normalizes a fetched batch, skipping malformed
// payloads. Returns the canonical records, the strava ids the batch
// covers without yielding a record (stubs carry the link before the
// full activity is ingested), and the dropped count.
func IntervalsActivities(logger *slog.Logger, batch []IntervalsActivity) ([]types.ActivityRecord, []string, int) {
	out := make([]types.ActivityRecord, 0, len(batch))
	var covered []string
	dropped := 0
	for _, p := range batch {
		rec, err := IntervalsActivityRecord(p)
		if err != nil {
			if p.Note != nil && p.StravaID != "" {
				covered = append(covered, string(p.StravaID))
			}
			dropped++
			logDropped(logger, types.SourceIntervals, err)
			continue
		}
		out = append(out, rec)
	}
	return out, covered, dropped
}

// WellnessRecord converts one wellness payload. The document id must be
// a calendar date; anything else is malformed.
func WellnessRecord(p IntervalsWellness) (types.WellnessRecord, error) {
	if _, err := time.Parse(types.DateLayout, p.ID); err != nil {
		return types.WellnessRecord{}, fmt.Errorf("%w: wellness id %q is not a date", ErrMalformedRecord, p.ID)
	}

	rec := types.WellnessRecord{
		Date:      p.ID,
		CTL:       p.CTL,
		ATL:       p.ATL,
		TSB:       p.TSB,
		DailyTSS:  p.TrainingLoad,
		HRV:       p.HRV,
		RestingHR: p.RestingHR,
		Weight:    p.Weight,
		Fatigue:   p.Fatigue,
		Mood:      p.Mood,
	}
	if p.SleepSecs != nil && *p.SleepSecs > 0 {
		hours := round(*p.SleepSecs/3600*10) / 10
		rec.Sleep = &hours
	}
	return rec, nil
}

// WellnessRecords normalizes a wellness batch with skip-and-count
// semantics, mirroring IntervalsActivities.
func WellnessRecords(logger *slog.Logger, batch []IntervalsWellness) ([]types.WellnessRecord, int) {
	out := make([]types.WellnessRecord, 0, len(batch))
	dropped := 0
	for _, p := range batch {
		rec, err := WellnessRecord(p)
		if err != nil {
			dropped++
			logDropped(logger, types.SourceIntervals, err)
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
