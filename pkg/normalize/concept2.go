package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// Concept2Workout is the wire shape of a Concept2 logbook result.
// Time is in centiseconds.
type Concept2Workout struct {
	ID         flexID          `json:"id"`
	Date       string          `json:"date"`
	Time       *float64        `json:"time"` // centiseconds
	Distance   *float64        `json:"distance"`
	StrokeRate *float64        `json:"stroke_rate"`
	Calories   *float64        `json:"calories_total"`
	HeartRate  concept2HR      `json:"heart_rate"`
	WorkoutRaw json.RawMessage `json:"workout,omitempty"`
}

// concept2HR absorbs the logbook's two heart-rate shapes: an object with
// average/max, or (older results) a bare average number.
type concept2HR struct {
	Average *float64
	Max     *float64
}

func (h *concept2HR) UnmarshalJSON(data []byte) error {
	var obj struct {
		Average *float64 `json:"average"`
		Max     *float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		h.Average = obj.Average
		h.Max = obj.Max
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		h.Average = &n
		return nil
	}
	// Unrecognised shape: treat as unreported rather than failing the
	// whole record.
	h.Average = nil
	h.Max = nil
	return nil
}

// Concept2WorkoutRecord converts one logbook result to its canonical
// shape. A result without a recorded time cannot express a workout and
// is malformed.
func Concept2WorkoutRecord(p Concept2Workout) (types.ActivityRecord, error) {
	if p.Time == nil || *p.Time <= 0 {
		return types.ActivityRecord{}, fmt.Errorf("%w: concept2 result without time", ErrMalformedRecord)
	}
	start, err := parseStartTime(p.Date)
	if err != nil {
		return types.ActivityRecord{}, err
	}

	durationSec := *p.Time / 100
	distance := orZero(p.Distance)

	name := "Concept2 Rowing"
	if distance > 0 {
		name = fmt.Sprintf("Concept2 Rowing - %.0fm", distance)
	} else {
		name = fmt.Sprintf("Concept2 Rowing - %d:%02d", int(durationSec)/60, int(durationSec)%60)
	}

	rec := types.ActivityRecord{
		ID:         fmt.Sprintf("concept2_%s", p.ID),
		Source:     types.SourceConcept2,
		Name:       name,
		Type:       "Rowing",
		StartTime:  start,
		Duration:   durationSec,
		Distance:   distance,
		AvgHR:      p.HeartRate.Average,
		MaxHR:      p.HeartRate.Max,
		AvgCadence: p.StrokeRate,
		Calories:   p.Calories,
		AvgPace:    paceSecPerKM(durationSec, distance),
		Device:     "Concept2 RowErg",
	}
	return rec, nil
}

// Concept2Workouts normalizes a batch with skip-and-count semantics.
func Concept2Workouts(logger *slog.Logger, batch []Concept2Workout) ([]types.ActivityRecord, int) {
	out := make([]types.ActivityRecord, 0, len(batch))
	dropped := 0
	for _, p := range batch {
		rec, err := Concept2WorkoutRecord(p)
		if err != nil {
			dropped++
			logDropped(logger, types.SourceConcept2, err)
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}
