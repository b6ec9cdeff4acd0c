// Package types defines the canonical record shapes shared by every layer
// of the dashboard pipeline. Upstream payloads are converted to these
// shapes at the boundary (pkg/normalize) so nothing downstream ever sees
// a source-specific field name.
package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for wellness identities,
// fetch windows and aggregate cells.
const DateLayout = "2006-01-02"

// Source tags on ActivityRecord.Source name the upstream feed a record
// was normalized from.
const (
	SourceIntervals = "INTERVALS"
	SourceStrava    = "STRAVA"
	SourceConcept2  = "CONCEPT2"
)

// ActivityRecord is one activity in its canonical shape.
//
// Optional metrics are pointers: nil means the upstream source did not
// report the value. Zero is a valid measurement for duration and distance
// and must never stand in for "unknown".
type ActivityRecord struct {
	ID        string    `json:"id"`
	StravaID  string    `json:"strava_id,omitempty"`
	Source    string    `json:"source"`
	Name      string    `json:"name,omitempty"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"start_time"`
	Duration  float64   `json:"duration"` // seconds
	Distance  float64   `json:"distance"` // meters
	Elevation float64   `json:"elevation,omitempty"`

	AvgPower        *float64 `json:"avg_power,omitempty"` // watts
	NormPower       *float64 `json:"norm_power,omitempty"`
	AvgHR           *float64 `json:"avg_hr,omitempty"`
	MaxHR           *float64 `json:"max_hr,omitempty"`
	AvgPace         *float64 `json:"avg_pace,omitempty"` // seconds per km
	AvgCadence      *float64 `json:"avg_cadence,omitempty"`
	Calories        *float64 `json:"calories,omitempty"`
	TSS             float64  `json:"tss"`
	IntensityFactor *float64 `json:"intensity_factor,omitempty"`

	// Athlete state snapshotted by intervals.icu onto the activity.
	FTP    *float64 `json:"ftp,omitempty"`
	WPrime *float64 `json:"w_prime,omitempty"`
	Weight *float64 `json:"weight,omitempty"`

	Device string `json:"device,omitempty"`
}

// Identity returns the key under which repeated fetches of the same
// activity are recognised. Records without an upstream id fall back to
// the (start_time, type, duration) composite.
func (a ActivityRecord) Identity() string {
	if a.ID != "" {
		return a.ID
	}
	return fmt.Sprintf("%s|%s|%.0f", a.StartTime.UTC().Format(time.RFC3339), a.Type, a.Duration)
}

// Date returns the activity's calendar day.
func (a ActivityRecord) Date() string {
	return a.StartTime.Format(DateLayout)
}

// WellnessRecord is one calendar day of wellness state. Date is the
// identity; at most one record exists per day and later fetches replace
// earlier ones wholesale. All metrics are sparse upstream.
type WellnessRecord struct {
	Date      string   `json:"date"` // YYYY-MM-DD
	CTL       *float64 `json:"ctl,omitempty"`
	ATL       *float64 `json:"atl,omitempty"`
	TSB       *float64 `json:"tsb,omitempty"`
	DailyTSS  *float64 `json:"tss,omitempty"`
	HRV       *float64 `json:"hrv,omitempty"`
	RestingHR *float64 `json:"resting_hr,omitempty"`
	Sleep     *float64 `json:"sleep,omitempty"` // hours
	Weight    *float64 `json:"weight,omitempty"`
	Fatigue   *float64 `json:"fatigue,omitempty"`
	Mood      *float64 `json:"mood,omitempty"`
}

// Corpus is the reconciled dataset: activities sorted newest-first,
// wellness sorted oldest-first. It is what the cache persists and what
// the aggregators read.
type Corpus struct {
	Activities []ActivityRecord `json:"activities"`
	Wellness   []WellnessRecord `json:"wellness"`
}

// SyncMeta records the outcome of the last successful sync. It is
// written after the corpus, never before, so a half-finished persist can
// only cause an extra refetch, not a false freshness signal.
type SyncMeta struct {
	LastSync      time.Time `json:"last_sync"`
	CacheKey      string    `json:"cache_key"`
	OldestFetched string    `json:"oldest_fetched"`
	ActivityCount int       `json:"activity_count"`
	WellnessCount int       `json:"wellness_count"`
}

// WeeklyBucket is one ISO week of training load split by discipline.
// Derived on demand, never persisted.
type WeeklyBucket struct {
	Week  string  `json:"week"` // e.g. 2026-W07
	Ride  float64 `json:"ride"`
	Run   float64 `json:"run"`
	Row   float64 `json:"row"`
	Other float64 `json:"other"`
}

// Total is the week's combined TSS across all categories.
func (w WeeklyBucket) Total() float64 {
	return w.Ride + w.Run + w.Row + w.Other
}

// PersonalBest is the extremal value for one named duration or distance
// bucket. Method records how the value was obtained; results produced by
// different methods are never mixed within one run.
type PersonalBest struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"` // watts for power buckets, seconds for distance buckets
	AchievedAt string  `json:"achieved_at"` // YYYY-MM-DD
	ActivityID string  `json:"activity_id"`
	Method     string  `json:"method"`
}

// HeatmapCell is one calendar day of the intensity heatmap.
type HeatmapCell struct {
	Date  string  `json:"date"`
	Level int     `json:"level"` // 0-5
	TSS   float64 `json:"tss"`
}

// CategoryTotals accumulates year-to-date volume for one discipline.
type CategoryTotals struct {
	DistanceKM float64 `json:"distance"`
	Hours      float64 `json:"hours"`
	TSS        float64 `json:"tss"`
	Count      int     `json:"count"`
}

// YTDTotals is the year-to-date summary across disciplines.
type YTDTotals struct {
	Year    int            `json:"year"`
	Total   CategoryTotals `json:"total"`
	Cycling CategoryTotals `json:"cycling"`
	Running CategoryTotals `json:"running"`
	Rowing  CategoryTotals `json:"rowing"`
}

// AthleteSummary carries the most recent athlete state observed in the
// corpus. Weight falls back to the newest wellness entry when no recent
// activity reports it.
type AthleteSummary struct {
	Weight *float64 `json:"weight,omitempty"`
	FTP    *float64 `json:"ftp,omitempty"`
	WPrime *float64 `json:"w_prime,omitempty"`
}

// TrendPoint is one day of the CTL/ATL/TSB fitness trend.
type TrendPoint struct {
	Date string   `json:"date"`
	CTL  *float64 `json:"ctl,omitempty"`
	ATL  *float64 `json:"atl,omitempty"`
	TSB  *float64 `json:"tsb,omitempty"`
	TSS  float64  `json:"tss"`
}

// Float returns a pointer to v. Convenience for building records with
// optional metrics.
func Float(v float64) *float64 {
	return &v
}
