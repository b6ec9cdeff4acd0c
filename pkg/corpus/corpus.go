// Package corpus reconciles fetched batches into one canonical,
// duplicate-free, chronologically ordered dataset.
package corpus

import (
	"sort"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// Deduplicate collapses records to one per identity. Input order
// expresses precedence: the last record seen for an identity wins, so
// callers present batches oldest-fetched first. The result is sorted by
// start time descending, identity ascending on exact-timestamp ties.
func Deduplicate(records []types.ActivityRecord) []types.ActivityRecord {
	byIdentity := make(map[string]types.ActivityRecord, len(records))
	order := make([]string, 0, len(records))

	for _, r := range records {
		id := r.Identity()
		if _, seen := byIdentity[id]; !seen {
			order = append(order, id)
		}
		byIdentity[id] = r
	}

	out := make([]types.ActivityRecord, 0, len(order))
	for _, id := range order {
		out = append(out, byIdentity[id])
	}
	sortActivities(out)
	return out
}

// Merge combines an already-deduplicated corpus with a freshly fetched
// batch. Incoming records always win identity collisions: a refetched
// activity is assumed fresher than the cached copy. The result is a new
// slice; neither input is mutated. Merging the same batch against its
// own result is a no-op.
func Merge(existing, incoming []types.ActivityRecord) []types.ActivityRecord {
	combined := make([]types.ActivityRecord, len(existing), len(existing)+len(incoming))
	copy(combined, existing)

	index := make(map[string]int, len(existing))
	for i, r := range combined {
		index[r.Identity()] = i
	}

	for _, r := range incoming {
		if i, ok := index[r.Identity()]; ok {
			combined[i] = r
			continue
		}
		index[r.Identity()] = len(combined)
		combined = append(combined, r)
	}

	// Incoming may carry internal duplicates; a final dedup absorbs them
	// and restores ordering.
	return Deduplicate(combined)
}

// MergeWellness merges a fetched wellness batch into an existing series.
// Wellness identity is the calendar day; later fetches overwrite earlier
// ones for the same date. The result is sorted by date ascending.
func MergeWellness(existing, incoming []types.WellnessRecord) []types.WellnessRecord {
	byDate := make(map[string]types.WellnessRecord, len(existing)+len(incoming))
	for _, w := range existing {
		byDate[w.Date] = w
	}
	for _, w := range incoming {
		byDate[w.Date] = w
	}

	out := make([]types.WellnessRecord, 0, len(byDate))
	for _, w := range byDate {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// CombineSources assembles one batch from the three upstream feeds.
// Intervals.icu is the primary source; Strava activities it already
// covers (matched by strava id) are skipped so the same ride never
// enters the batch twice. covered lists additional strava ids claimed by
// intervals payloads that yielded no record, typically stubs awaiting
// ingestion. Concept2 rowing workouts have no overlap with either feed
// and are appended as-is.
func CombineSources(intervals, strava, concept2 []types.ActivityRecord, covered []string) []types.ActivityRecord {
	claimed := make(map[string]struct{}, len(intervals)+len(covered))
	for _, id := range covered {
		claimed[id] = struct{}{}
	}

	out := make([]types.ActivityRecord, 0, len(intervals)+len(strava)+len(concept2))
	for _, a := range intervals {
		if a.StravaID != "" {
			claimed[a.StravaID] = struct{}{}
		}
		out = append(out, a)
	}
	for _, a := range strava {
		if _, ok := claimed[a.StravaID]; ok {
			continue
		}
		out = append(out, a)
	}
	out = append(out, concept2...)
	return out
}

// DropCoveredStrava removes Strava-sourced records whose strava id is
// claimed by a record from another source. CombineSources applies the
// same rule within one batch; this pass applies it across the whole
// corpus, where an intervals record fetched on a later sync must retire
// the Strava copy persisted on an earlier one. Order is preserved and
// the input is never mutated.
func DropCoveredStrava(records []types.ActivityRecord) []types.ActivityRecord {
	claimed := make(map[string]struct{})
	for _, r := range records {
		if r.Source != types.SourceStrava && r.StravaID != "" {
			claimed[r.StravaID] = struct{}{}
		}
	}
	if len(claimed) == 0 {
		return records
	}

	out := make([]types.ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.Source == types.SourceStrava {
			if _, ok := claimed[r.StravaID]; ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func sortActivities(records []types.ActivityRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].StartTime.Equal(records[j].StartTime) {
			return records[i].StartTime.After(records[j].StartTime)
		}
		return records[i].Identity() < records[j].Identity()
	})
}
