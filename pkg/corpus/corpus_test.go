package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

func activity(id string, start string, actType string, duration, tss float64) types.ActivityRecord {
	t, err := time.Parse("2006-01-02T15:04:05", start)
	if err != nil {
		panic(err)
	}
	return types.ActivityRecord{
		ID:        id,
		Source:    "INTERVALS",
		Type:      actType,
		StartTime: t,
		Duration:  duration,
		TSS:       tss,
	}
}

func TestDeduplicate_LastSeenWins(t *testing.T) {
	records := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 88),
		activity("a2", "2026-02-09T07:00:00", "Run", 3600, 74),
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 92), // later fetch
	}

	out := Deduplicate(records)

	require.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].ID)
	assert.Equal(t, 92.0, out[0].TSS, "last-seen record should win")
	assert.Equal(t, "a2", out[1].ID)
}

func TestDeduplicate_CompositeIdentity(t *testing.T) {
	// Two records with no upstream id but identical (start, type,
	// duration) are the same activity.
	a := activity("", "2026-03-01T06:30:00", "Rowing", 1800, 40)
	b := activity("", "2026-03-01T06:30:00", "Rowing", 1800, 45)

	out := Deduplicate([]types.ActivityRecord{a, b})

	require.Len(t, out, 1)
	assert.Equal(t, 45.0, out[0].TSS)
}

func TestDeduplicate_SortDescendingWithTieBreak(t *testing.T) {
	records := []types.ActivityRecord{
		activity("b", "2026-01-05T09:00:00", "Run", 1200, 20),
		activity("a", "2026-01-05T09:00:00", "Ride", 1200, 20),
		activity("c", "2026-01-06T09:00:00", "Ride", 1200, 20),
	}

	out := Deduplicate(records)

	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID, "newest first")
	assert.Equal(t, "a", out[1].ID, "timestamp ties break by identity ascending")
	assert.Equal(t, "b", out[2].ID)
}

func TestMerge_IncomingWins(t *testing.T) {
	existing := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 88),
	}
	incoming := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 92),
		activity("a2", "2026-02-09T07:00:00", "Run", 3600, 74),
	}

	out := Merge(existing, incoming)

	require.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].ID)
	assert.Equal(t, 92.0, out[0].TSS, "incoming overwrites existing")
	assert.Equal(t, "a2", out[1].ID)
}

func TestMerge_Idempotent(t *testing.T) {
	existing := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 88),
		activity("a3", "2026-02-08T18:00:00", "Rowing", 1800, 35),
	}
	incoming := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 92),
		activity("a2", "2026-02-09T07:00:00", "Run", 3600, 74),
		activity("a2", "2026-02-09T07:00:00", "Run", 3600, 75), // duplicate inside the batch
	}

	once := Merge(existing, incoming)
	twice := Merge(once, incoming)

	assert.Equal(t, once, twice, "re-merging the same batch must be a no-op")
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 88),
	}
	incoming := []types.ActivityRecord{
		activity("a1", "2026-02-10T08:00:00", "Ride", 2820, 92),
	}

	_ = Merge(existing, incoming)

	assert.Equal(t, 88.0, existing[0].TSS)
}

func TestMerge_SortInvariant(t *testing.T) {
	existing := []types.ActivityRecord{
		activity("old", "2026-01-01T08:00:00", "Ride", 3600, 50),
	}
	incoming := []types.ActivityRecord{
		activity("mid", "2026-01-15T08:00:00", "Run", 3600, 60),
		activity("new", "2026-02-01T08:00:00", "Ride", 3600, 70),
	}

	out := Merge(existing, incoming)

	require.Len(t, out, 3)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].StartTime.After(out[i-1].StartTime),
			"corpus must be ordered by start time descending")
	}
}

func TestMergeWellness_LaterFetchOverwrites(t *testing.T) {
	existing := []types.WellnessRecord{
		{Date: "2026-02-01", HRV: types.Float(55)},
		{Date: "2026-02-02", HRV: types.Float(60)},
	}
	incoming := []types.WellnessRecord{
		{Date: "2026-02-02", HRV: types.Float(62), RestingHR: types.Float(48)},
		{Date: "2026-02-03", HRV: types.Float(58)},
	}

	out := MergeWellness(existing, incoming)

	require.Len(t, out, 3)
	assert.Equal(t, "2026-02-01", out[0].Date, "wellness is sorted ascending")
	assert.Equal(t, 62.0, *out[1].HRV, "same-date record replaced wholesale")
	require.NotNil(t, out[1].RestingHR)
	assert.Equal(t, "2026-02-03", out[2].Date)
}

func TestCombineSources_SkipsCoveredStrava(t *testing.T) {
	intervalsRec := activity("i1", "2026-02-10T08:00:00", "Ride", 2820, 88)
	intervalsRec.StravaID = "555"

	covered := activity("strava_555", "2026-02-10T08:00:00", "Ride", 2820, 0)
	covered.StravaID = "555"
	extra := activity("strava_556", "2026-02-11T08:00:00", "Run", 1800, 0)
	extra.StravaID = "556"

	rowing := activity("concept2_9", "2026-02-12T06:00:00", "Rowing", 1800, 0)

	out := CombineSources(
		[]types.ActivityRecord{intervalsRec},
		[]types.ActivityRecord{covered, extra},
		[]types.ActivityRecord{rowing},
		nil,
	)

	require.Len(t, out, 3)
	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	assert.Equal(t, []string{"i1", "strava_556", "concept2_9"}, ids)
}

func TestCombineSources_StubCoverage(t *testing.T) {
	// The stub yielded no intervals record, but its strava id still
	// claims the ride.
	stravaRec := activity("strava_556", "2026-02-11T08:00:00", "Run", 1800, 0)
	stravaRec.Source = types.SourceStrava
	stravaRec.StravaID = "556"

	out := CombineSources(nil, []types.ActivityRecord{stravaRec}, nil, []string{"556"})
	assert.Empty(t, out)
}

// An intervals record arriving one sync after the Strava copy was
// persisted must retire that copy during the merge, not leave the same
// ride in the corpus under two identities.
func TestDropCoveredStrava_RetiresPersistedCopy(t *testing.T) {
	stravaRec := activity("strava_556", "2026-02-10T08:00:00", "Ride", 2820, 0)
	stravaRec.Source = types.SourceStrava
	stravaRec.StravaID = "556"

	intervalsRec := activity("i999", "2026-02-10T08:00:00", "Ride", 2820, 88)
	intervalsRec.StravaID = "556"

	// Sync one fetched only the Strava copy.
	existing := Deduplicate([]types.ActivityRecord{stravaRec})
	// Sync two delivers the intervals record for the same ride.
	incoming := CombineSources([]types.ActivityRecord{intervalsRec}, nil, nil, nil)

	merged := DropCoveredStrava(Merge(existing, incoming))

	require.Len(t, merged, 1)
	assert.Equal(t, "i999", merged[0].ID)
	assert.Equal(t, 88.0, merged[0].TSS)
}

func TestDropCoveredStrava_KeepsUnclaimedRecords(t *testing.T) {
	claimed := activity("strava_1", "2026-02-10T08:00:00", "Ride", 2820, 0)
	claimed.Source = types.SourceStrava
	claimed.StravaID = "1"
	unclaimed := activity("strava_2", "2026-02-11T08:00:00", "Run", 1800, 0)
	unclaimed.Source = types.SourceStrava
	unclaimed.StravaID = "2"
	intervalsRec := activity("i1", "2026-02-12T08:00:00", "Ride", 2820, 80)
	intervalsRec.StravaID = "1"

	in := []types.ActivityRecord{intervalsRec, claimed, unclaimed}
	out := DropCoveredStrava(in)

	require.Len(t, out, 2)
	assert.Equal(t, "i1", out[0].ID)
	assert.Equal(t, "strava_2", out[1].ID)
	assert.Len(t, in, 3, "input slice is left intact")
}
