package aggregate

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

func activity(date, typ string, tss float64) types.ActivityRecord {
	start, err := time.Parse(types.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return types.ActivityRecord{
		ID:        date + "-" + typ,
		Type:      typ,
		StartTime: start.Add(8 * time.Hour),
		TSS:       tss,
	}
}

func mustDay(date string) time.Time {
	t, err := time.Parse(types.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"Ride":        CategoryRide,
		"VirtualRide": CategoryRide,
		"Run":         CategoryRun,
		"VirtualRun":  CategoryRun,
		"Rowing":      CategoryRow,
		"Kayaking":    CategoryRow,
		"Swim":        CategoryOther,
		"Yoga":        CategoryOther,
		"":            CategoryOther,
	}
	for typ, want := range cases {
		assert.Equal(t, want, Classify(typ), typ)
	}
}

func TestWeeklyLoad(t *testing.T) {
	activities := []types.ActivityRecord{
		activity("2026-02-09", "Ride", 80),  // week 07
		activity("2026-02-11", "Run", 45),   // week 07
		activity("2026-02-12", "Kayaking", 30),
		activity("2026-02-23", "Yoga", 20), // week 09, week 08 stays empty
	}

	buckets := WeeklyLoad(activities, mustDay("2026-02-09"), mustDay("2026-02-28"))
	require.Len(t, buckets, 3, "empty weeks are still emitted")

	assert.Equal(t, "2026-W07", buckets[0].Week)
	assert.Equal(t, 80.0, buckets[0].Ride)
	assert.Equal(t, 45.0, buckets[0].Run)
	assert.Equal(t, 30.0, buckets[0].Row)

	assert.Equal(t, "2026-W08", buckets[1].Week)
	assert.Zero(t, buckets[1].Total())

	assert.Equal(t, "2026-W09", buckets[2].Week)
	assert.Equal(t, 20.0, buckets[2].Other)
}

// The sum of category totals must equal the sum of TSS across every
// in-window activity, whatever the mix of types.
func TestWeeklyLoad_ConservesTSS(t *testing.T) {
	types_ := []string{"Ride", "Run", "Rowing", "Swim", "Hike", "VirtualRide", "WeightTraining"}
	var activities []types.ActivityRecord
	var wantTotal float64
	for i, typ := range types_ {
		tss := float64(10 + 7*i)
		activities = append(activities, activity("2026-03-02", typ, tss))
		wantTotal += tss
	}

	buckets := WeeklyLoad(activities, mustDay("2026-03-02"), mustDay("2026-03-08"))
	require.Len(t, buckets, 1)
	assert.Equal(t, wantTotal, buckets[0].Total())
}

func TestWeeklyLoad_IgnoresOutsideWindow(t *testing.T) {
	activities := []types.ActivityRecord{
		activity("2026-02-08", "Ride", 100), // day before the window
		activity("2026-02-09", "Ride", 50),
	}
	buckets := WeeklyLoad(activities, mustDay("2026-02-09"), mustDay("2026-02-15"))
	require.Len(t, buckets, 1)
	assert.Equal(t, 50.0, buckets[0].Ride)
}

func TestHeatmapLevel(t *testing.T) {
	cases := []struct {
		tss   float64
		level int
	}{
		{0, 0},
		{1, 1},
		{40, 1},
		{41, 2},
		{80, 2},
		{81, 3},
		{120, 3},
		{121, 4},
		{180, 4},
		{181, 5},
		{500, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, HeatmapLevel(c.tss), "tss %.0f", c.tss)
	}
}

func TestHeatmap_SumsSameDayActivities(t *testing.T) {
	activities := []types.ActivityRecord{
		activity("2026-02-10", "Ride", 30),
		activity("2026-02-10", "Run", 60),
	}
	cells := Heatmap(activities, mustDay("2026-02-10"), mustDay("2026-02-10"))
	require.Len(t, cells, 1)
	assert.Equal(t, 90.0, cells[0].TSS)
	assert.Equal(t, 3, cells[0].Level)
}

func TestHeatmap_Golden(t *testing.T) {
	activities := []types.ActivityRecord{
		activity("2026-02-09", "Ride", 35),
		activity("2026-02-10", "Run", 45),
		activity("2026-02-12", "Ride", 95),
		activity("2026-02-13", "Ride", 130),
		activity("2026-02-14", "Ride", 200),
	}
	cells := Heatmap(activities, mustDay("2026-02-09"), mustDay("2026-02-15"))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.AssertJson(t, "heatmap_week", cells)
}

func TestPowerBests(t *testing.T) {
	now := mustDay("2026-03-01")
	longRide := activity("2026-02-20", "Ride", 90)
	longRide.Duration = 5400
	longRide.AvgPower = types.Float(200)

	shortRide := activity("2026-02-25", "Ride", 40)
	shortRide.Duration = 600
	shortRide.AvgPower = types.Float(250)

	bests := PowerBests([]types.ActivityRecord{longRide, shortRide}, now, 0)

	byLabel := make(map[string]types.PersonalBest)
	for _, b := range bests {
		byLabel[b.Label] = b
		assert.Equal(t, MethodExtrapolated, b.Method)
	}

	// The short ride wins the buckets it is long enough for.
	require.Contains(t, byLabel, "5s")
	assert.InDelta(t, 250*2.20, byLabel["5s"].Value, 1e-9)
	assert.Equal(t, shortRide.ID, byLabel["5s"].ActivityID)

	// Only the long ride qualifies for 20m and above.
	require.Contains(t, byLabel, "20m")
	assert.InDelta(t, 200*1.05, byLabel["20m"].Value, 1e-9)
	require.Contains(t, byLabel, "90m")
	assert.InDelta(t, 200*0.95, byLabel["90m"].Value, 1e-9)
}

func TestPowerBests_WindowAndEligibility(t *testing.T) {
	now := mustDay("2026-03-01")

	old := activity("2025-11-01", "Ride", 90) // outside the 90-day window
	old.Duration = 3600
	old.AvgPower = types.Float(300)

	noPower := activity("2026-02-20", "Ride", 90)
	noPower.Duration = 3600

	run := activity("2026-02-21", "Run", 50) // wrong discipline
	run.Duration = 3600
	run.AvgPower = types.Float(280)

	bests := PowerBests([]types.ActivityRecord{old, noPower, run}, now, 0)
	assert.Empty(t, bests)
}

func TestPowerBests_TieGoesToMostRecent(t *testing.T) {
	now := mustDay("2026-03-01")
	a := activity("2026-02-10", "Ride", 90)
	a.Duration = 3600
	a.AvgPower = types.Float(200)
	b := activity("2026-02-20", "Ride", 90)
	b.Duration = 3600
	b.AvgPower = types.Float(200)

	bests := PowerBests([]types.ActivityRecord{a, b}, now, 0)
	require.NotEmpty(t, bests)
	for _, best := range bests {
		assert.Equal(t, "2026-02-20", best.AchievedAt)
	}
}

func TestPaceBests(t *testing.T) {
	now := mustDay("2026-03-01")

	tenK := activity("2026-02-15", "Run", 70)
	tenK.Duration = 3000 // 50 min for 10k
	tenK.Distance = 10000

	fiveK := activity("2026-02-22", "Run", 40)
	fiveK.Duration = 1200 // 20 min for 5k, the faster pace
	fiveK.Distance = 5000

	bests := PaceBests([]types.ActivityRecord{tenK, fiveK}, now, 0)

	byLabel := make(map[string]types.PersonalBest)
	for _, b := range bests {
		byLabel[b.Label] = b
		assert.Equal(t, MethodExtrapolated, b.Method)
	}

	// The 5k run projects to a faster 1k than the 10k run.
	require.Contains(t, byLabel, "1k")
	assert.InDelta(t, 240, byLabel["1k"].Value, 1e-9)
	assert.Equal(t, fiveK.ID, byLabel["1k"].ActivityID)

	// Only the 10k run covers the 10k bucket.
	require.Contains(t, byLabel, "10k")
	assert.InDelta(t, 3000, byLabel["10k"].Value, 1e-9)

	// Nobody ran a half, so the bucket is absent rather than invented.
	assert.NotContains(t, byLabel, "half")
	assert.NotContains(t, byLabel, "marathon")
}

func TestYearToDate(t *testing.T) {
	now := mustDay("2026-06-30")

	ride := activity("2026-03-10", "Ride", 100)
	ride.Distance = 42600
	ride.Duration = 5400

	run := activity("2026-04-02", "Run", 55)
	run.Distance = 10500
	run.Duration = 3300

	lastYear := activity("2025-12-28", "Ride", 90)
	lastYear.Distance = 50000

	totals := YearToDate([]types.ActivityRecord{ride, run, lastYear}, now)

	assert.Equal(t, 2026, totals.Year)
	assert.Equal(t, 2, totals.Total.Count)
	assert.Equal(t, 53.0, totals.Total.DistanceKM) // 42.6 + 10.5 rounded
	assert.Equal(t, 2.4, totals.Total.Hours)       // 8700s to one decimal
	assert.Equal(t, 155.0, totals.Total.TSS)

	assert.Equal(t, 1, totals.Cycling.Count)
	assert.Equal(t, 43.0, totals.Cycling.DistanceKM)
	assert.Equal(t, 1, totals.Running.Count)
	assert.Zero(t, totals.Rowing.Count)
}

func TestAthlete(t *testing.T) {
	newest := activity("2026-02-20", "Ride", 50)
	newest.FTP = types.Float(265)
	older := activity("2026-02-10", "Ride", 50)
	older.FTP = types.Float(260)
	older.WPrime = types.Float(21000)

	wellness := []types.WellnessRecord{
		{Date: "2026-02-01", Weight: types.Float(74.2)},
		{Date: "2026-02-18", Weight: types.Float(73.5)},
	}

	// Activities arrive newest-first.
	summary := Athlete([]types.ActivityRecord{newest, older}, wellness)

	require.NotNil(t, summary.FTP)
	assert.Equal(t, 265.0, *summary.FTP, "newest activity wins")
	require.NotNil(t, summary.WPrime)
	assert.Equal(t, 21000.0, *summary.WPrime, "older activity fills the gap")
	require.NotNil(t, summary.Weight)
	assert.Equal(t, 73.5, *summary.Weight, "weight falls back to newest wellness")
}

func TestFitnessTrend(t *testing.T) {
	wellness := []types.WellnessRecord{
		{Date: "2026-02-08", CTL: types.Float(60)},
		{Date: "2026-02-10", CTL: types.Float(61), ATL: types.Float(70), TSB: types.Float(-9), DailyTSS: types.Float(85)},
		{Date: "2026-02-20", CTL: types.Float(62)},
	}

	trend := FitnessTrend(wellness, mustDay("2026-02-09"), mustDay("2026-02-15"))
	require.Len(t, trend, 1, "days outside the window are excluded")
	assert.Equal(t, "2026-02-10", trend[0].Date)
	assert.Equal(t, 85.0, trend[0].TSS)
	require.NotNil(t, trend[0].TSB)
	assert.Equal(t, -9.0, *trend[0].TSB)
}
