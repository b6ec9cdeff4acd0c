package bootstrap

import (
	"context"
	"log/slog"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/corpus"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/concept2"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/intervals"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/strava"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/normalize"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/observability"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// compositeSource assembles one normalized batch from the configured
// upstream feeds. Intervals.icu is required; a failure there fails the
// fetch. Strava and Concept2 are best-effort backfills: their failures
// are logged and the batch proceeds without them, matching the serve-
// what-we-have posture of the rest of the engine.
type compositeSource struct {
	intervals *intervals.Client
	strava    *strava.Client
	concept2  *concept2.Client
	logger    *slog.Logger
}

func (s *compositeSource) Fetch(ctx context.Context, oldest string) (types.Corpus, int, error) {
	params := intervals.ListParams{Oldest: oldest}

	rawActivities, err := s.intervals.ListActivities(ctx, params)
	if err != nil {
		return types.Corpus{}, 0, err
	}
	intervalsRecords, covered, dropped := normalize.IntervalsActivities(s.logger, rawActivities)
	observability.RecordDropped(types.SourceIntervals, dropped)

	rawWellness, err := s.intervals.ListWellness(ctx, params)
	if err != nil {
		return types.Corpus{}, 0, err
	}
	wellness, droppedWellness := normalize.WellnessRecords(s.logger, rawWellness)
	observability.RecordDropped(types.SourceIntervals, droppedWellness)
	dropped += droppedWellness

	var stravaRecords []types.ActivityRecord
	if s.strava != nil {
		after, parseErr := time.Parse(types.DateLayout, oldest)
		if parseErr != nil {
			after = time.Now().AddDate(-1, 0, 0)
		}
		raw, fetchErr := s.strava.ListActivities(ctx, after)
		if fetchErr != nil {
			s.logger.Error("Strava fetch failed", "error", fetchErr)
		} else {
			var droppedStrava int
			stravaRecords, droppedStrava = normalize.StravaActivities(s.logger, raw)
			observability.RecordDropped(types.SourceStrava, droppedStrava)
			dropped += droppedStrava
		}
	}

	var concept2Records []types.ActivityRecord
	if s.concept2 != nil {
		raw, fetchErr := s.concept2.ListResults(ctx, oldest)
		if fetchErr != nil {
			s.logger.Error("Concept2 fetch failed", "error", fetchErr)
		} else {
			var droppedC2 int
			concept2Records, droppedC2 = normalize.Concept2Workouts(s.logger, raw)
			observability.RecordDropped(types.SourceConcept2, droppedC2)
			dropped += droppedC2
		}
	}

	batch := corpus.CombineSources(intervalsRecords, stravaRecords, concept2Records, covered)
	return types.Corpus{Activities: batch, Wellness: wellness}, dropped, nil
}

func newPubSubClient(ctx context.Context, projectID string) (*gcppubsub.Client, error) {
	return gcppubsub.NewClient(ctx, projectID)
}
