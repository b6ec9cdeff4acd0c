// Package syncer implements the incremental sync and reconciliation
// engine: it decides when the cached corpus is fresh enough to reuse,
// fetches and merges new records when it is not, and persists the
// result with a write ordering that can never leave freshness metadata
// pointing at a corpus that was not written.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/corpus"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/infrastructure/pubsub"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/infrastructure/sentry"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/observability"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/store"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// ErrSyncUnavailable means no cached corpus exists and the remote fetch
// failed: there is no data to serve at all.
var ErrSyncUnavailable = errors.New("sync unavailable: no cache and remote fetch failed")

const (
	// corpusKey versions the persisted corpus shape. Bumping it
	// invalidates old caches by way of a meta mismatch.
	corpusKey = "corpus/v1"
	metaKey   = "sync/meta"

	// DefaultFreshnessWindow is how long a synced corpus is reused
	// without a refetch.
	DefaultFreshnessWindow = time.Hour

	// defaultOverlapDays is re-fetched before the last sync point so
	// late edits to recent activities are absorbed by the merge.
	defaultOverlapDays = 7
)

// Source is the remote fetch collaborator. It returns an already
// normalized batch for records on or after the oldest date
// (YYYY-MM-DD), plus the number of upstream payloads dropped as
// malformed.
type Source interface {
	Fetch(ctx context.Context, oldest string) (types.Corpus, int, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, oldest string) (types.Corpus, int, error)

func (f SourceFunc) Fetch(ctx context.Context, oldest string) (types.Corpus, int, error) {
	return f(ctx, oldest)
}

// Publisher emits sync lifecycle events. See pkg/infrastructure/pubsub.
type Publisher interface {
	Publish(ctx context.Context, topicID string, data []byte) (string, error)
}

// Result is what Load hands the presentation layer: an immutable
// snapshot of the reconciled corpus plus its sync metadata. Stale is set
// when the corpus comes from the last known-good cache after a fetch
// failure; callers may surface a "data may be outdated" indicator.
type Result struct {
	Corpus  types.Corpus
	Meta    types.SyncMeta
	Stale   bool
	Dropped int
}

// Options configures a Syncer. Store and Source are required.
type Options struct {
	Store     store.Store
	Source    Source
	Logger    *slog.Logger
	Publisher Publisher

	// Window overrides DefaultFreshnessWindow.
	Window time.Duration
	// HistoryStart is the oldest date fetched on a cold start,
	// YYYY-MM-DD. Defaults to one year back.
	HistoryStart string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Syncer owns the persisted corpus. It is the corpus's only writer;
// everything else reads the snapshots Load returns.
type Syncer struct {
	store        store.Store
	source       Source
	logger       *slog.Logger
	publisher    Publisher
	window       time.Duration
	historyStart string
	now          func() time.Time

	group singleflight.Group
}

// New builds a Syncer from options.
func New(opts Options) *Syncer {
	s := &Syncer{
		store:        opts.Store,
		source:       opts.Source,
		logger:       opts.Logger,
		publisher:    opts.Publisher,
		window:       opts.Window,
		historyStart: opts.HistoryStart,
		now:          opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.window <= 0 {
		s.window = DefaultFreshnessWindow
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.historyStart == "" {
		s.historyStart = s.now().AddDate(-1, 0, 0).Format(types.DateLayout)
	}
	return s
}

// Load returns the canonical corpus, fetching from the remote source
// only when the cache is missing or older than the freshness window.
//
// Concurrent loads are collapsed onto one in-flight sync. A caller may
// abandon the wait by cancelling its context; the in-flight fetch,
// merge and persist still run to completion on a detached context so a
// commit is never torn down mid-write.
func (s *Syncer) Load(ctx context.Context) (*Result, error) {
	if cached := s.loadCached(ctx); cached.fresh(s.now(), s.window) {
		observability.RecordCacheHit()
		return &Result{Corpus: *cached.corpus, Meta: *cached.meta}, nil
	}

	ch := s.group.DoChan("sync", func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	}
}

// refresh fetches, merges and persists. It re-reads the cache first: a
// queued caller may arrive just after a parallel flight committed.
func (s *Syncer) refresh(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	cached := s.loadCached(ctx)
	if cached.fresh(s.now(), s.window) {
		observability.RecordCacheHit()
		return &Result{Corpus: *cached.corpus, Meta: *cached.meta}, nil
	}

	oldest := s.historyStart
	if cached.meta != nil && !cached.meta.LastSync.IsZero() {
		oldest = cached.meta.LastSync.AddDate(0, 0, -defaultOverlapDays).Format(types.DateLayout)
	}

	logger.Info("starting remote sync", "oldest", oldest)
	incoming, dropped, err := s.source.Fetch(ctx, oldest)
	if err != nil {
		observability.RecordFetch("error")
		if cached.corpus != nil {
			logger.Warn("remote fetch failed, serving cached corpus", "error", err)
			observability.RecordStaleServe()
			// A transient upstream blip heals on its own; anything else
			// (revoked credentials, contract change) needs eyes on it
			// even while stale data keeps the dashboard up.
			var apiErr *integrations.APIError
			if errors.As(err, &apiErr) && !apiErr.Transient() {
				sentry.CaptureException(err, map[string]interface{}{"run_id": runID, "oldest": oldest}, logger)
			}
			res := &Result{Corpus: *cached.corpus, Stale: true}
			if cached.meta != nil {
				res.Meta = *cached.meta
			}
			return res, nil
		}
		sentry.CaptureException(err, map[string]interface{}{"run_id": runID, "oldest": oldest}, logger)
		return nil, fmt.Errorf("%w: %s", ErrSyncUnavailable, err)
	}
	observability.RecordFetch("success")

	var existing types.Corpus
	if cached.corpus != nil {
		existing = *cached.corpus
	}
	// An intervals record arriving on a later sync must retire the
	// Strava copy of the same ride persisted on an earlier one.
	merged := types.Corpus{
		Activities: corpus.DropCoveredStrava(corpus.Merge(existing.Activities, incoming.Activities)),
		Wellness:   corpus.MergeWellness(existing.Wellness, incoming.Wellness),
	}
	meta := types.SyncMeta{
		LastSync:      s.now(),
		CacheKey:      corpusKey,
		OldestFetched: oldest,
		ActivityCount: len(merged.Activities),
		WellnessCount: len(merged.Wellness),
	}

	result := &Result{Corpus: merged, Meta: meta, Dropped: dropped}

	// Corpus first, meta second. If the process dies between the two
	// writes the stale meta forces an extra refetch next time; the
	// reverse order could mark an unwritten corpus fresh.
	if err := s.persist(ctx, corpusKey, merged); err != nil {
		logger.Error("cache write failed, freshness metadata not updated", "error", err)
		observability.RecordCacheWriteFailure()
		return result, nil
	}
	if err := s.persist(ctx, metaKey, meta); err != nil {
		logger.Error("meta write failed, next load will refetch", "error", err)
		observability.RecordCacheWriteFailure()
		return result, nil
	}

	observability.RecordSync(meta.LastSync, meta.ActivityCount)
	logger.Info("sync committed",
		"activities", meta.ActivityCount,
		"wellness", meta.WellnessCount,
		"dropped", dropped)

	s.publishCompleted(ctx, logger, runID, meta, dropped)
	return result, nil
}

func (s *Syncer) persist(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// publishCompleted emits the sync-completed event. Best effort: a
// publish failure never fails the sync.
func (s *Syncer) publishCompleted(ctx context.Context, logger *slog.Logger, runID string, meta types.SyncMeta, dropped int) {
	if s.publisher == nil {
		return
	}
	event := pubsub.SyncCompletedEvent{
		RunID:         runID,
		CompletedAt:   meta.LastSync,
		Oldest:        meta.OldestFetched,
		ActivityCount: meta.ActivityCount,
		WellnessCount: meta.WellnessCount,
		Dropped:       dropped,
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn("marshal sync event failed", "error", err)
		return
	}
	if _, err := s.publisher.Publish(ctx, pubsub.TopicSyncCompleted, data); err != nil {
		logger.Warn("publish sync event failed", "error", err)
	}
}

type cachedState struct {
	corpus *types.Corpus
	meta   *types.SyncMeta
}

// fresh reports whether the cached corpus can be served without a
// remote call.
func (c cachedState) fresh(now time.Time, window time.Duration) bool {
	return c.corpus != nil && c.meta != nil && now.Sub(c.meta.LastSync) < window
}

// loadCached reads whatever usable state the store holds. A missing or
// corrupt entry is treated as absent; a meta whose cache key no longer
// matches the corpus version is discarded so old shapes force a refetch.
func (s *Syncer) loadCached(ctx context.Context) cachedState {
	var state cachedState

	if data, err := s.store.Get(ctx, corpusKey); err == nil {
		var c types.Corpus
		if err := json.Unmarshal(data, &c); err == nil {
			state.corpus = &c
		} else {
			s.logger.Warn("cached corpus is corrupt, ignoring", "error", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("cache read failed", "key", corpusKey, "error", err)
	}

	if data, err := s.store.Get(ctx, metaKey); err == nil {
		var m types.SyncMeta
		if err := json.Unmarshal(data, &m); err == nil && m.CacheKey == corpusKey {
			state.meta = &m
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("cache read failed", "key", metaKey, "error", err)
	}

	return state
}
