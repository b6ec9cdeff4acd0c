// Package api serves the reconciled corpus and its derived views as
// JSON snapshots for the dashboard front-end. Read-only: every handler
// loads through the syncer and computes its view per request.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/aggregate"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/syncer"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/types"
)

// Loader yields the current corpus snapshot. Implemented by
// *syncer.Syncer.
type Loader interface {
	Load(ctx context.Context) (*syncer.Result, error)
}

// Server holds the API's dependencies.
type Server struct {
	loader Loader
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Server. A nil now defaults to the wall clock.
func New(loader Loader, logger *slog.Logger) *Server {
	return &Server{
		loader: loader,
		logger: logger,
		now:    time.Now,
	}
}

// Routes assembles the router: snapshot endpoints under /api, plus
// health and Prometheus metrics. CORS is open for GET because the
// consumer is a static dashboard served from another origin.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/activities", s.handleActivities)
		r.Get("/wellness", s.handleWellness)
		r.Get("/weekly", s.handleWeekly)
		r.Get("/bests", s.handleBests)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/ytd", s.handleYTD)
		r.Get("/athlete", s.handleAthlete)
		r.Get("/trend", s.handleTrend)
		r.Get("/meta", s.handleMeta)
	})

	return r
}

// load runs the sync path and translates its failure modes to HTTP.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*syncer.Result, bool) {
	result, err := s.loader.Load(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		s.logger.Error("load failed", "error", err)
		http.Error(w, err.Error(), status)
		return nil, false
	}
	if result.Stale {
		// Fetch failed but the cached corpus was served; the client may
		// want to show an "outdated" indicator.
		w.Header().Set("X-Data-Stale", "true")
	}
	return result, true
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, result.Corpus.Activities)
}

func (s *Server) handleWellness(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, result.Corpus.Wellness)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	from, to := s.window(r, 12*7)
	s.writeJSON(w, aggregate.WeeklyLoad(result.Corpus.Activities, from, to))
}

func (s *Server) handleBests(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	now := s.now()
	s.writeJSON(w, map[string][]types.PersonalBest{
		"power": aggregate.PowerBests(result.Corpus.Activities, now, aggregate.DefaultBestsWindow),
		"pace":  aggregate.PaceBests(result.Corpus.Activities, now, aggregate.DefaultBestsWindow),
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	from, to := s.window(r, 365)
	s.writeJSON(w, aggregate.Heatmap(result.Corpus.Activities, from, to))
}

func (s *Server) handleYTD(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, aggregate.YearToDate(result.Corpus.Activities, s.now()))
}

func (s *Server) handleAthlete(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, aggregate.Athlete(result.Corpus.Activities, result.Corpus.Wellness))
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	from, to := s.window(r, 90)
	s.writeJSON(w, aggregate.FitnessTrend(result.Corpus.Wellness, from, to))
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	result, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, result.Meta)
}

// window resolves the ?days= query into a [from, to] range ending now.
func (s *Server) window(r *http.Request, defaultDays int) (time.Time, time.Time) {
	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 3650 {
			days = n
		}
	}
	to := s.now()
	return to.AddDate(0, 0, -(days - 1)), to
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
