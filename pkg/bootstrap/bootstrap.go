// Package bootstrap wires configuration, logging and the service graph
// for the dashboard binary.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"gopkg.in/yaml.v3"

	"github.com/lee-hop-dev/fitness-dashboard/pkg/infrastructure/pubsub"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/concept2"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/intervals"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/integrations/strava"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/store"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/store/firestorestore"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/store/sqlitestore"
	"github.com/lee-hop-dev/fitness-dashboard/pkg/syncer"
)

// Config holds service configuration. Every field can come from the
// environment; a config.yaml (CONFIG_FILE) provides defaults for
// anything the environment leaves unset.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	IntervalsAPIKey string `yaml:"intervals_api_key"`
	AthleteID       string `yaml:"athlete_id"`

	StravaClientID     string `yaml:"strava_client_id"`
	StravaClientSecret string `yaml:"strava_client_secret"`
	StravaRefreshToken string `yaml:"strava_refresh_token"`

	Concept2Username string `yaml:"concept2_username"`
	Concept2Password string `yaml:"concept2_password"`

	// CachePath selects the SQLite cache file. FirestoreProject, when
	// set, selects the Firestore backend instead.
	CachePath        string `yaml:"cache_path"`
	FirestoreProject string `yaml:"firestore_project"`

	FreshnessWindow time.Duration `yaml:"freshness_window"`
	HistoryStart    string        `yaml:"history_start"`

	SentryDSN     string `yaml:"sentry_dsn"`
	EnablePublish bool   `yaml:"enable_publish"`
}

// LoadConfig reads configuration from an optional yaml file, then lets
// environment variables override it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:      ":8090",
		CachePath:       "fitness-dashboard.db",
		FreshnessWindow: syncer.DefaultFreshnessWindow,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.IntervalsAPIKey, "INTERVALS_API_KEY")
	overrideString(&cfg.AthleteID, "INTERVALS_ATHLETE_ID")
	overrideString(&cfg.StravaClientID, "STRAVA_CLIENT_ID")
	overrideString(&cfg.StravaClientSecret, "STRAVA_CLIENT_SECRET")
	overrideString(&cfg.StravaRefreshToken, "STRAVA_REFRESH_TOKEN")
	overrideString(&cfg.Concept2Username, "CONCEPT2_USERNAME")
	overrideString(&cfg.Concept2Password, "CONCEPT2_PASSWORD")
	overrideString(&cfg.CachePath, "CACHE_PATH")
	overrideString(&cfg.FirestoreProject, "FIRESTORE_PROJECT")
	overrideString(&cfg.HistoryStart, "HISTORY_START")
	overrideString(&cfg.SentryDSN, "SENTRY_DSN")
	if v := os.Getenv("FRESHNESS_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse FRESHNESS_WINDOW: %w", err)
		}
		cfg.FreshnessWindow = d
	}
	if os.Getenv("ENABLE_PUBLISH") == "true" {
		cfg.EnablePublish = true
	}

	if cfg.IntervalsAPIKey == "" || cfg.AthleteID == "" {
		return nil, fmt.Errorf("INTERVALS_API_KEY and INTERVALS_ATHLETE_ID are required")
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// NewLogger builds the service logger, JSON-formatted with the level
// taken from LOG_LEVEL.
func NewLogger(service string) *slog.Logger {
	var level slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", service)
}

// Service holds the initialized dependency graph.
type Service struct {
	Config *Config
	Logger *slog.Logger
	Store  store.Store
	Syncer *syncer.Syncer

	closers []func() error
}

// Close releases held resources (cache store, client connections).
func (s *Service) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewService wires the store, the upstream sources and the syncer.
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, error) {
	svc := &Service{Config: cfg, Logger: logger}

	if cfg.FirestoreProject != "" {
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		svc.closers = append(svc.closers, client.Close)
		svc.Store = firestorestore.New(client, "cache")
	} else {
		st, err := sqlitestore.Open(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		svc.closers = append(svc.closers, st.Close)
		svc.Store = st
	}

	source := &compositeSource{
		intervals: intervals.NewClient(cfg.IntervalsAPIKey, cfg.AthleteID),
		logger:    logger,
	}
	if cfg.StravaClientID != "" && cfg.StravaClientSecret != "" && cfg.StravaRefreshToken != "" {
		source.strava = strava.NewClient(ctx, cfg.StravaClientID, cfg.StravaClientSecret, cfg.StravaRefreshToken)
	} else {
		logger.Warn("Strava credentials not configured")
	}
	if cfg.Concept2Username != "" && cfg.Concept2Password != "" {
		source.concept2 = concept2.NewClient(cfg.Concept2Username, cfg.Concept2Password)
	} else {
		logger.Warn("Concept2 credentials not configured")
	}

	var publisher syncer.Publisher = &pubsub.LogPublisher{Logger: logger}
	if cfg.EnablePublish && cfg.FirestoreProject != "" {
		// Publishing rides on the same GCP project as the Firestore
		// cache; local sqlite deployments keep the log publisher.
		client, err := newPubSubClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		svc.closers = append(svc.closers, client.Close)
		publisher = &pubsub.PubSubAdapter{Client: client}
	}

	svc.Syncer = syncer.New(syncer.Options{
		Store:        svc.Store,
		Source:       source,
		Logger:       logger,
		Publisher:    publisher,
		Window:       cfg.FreshnessWindow,
		HistoryStart: cfg.HistoryStart,
	})
	return svc, nil
}
