// Package app wires configuration into the scrapers, datastore and Redis
// clients shared by the diamond service and the scrape CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/cache"
	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/ingest/browser"
	"github.com/fortuna/diamond/internal/ingest/espn"
	"github.com/fortuna/diamond/internal/ingest/odds"
	"github.com/fortuna/diamond/internal/ingest/teamrankings"
	"github.com/fortuna/diamond/internal/store"
)

// Connect calls open until it succeeds, retrying with exponential backoff
// up to attempts times.
func Connect[T any](ctx context.Context, what string, attempts uint64, log logrus.FieldLogger, open func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	try := 0
	return backoff.RetryNotifyWithData(
		func() (T, error) {
			try++
			return open()
		},
		backoff.WithContext(backoff.WithMaxRetries(b, attempts), ctx),
		func(err error, wait time.Duration) {
			log.WithError(err).Warnf("%s connection attempt %d failed (retrying in %v)", what, try, wait.Round(time.Millisecond))
		},
	)
}

// OpenDatabase connects to the configured datastore and applies migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*store.Database, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := Connect(ctx, "database", 10, log, func() (*store.Database, error) {
		return store.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	log.Info("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("✓ Database migrations applied")
	return db, nil
}

// OpenRedis connects to Redis, or returns nil when no URL is configured.
func OpenRedis(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*cache.RedisCache, error) {
	if cfg.RedisURL == "" {
		log.Warn("⚠️ REDIS_URL not set: page cache and scrape events disabled")
		return nil, nil
	}
	rc, err := Connect(ctx, "redis", 10, log, func() (*cache.RedisCache, error) {
		return cache.NewRedisCache(ctx, cfg.RedisURL)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.Info("✓ Connected to Redis")
	return rc, nil
}

// NewSources builds one fetcher per source. pageCache may be nil. The ESPN
// ingester launches a fresh Chrome for every browser-rendered scrape.
func NewSources(cfg *config.Config, pageCache ingest.PageCache, log logrus.FieldLogger) batch.Sources {
	fetcher := func(source string) *ingest.Fetcher {
		return ingest.NewFetcher(ingest.Options{
			Source:    source,
			UserAgent: cfg.UserAgent,
			Policy:    cfg.Policy(source),
			Cache:     pageCache,
			Log:       log,
		})
	}

	chrome := browser.Config{
		UserAgent: cfg.UserAgent,
		ExecPath:  cfg.ChromePath,
		Timeout:   cfg.Policy("espn").Timeout * 3,
	}

	return batch.Sources{
		ESPN: espn.NewIngester(espn.Options{
			Fetcher: fetcher("espn"),
			Browser: chrome,
			URLs:    espn.URLs{Web: cfg.ESPNWebBase, API: cfg.ESPNAPIBase, SiteAPI: cfg.ESPNSiteAPIBase},
			Season:  cfg.Season,
			Log:     log,
		}),
		Odds: odds.NewIngester(odds.Options{
			Fetcher: fetcher("odds"),
			BaseURL: cfg.OddsAPIBase,
			APIKey:  cfg.OddsAPIKey,
			Season:  cfg.Season,
			Log:     log,
		}),
		TeamRankings: teamrankings.NewIngester(teamrankings.Options{
			Fetcher: fetcher("teamrankings"),
			BaseURL: cfg.TeamRankingsBase,
			Season:  cfg.Season,
			Log:     log,
		}),
	}
}
