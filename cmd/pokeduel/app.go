package main

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ericogr/pokeduel/internal/config"
	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/creatures"
	"github.com/ericogr/pokeduel/internal/deckclient"
	"github.com/ericogr/pokeduel/internal/engine"
	"github.com/ericogr/pokeduel/internal/events"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/pokeapi"
	"github.com/ericogr/pokeduel/internal/service"
	"github.com/ericogr/pokeduel/internal/storage"
)

const (
	redisKeyPrefix = "pokeduel:"
	statsBatch     = 100
)

// app owns every long-lived component. main builds it once and closes it on
// shutdown.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	rdb   *redis.Client
	svc   *service.Service
	hub   *events.Hub
	sched gocron.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: events.NewHub(cfg.WSAllowedOrigins...)}

	db, err := storage.OpenAndMigrate(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.db = db

	pokeClient := pokeapi.New(cfg.PokeAPIBaseURL, cfg.UpstreamTimeout)
	table, err := loadTypeTable(ctx, cfg, pokeClient)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("type chart: %w", err)
	}

	var cache creatures.Cache = creatures.NewMemoryCache()
	if cfg.RedisEnabled() {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		cache = creatures.NewRedisCache(a.rdb, redisKeyPrefix)
	}

	bus := events.NewBus()
	if a.rdb != nil {
		// every instance relays the channel to its own hub
		bus.SubscribeAll(events.NewRedisPublisher(a.rdb, cfg.EventsChannel).Handle)
	} else {
		bus.SubscribeAll(a.hub.Handle)
	}

	var decks service.DeckSource
	if cfg.DeckSourceURL != "" {
		decks = deckclient.New(cfg.DeckSourceURL, cfg.UpstreamTimeout)
		logging.Info("using remote deck source", logging.Fields{constants.LogFieldSource: cfg.DeckSourceURL})
	}

	store := storage.NewGormRepository(db)
	a.svc = service.New(service.Deps{
		Store:     store,
		Decks:     decks,
		Creatures: creatures.New(pokeClient, cache, cfg.CreatureCacheTTL, cfg.UpstreamTimeout),
		Engine:    engine.New(table),
		Bus:       bus,
		Retry: service.RetryPolicy{
			MaxTries:        cfg.UpstreamMaxTries,
			InitialInterval: cfg.UpstreamRetryInitial,
			Timeout:         cfg.UpstreamTimeout,
		},
	})

	sched, err := gocron.NewScheduler()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	a.sched = sched
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.StatsInterval),
		gocron.NewTask(a.reconcileStats),
		gocron.WithName("reconcile-stats"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("stats job: %w", err)
	}
	return a, nil
}

func loadTypeTable(ctx context.Context, cfg *config.Config, c *pokeapi.Client) (*game.TypeTable, error) {
	if cfg.TypeChartSource != constants.TypeChartPokeAPI {
		return game.DefaultTypeTable(), nil
	}
	table, err := pokeapi.LoadTypeTable(ctx, c)
	if err != nil {
		return nil, err
	}
	logging.Info("type chart loaded", logging.Fields{constants.LogFieldSource: cfg.PokeAPIBaseURL})
	return table, nil
}

// Start runs the background work: the stats schedule and, with Redis, the
// event relay feeding the local WebSocket hub.
func (a *app) Start(ctx context.Context) {
	a.sched.Start()
	if a.rdb != nil {
		go events.NewRelay(a.rdb, a.cfg.EventsChannel, a.hub).Run(ctx)
	}
}

func (a *app) reconcileStats() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.StatsInterval)
	defer cancel()
	if _, err := a.svc.ReconcileStats(ctx, statsBatch); err != nil {
		logging.Error("stats job failed", err, nil)
	}
}

func (a *app) Close() {
	if a.sched != nil {
		if err := a.sched.Shutdown(); err != nil {
			logging.Warn("scheduler shutdown failed", err, nil)
		}
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
