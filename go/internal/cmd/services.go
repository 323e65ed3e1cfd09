package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/poolnhl/go/clients/nhl_client"
	"github.com/mcdev12/poolnhl/go/clients/pool_client"
	"github.com/mcdev12/poolnhl/go/internal/db"
	"github.com/mcdev12/poolnhl/go/internal/gamenight"
	"github.com/mcdev12/poolnhl/go/internal/gateway"
	"github.com/mcdev12/poolnhl/go/internal/history"
	"github.com/mcdev12/poolnhl/go/internal/outbox"
	"github.com/mcdev12/poolnhl/go/internal/pool"
)

type Services struct {
	Pool      *pool.Service
	App       *pool.App
	Tracker   *gamenight.Tracker
	Relay     *outbox.Relay
	Publisher *outbox.JetStreamPublisher
	Gateway   *gateway.ConnectionManager
	WebSocket *gateway.WebSocketHandler
}

func setupServices(ctx context.Context, config *Config, database *sql.DB) (*Services, error) {
	// Wire up dependency injection chain
	// Clients / database → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	loc, err := config.location()
	if err != nil {
		return nil, err
	}

	// Game nights
	statsClient := nhl_client.NewNHLClient(config.StatsAPI.URL)
	tracker := gamenight.NewTracker(statsClient, clock, gamenight.TrackerConfig{
		IdleInterval: config.GamesNight.IdleInterval,
		LiveInterval: config.GamesNight.LiveInterval,
		Location:     loc,
	})

	// Trade history
	historyRepo := history.NewRepository(database)
	historyApp := history.NewApp(historyRepo, clock)

	// Pools
	poolClient := pool_client.NewPoolClient(config.PoolService.URL, config.PoolService.Token)
	poolApp := pool.NewApp(poolClient, historyApp, tracker, clock)
	poolService := pool.NewService(poolApp, clock, loc)

	// Outbox relay
	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = config.NATS.URL
	jsCfg.StreamName = config.NATS.StreamName
	jsCfg.SubjectPrefix = config.NATS.SubjectPrefix
	publisher, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	relay := outbox.NewRelay(outbox.NewRepository(db.New(database)), publisher, clock, outbox.RelayConfig{
		MaxRetries: config.Outbox.MaxRetries,
		RetryDelay: config.Outbox.RetryDelay,
	})

	// Websocket gateway
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	return &Services{
		Pool:      poolService,
		App:       poolApp,
		Tracker:   tracker,
		Relay:     relay,
		Publisher: publisher,
		Gateway:   manager,
		WebSocket: gateway.NewWebSocketHandler(manager),
	}, nil
}
