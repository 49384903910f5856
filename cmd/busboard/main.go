package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/busboard/internal/board"
	"github.com/busboard/internal/common/config"
	"github.com/busboard/internal/common/db"
	"github.com/busboard/internal/common/discord"
	"github.com/busboard/internal/common/logger"
	"github.com/busboard/internal/departures"
	"github.com/busboard/internal/server"
	"github.com/busboard/internal/slapi"
)

func main() {
	// .env is optional on the device; the environment may be set directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	loggerConfig := logger.DefaultLoggerConfig()
	loggerConfig.Level = logger.ParseLogLevel(cfg.Logging.Level)
	loggerConfig.FilePath = cfg.Logging.FilePath
	loggerConfig.DiscordURL = cfg.Logging.DiscordURL
	log := logger.New(loggerConfig)

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	log.Info("Busboard starting",
		"version", "1.0.0",
		"board", cfg.Board.Name,
		"stops", len(cfg.Board.Stops),
		"snapshot_driver", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store board.SnapshotStore
	if cfg.Database.Driver != "none" {
		database, err := db.New(cfg.Database.Driver, cfg.Database.ConnectionString(), log)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to ensure snapshot schema", "error", err)
		}
		store = database
	}

	var alerter board.Alerter
	if alerts := discord.NewClient(cfg.Logging.DiscordURL); alerts.Enabled() {
		alerter = alerts
	}

	client := slapi.NewClient(slapi.Config{
		BaseURL:         cfg.SLAPI.BaseURL,
		APIKey:          cfg.SLAPI.APIKey,
		TimeWindow:      cfg.SLAPI.TimeWindow,
		RateLimitPerMin: cfg.SLAPI.RateLimitPerMin,
		ConnectTimeout:  cfg.SLAPI.ConnectTimeout,
	}, log.With("component", "slapi"))

	querier := departures.NewQuerier(client, slapi.JSONDecoder{}, cfg.Query.QuerierConfig(), log.With("component", "query"))
	aggregator := departures.NewAggregator(querier, log.With("component", "aggregator"))

	state := board.NewState()
	poller := board.NewPoller(board.Config{
		Name:               cfg.Board.Name,
		Stops:              cfg.Board.Stops,
		PollInterval:       cfg.Board.PollInterval,
		AlertAfterFailures: cfg.Board.AlertAfterFailures,
	}, aggregator, state, store, alerter, os.Stdout, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := poller.Start(ctx); err != nil {
			log.Error("Board poller error", "error", err)
		}
	}()

	if cfg.Server.Addr != "" {
		srv := server.New(cfg.Server.Addr, state, log.With("component", "server"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("Status server error", "error", err)
			}
		}()
	} else {
		log.Info("Status server disabled (no HTTP_ADDR)")
	}

	<-sigChan
	log.Info("Shutdown signal received")

	cancel()
	wg.Wait()

	log.Info("Busboard stopped")
}
