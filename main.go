package main

import (
	"github.com/ponghub/matchserver/config"
	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/monitor"
	"github.com/ponghub/matchserver/notify"
	"github.com/ponghub/matchserver/persistence"
	"github.com/ponghub/matchserver/server"
	"github.com/ponghub/matchserver/status"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Match record store
	repo, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Player presence (shared with the rest of the platform)
	statuses, err := status.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Notification channel toward the platform's notification gateway
	notifier, err := notify.NewNATSNotifier(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to NATS: %v", err)
	}

	// Metrics
	mon := monitor.NewMonitor("matchserver")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Match server
	gameServer := server.NewGameServer(cfg, repo, statuses, notifier, mon)

	logger.Log.Infof("Starting match server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
