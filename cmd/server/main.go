package main

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/config"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/handlers"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/logger"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/mcp"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/sleeper"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{
		"env":             cfg.Env,
		"num_simulations": cfg.NumSimulations,
		"database":        cfg.DatabasePath,
		"redis":           cfg.RedisURL != "",
	}).Info("Configuration loaded")

	leagues, err := config.LoadLeagueSettings(cfg.LeagueSettingsPath)
	if err != nil {
		log.WithError(err).Warn("Failed to load league settings, using defaults")
		leagues = config.DefaultLeagueConfig()
	}

	client := sleeper.NewHTTPClient(sleeper.ClientOptions{
		BaseURL:           cfg.SleeperBaseURL,
		Timeout:           cfg.SleeperTimeout,
		RequestsPerMinute: cfg.SleeperRateLimit,
	}, log)

	var results handlers.ResultStore
	if cfg.DatabasePath != "" {
		db, err := store.OpenSQLite(cfg.DatabasePath, log)
		if err != nil {
			log.WithError(err).Warn("Persistence disabled")
		} else {
			defer db.Close()
			results = db
		}
	}

	var cache store.ResultCache
	if cfg.RedisURL != "" {
		redisCache, err := store.NewRedisCache(context.Background(), cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, using in-process cache")
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	handler := handlers.NewSimulationHandler(client, cfg, leagues, results, cache, log)
	mcpServer := mcp.NewPlayoffOddsServer(handler, log)
	if mcpServer == nil {
		log.Fatal("Failed to create MCP server")
	}

	log.Info("Starting Sleeper Playoff Odds MCP Server...")

	if err := server.ServeStdio(mcpServer); err != nil {
		log.WithError(err).Error("Server failed")
		os.Exit(1)
	}
}
