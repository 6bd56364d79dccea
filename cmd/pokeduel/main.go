package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/pokeduel/internal/api"
	"github.com/ericogr/pokeduel/internal/config"
	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/version"
)

func main() {
	// POKEDUEL_ENV_FILE points at an optional .env file, ./.env by default.
	envFile := os.Getenv("POKEDUEL_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		logging.Fatal("Missing or invalid configuration", err, logging.Fields{"env_file": envFile})
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logging.Warn("unknown log level, keeping info", err, logging.Fields{constants.LogFieldName: cfg.LogLevel})
	}
	defer logging.Sync()
	logging.Info("starting pokeduel", logging.Fields{"version": version.Version, "commit": version.Commit})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal("Failed to initialize application", err, nil)
	}
	defer app.Close()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(app.svc, app.hub), api.NewSessionVerifier(cfg.SessionSecret))

	app.Start(ctx)
	if err := serve(ctx, cfg.ServerAddress, router); err != nil {
		logging.Error("Server stopped with error", err, nil)
	}
}
