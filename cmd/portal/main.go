package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/portalguard/app/portal"
	"github.com/dmitrymomot/portalguard/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := portal.LoadConfig()
	if err != nil {
		logger.New().Error("Failed to load configuration", logger.Component("config"), logger.Error(err))
		os.Exit(1)
	}

	app, err := portal.New(ctx, cfg)
	if err != nil {
		logger.New(logger.WithEnvironment(cfg.Env, cfg.AppName)).
			Error("Failed to initialize portal", logger.Component("app"), logger.Error(err))
		os.Exit(1)
	}
	log := app.Logger()
	logger.SetAsDefault(log)

	if err := app.Run(ctx, app.Routes(contactPage)); err != nil {
		log.Error("Failed to run portal", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}

	log.Info("Portal stopped")
}
