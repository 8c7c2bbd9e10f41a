package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wadjakorntonsri/triptree/pkg/app"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
	log.Info(ctx, "server stopped")
}
