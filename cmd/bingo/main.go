package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/app"
	"github.com/vancomm/bingo/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logger")
	}
	logger.WithFields(cfg.Fields()).Debug("config loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
