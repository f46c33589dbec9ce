package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/config"
	"github.com/vancomm/bingo/internal/database"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logger")
	}

	url, err := config.DbURL()
	if err != nil {
		logger.WithError(err).Error("no database configured")
		os.Exit(1)
	}

	migrator, err := database.NewMigrator(url)
	if err != nil {
		logger.WithError(err).Error("failed to create migrator")
		os.Exit(1)
	}
	defer migrator.Close()

	switch {
	case *down:
		err = migrator.Down()
	case *steps != 0:
		err = migrator.Steps(*steps)
	default:
		err = migrator.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.WithError(err).Error("migration failed")
		os.Exit(1)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.WithError(err).Error("failed to check migration version")
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
