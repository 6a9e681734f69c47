package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/database"
	"github.com/vancomm/aplenty-server/migrations"
)

var log = logrus.New()

func main() {
	cfg, err := config.NewApp()
	if err != nil {
		log.Fatal("unable to read config: ", err)
	}
	if err := config.SetupLogging(log, cfg.Development, cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatal(err)
	}

	url, err := config.DbURL()
	if err != nil {
		log.Fatal(err)
	}

	migrator, err := database.Migrate(url, migrations.FS)
	if err != nil {
		log.WithError(err).Error("failed to migrate db")
		os.Exit(1)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
