package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/aplenty-server/internal/app"
	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/workflow"
	"github.com/vancomm/aplenty-server/migrations"
)

var log = logrus.New()

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.NewApp()
	if err != nil {
		log.Fatal("unable to read config: ", err)
	}

	if err := config.SetupLogging(log, cfg.Development, cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatal(err)
	}
	workflow.Log.SetLevel(logrus.WarnLevel)
	workflow.Log.SetFormatter(log.Formatter)

	log.WithFields(logrus.Fields{
		"addr":        cfg.Addr(),
		"base_path":   cfg.BasePath,
		"development": cfg.Development,
		"entry":       cfg.EntryRule,
		"box":         cfg.DefaultBox().String(),
	}).Info("starting up")

	if err := app.New(log, cfg, migrations.FS).Start(ctx); err != nil {
		log.Fatal("exit reason: ", err)
	}
	log.Info("shut down")
}
