package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fairplay-vault/sentinel/internal/config"
	"github.com/fairplay-vault/sentinel/internal/interface/web"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

//nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "sentineld",
		Usage:   "fairplay vault auto-reveal sentinel",
		Version: version,
		Action:  daemonAction,
		Commands: cli.Commands{
			commitCmd,
			importCmd,
			scheduleCmd,
			statusCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func daemonAction(_ *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	appSvc, err := cfg.AppService()
	if err != nil {
		log.Fatal(err)
	}

	svc := web.NewService(appSvc, cfg.Port)

	log.RegisterExitHandler(svc.Stop)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, os.Interrupt)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
	return nil
}
