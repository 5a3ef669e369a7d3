// unifimon runs the monitoring daemon: scheduled agent runs, service
// checks, inventory and the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"unifimon/internal/config"
	"unifimon/internal/database"
	"unifimon/internal/metrics"
	"unifimon/internal/monitoring"
	"unifimon/internal/web"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("unifimon %s\nCommit: %s (%s)\nBuilt: %s\n", web.Version, web.GitCommit, web.GitBranch, web.BuildTime)
		return
	}

	if err := run(*configFile); err != nil {
		logrus.WithError(err).Fatal("unifimon stopped")
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	configureLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config": configFile,
		"listen": cfg.Server.Port,
		"hosts":  len(cfg.Hosts),
	}).Info("Starting unifimon")

	store, err := database.NewBoltStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	collector := metrics.NewCollector(store)
	engine, err := monitoring.NewEngine(cfg, store, collector)
	if err != nil {
		return fmt.Errorf("monitoring engine: %w", err)
	}
	server := web.NewServer(cfg, store, engine, collector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer engine.Stop()
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start web server: %w", err)
	}

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdown); err != nil {
		logrus.WithError(err).Warn("Web server shutdown")
	}
	return nil
}

func configureLogging(cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logrus.SetLevel(level)
	}
	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
