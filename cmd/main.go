package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundrybot/internal/config"
	"laundrybot/internal/handlers"
	"laundrybot/internal/logger"
	"laundrybot/internal/metrics"
	"laundrybot/internal/notify"
	"laundrybot/internal/repository"
	"laundrybot/internal/repository/db"
	"laundrybot/internal/server"
	"laundrybot/internal/service"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

var CLI struct {
	ConfigDir string `help:"Directory holding config.yml" default:"configs" type:"path"`
	EnvFile   string `help:"Env file loaded before the config" default:".env"`
	LogLevel  string `help:"Override log.level (debug, info, warn, error)"`

	Serve    struct{} `cmd:"" default:"1" help:"Serve the HTTP API (default)"`
	Snapshot struct{} `cmd:"" help:"Print the current text snapshot and exit"`
}

// @title        Laundrybot API
// @version      1.0
// @description  Tracks washer and dryer loads from power readings and a shared ownership button.
// @BasePath     /
func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("laundrybot"),
		kong.Description("Shared washer/dryer load tracker."),
	)

	cfg, err := config.Load(CLI.ConfigDir, CLI.EnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading config:", err)
		os.Exit(1)
	}
	level := cfg.Log.Level
	if CLI.LogLevel != "" {
		level = CLI.LogLevel
	}
	log := logger.Get(logger.Options{Level: level, Format: cfg.Log.Format})

	if err := run(kctx.Command(), cfg, log); err != nil {
		log.Errorw("command failed", "command", kctx.Command(), "err", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// run opens storage, seeds fixtures and executes command. Every resource it
// opens is released before it returns.
func run(command string, cfg *config.Config, log *logger.Logger) error {
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	catalog, err := service.NewCatalog(cfg.ApplianceModels())
	if err != nil {
		return fmt.Errorf("invalid appliance set: %w", err)
	}
	repos := repository.NewRepository(conn)
	if err := service.Bootstrap(context.Background(), repos, catalog, cfg.PeopleModels(), log); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	switch command {
	case "snapshot":
		return printSnapshot(repos, catalog)
	default:
		return serve(cfg, conn, repos, catalog, log)
	}
}

func printSnapshot(repos *repository.Repository, catalog *service.Catalog) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	svc := service.NewService(repos, catalog, service.Options{})
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Println(service.FormatText(snap))
	return nil
}

func serve(cfg *config.Config, conn *sql.DB, repos *repository.Repository, catalog *service.Catalog, log *logger.Logger) error {
	notifier, err := notify.New(notify.Options{
		Backend:     cfg.Notify.Backend,
		MQTTBroker:  cfg.Notify.MQTT.Broker,
		MQTTTopic:   cfg.Notify.MQTT.Topic,
		NATSURL:     cfg.Notify.NATS.URL,
		NATSSubject: cfg.Notify.NATS.Subject,
	})
	if err != nil {
		return fmt.Errorf("connect notifier: %w", err)
	}
	defer func() {
		if cerr := notifier.Close(); cerr != nil {
			log.Warnw("notifier_close_failed", "err", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(conn, "laundrybot"),
	)

	services := service.NewService(repos, catalog, service.Options{
		IdleTimeout:       cfg.Engine.IdleTimeout,
		AutoCollectOnIdle: cfg.Engine.AutoCollectOnIdle,
		ButtonTarget:      cfg.Button.Target,
		Notifier:          notifier,
		Metrics:           metrics.NewPrometheusRecorder(reg),
		Logger:            log,
	})
	apiHandler := handlers.NewHandler(services, log, metrics.HTTPHandler(reg))

	srv := server.New(cfg.Port, apiHandler.InitRoutes(), server.Timeouts{
		ReadHeader: cfg.HTTP.ReadHeaderTimeout,
		Write:      cfg.HTTP.WriteTimeout,
	})
	if err := srv.Start(); err != nil {
		return err
	}
	log.Infow("http_listening", "addr", srv.Addr(), "button_target", cfg.Button.Target, "notify", cfg.Notify.Backend)

	return waitForShutdown(srv, log)
}

// waitForShutdown blocks until a termination signal or a server failure and
// then stops the server gracefully.
func waitForShutdown(srv *server.Server, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-srv.Done():
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Infow("shutting_down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
