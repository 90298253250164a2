// Package main provides the entry point for redistrap.
//
// redistrap is a low-interaction Redis decoy: it speaks just enough of
// the wire protocol to look like an open Redis server, records every
// connection, command and credential attempt, and never stores data or
// authenticates anyone.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/784356225/redistrap/internal/infra/buildinfo"
	"github.com/784356225/redistrap/internal/infra/confloader"
	"github.com/784356225/redistrap/internal/infra/shutdown"
	"github.com/784356225/redistrap/internal/server/config"
	"github.com/784356225/redistrap/internal/server/httpserver"
	"github.com/784356225/redistrap/internal/server/httpserver/handler"
	"github.com/784356225/redistrap/internal/server/redisserver"
	"github.com/784356225/redistrap/internal/storage"
	"github.com/784356225/redistrap/internal/telemetry/logger"
	"github.com/784356225/redistrap/internal/telemetry/metric"
	"github.com/784356225/redistrap/internal/telemetry/sink"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newApp creates the CLI application.
func newApp() *cli.App {
	return &cli.App{
		Name:    "redistrap",
		Usage:   "Redis-protocol decoy that records attacker activity",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"REDISTRAP_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the decoy server",
				Action: func(c *cli.Context) error {
					return serve(c.String("config"))
				},
			},
		},
		// Bare invocation runs the server too.
		Action: func(c *cli.Context) error {
			return serve(c.String("config"))
		},
	}
}

func serve(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting redistrap",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Hot-reload the log level when the config file changes.
	if configFile != "" {
		watcher, werr := startConfigWatcher(configFile, slogLogger)
		if werr != nil {
			log.Warn("config watcher unavailable", "error", werr)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	metrics := metric.New()

	// Attack-event archive (optional).
	eventSinks := []sink.Sink{sink.NewLogSink(cfg.Decoy.Name, slogLogger)}
	var adminEvents handler.EventSource
	if cfg.Archive.Enabled {
		archive, aerr := storage.Open(storage.ArchiveConfig{
			Dir:       cfg.Archive.Dir,
			Retention: cfg.Archive.Retention,
		}, metrics, slogLogger)
		if aerr != nil {
			return fmt.Errorf("open archive: %w", aerr)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("closing event archive")
			return archive.Close()
		})
		eventSinks = append(eventSinks, sink.NewArchiveSink(cfg.Decoy.Name, archive, slogLogger))
		adminEvents = archive
		log.Info("event archive open", "dir", cfg.Archive.Dir, "retention", cfg.Archive.Retention)
	}
	telemetry := sink.NewMulti(slogLogger, eventSinks...)

	// The decoy itself.
	server := redisserver.New(serverConfig(cfg), telemetry, metrics, slogLogger)
	if err := server.Start(context.Background()); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down decoy")
		return server.Shutdown(ctx)
	})

	// Admin plane: health, metrics, captured events (optional).
	if cfg.Admin.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Events:    adminEvents,
			Metrics:   metrics.Handler(),
			Stats:     server.Stats,
			Logger:    slogLogger,
			AllowList: cfg.Admin.AllowList,
		})
		adminServer := httpserver.New(cfg.Admin.Addr, router)
		go func() {
			log.Info("admin plane listening", "addr", cfg.Admin.Addr)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("admin server error", "error", err)
			}
		}()
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down admin plane")
			return adminServer.Shutdown(ctx)
		})
	}

	log.Info("decoy running, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)

	return log, slog.Default(), nil
}

// startConfigWatcher reloads the log level when the config file changes.
// Other settings require a restart.
func startConfigWatcher(configFile string, slogLogger *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLogger))
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(path string) {
		reloaded, err := loadConfig(path)
		if err != nil {
			slogLogger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		logger.SetLevel(reloaded.Log.Level)
		slogLogger.Info("log level reloaded", "level", reloaded.Log.Level)
	})

	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	// Start blocks until Stop.
	go watcher.Start()
	return watcher, nil
}

// serverConfig maps the file configuration onto the listener configuration.
func serverConfig(cfg *config.ServerConfig) *redisserver.Config {
	return &redisserver.Config{
		Address: net.JoinHostPort(cfg.Listen.Host, strconv.Itoa(cfg.Listen.Port)),
		Identity: redisserver.DecoyIdentity{
			Version:       cfg.Decoy.RedisVersion,
			Mode:          cfg.Decoy.RedisMode,
			Port:          cfg.Listen.Port,
			Password:      cfg.Decoy.Password,
			ResponseDelay: cfg.Decoy.ResponseDelay,
		},
		MaxConnections: cfg.Limits.MaxConnections,
		RateLimit:      cfg.Limits.RateLimit,
		ReadTimeout:    cfg.Limits.ReadTimeout,
		WriteTimeout:   cfg.Limits.WriteTimeout,
		IdleTimeout:    cfg.Limits.IdleTimeout,
	}
}
