package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/simpleweb/cmd/flags"
	"github.com/ruteri/simpleweb/common"
	"github.com/ruteri/simpleweb/config"
	"github.com/ruteri/simpleweb/health"
	"github.com/ruteri/simpleweb/httpserver"
	"github.com/ruteri/simpleweb/metrics"
	"github.com/ruteri/simpleweb/storage"
	"github.com/urfave/cli/v2"
)

// startupTimeout bounds storage selection, including the remote bucket check.
const startupTimeout = 30 * time.Second

var cliFlags = append([]cli.Flag{
	flags.ConfigFlag,
	flags.ListenAddrFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "simpleweb",
		Usage: "Serve the SimpleWeb upload application",
		Flags: cliFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			cfg, err := config.Load(cCtx.String(flags.ConfigFlag.Name), os.LookupEnv)
			if err != nil {
				logger.Error("Failed to load configuration", "err", err)
				return err
			}

			storageCfg, err := cfg.StorageConfig()
			if err != nil {
				logger.Error("Invalid storage configuration", "err", err)
				return err
			}

			if cfg.AppInsightsConnectionString != "" {
				logger.Info("Telemetry connection string configured")
			}

			ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()

			logger.Info("Selecting storage provider", "kind", storageCfg.Kind.String())
			provider, err := storage.Select(ctx, storageCfg, logger)
			if err != nil {
				logger.Error("Failed to create storage provider", "err", err)
				return err
			}
			logger.Info("Storage provider ready", "provider", provider.Name())

			metricsSrv, err := metrics.New(common.PackageName, cCtx.String(flags.MetricsAddrFlag.Name))
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}

			aggregator := health.NewAggregator(logger,
				health.WithTimeout(cfg.HealthChecks.Timeout()),
				health.WithObserver(metricsSrv.ObserveProbe))
			aggregator.Register("storage", storage.NewProbe(provider, cfg.HealthChecks.Degraded()))

			probeClient := &http.Client{Timeout: cfg.HealthChecks.Timeout()}
			for _, dep := range cfg.HealthChecks.Dependencies {
				aggregator.Register(dep.Name, health.HTTPProbe(probeClient, dep.URL, cfg.HealthChecks.Degraded()))
			}
			logger.Info("Health probes registered", "probes", aggregator.Names())

			handler, err := httpserver.NewHandler(provider, aggregator, metricsSrv, httpserver.HandlerConfig{
				DefaultName:    storageCfg.Target,
				MaxUploadBytes: cfg.Upload.MaxBytes,
			}, logger)
			if err != nil {
				logger.Error("Failed to create handler", "err", err)
				return err
			}

			server := httpserver.New(flags.ConfigureServer(cCtx, logger), handler, metricsSrv)

			logger.Info("Starting server")
			server.RunInBackground()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
