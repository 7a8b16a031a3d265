package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/adapter/storage"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/config"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/observability"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/pipeline"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/render"
	"github.com/prometheus/client_golang/prometheus/push"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("failed to create artifact store", "error", err)
		return 1
	}

	renderers := []render.Renderer{render.CSV{}, render.HTML{}}
	if cfg.XLSXEnabled {
		renderers = append(renderers, render.XLSX{})
	}
	if cfg.ParquetEnabled {
		renderers = append(renderers, render.Parquet{})
	}
	sinks := make([]pipeline.Sink, 0, len(renderers)+1)
	for _, r := range renderers {
		sinks = append(sinks, render.NewSink(r, store))
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(
		openmeteo.NewClient(cfg, logger),
		sinks,
		pipeline.RunConfig{
			Locations:   cfg.Catalog.Locations,
			Models:      cfg.Catalog.Models,
			Days:        cfg.ForecastDays,
			Concurrency: cfg.FetchConcurrency,
			UnitTimeout: cfg.FetchTimeout,
		},
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, renderers, metrics.Gatherer(), logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	exitCode := 0
	if _, err := p.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		exitCode = 1
	}

	if cfg.PushgatewayURL != "" {
		if err := push.New(cfg.PushgatewayURL, "forecast_ensemble").Gatherer(metrics.Gatherer()).Push(); err != nil {
			logger.Error("push metrics failed", "url", cfg.PushgatewayURL, "error", err)
		}
	}

	if srv != nil && cfg.ServeAfterRun && ctx.Err() == nil {
		logger.Info("run complete, serving until signalled", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "exit_code", exitCode)
	return exitCode
}

// newStore uploads to S3 when an endpoint is configured and writes to the
// output directory otherwise. S3 objects are grouped under the run start time.
func newStore(cfg *config.Config, logger *slog.Logger) (render.Store, error) {
	if cfg.S3Endpoint == "" {
		return storage.NewLocalStore(cfg.OutputDir, logger)
	}
	return storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		Prefix:    time.Now().UTC().Format("2006-01-02T150405Z"),
	}, logger)
}
