// Command skewt reads a fixed-width sounding, derives parcel and buoyancy
// quantities, and renders a skew-T log-p diagram. With HTTP_ADDR set it keeps
// serving the chart and analysis until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/chart"
	"github.com/couchcryptid/storm-data-skewt/internal/adapter/fixedwidth"
	httpadapter "github.com/couchcryptid/storm-data-skewt/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-skewt/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-skewt/internal/config"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
	"github.com/couchcryptid/storm-data-skewt/internal/pipeline"
	"gonum.org/v1/plot/vg"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "storm-data-skewt",
	}, logger)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	var sinks []chart.Sink
	if cfg.OutputPath != "" {
		sinks = append(sinks, chart.NewFileSink(cfg.OutputPath))
	}

	var loaders []pipeline.Loader
	var srv *httpadapter.Server
	var p *pipeline.Pipeline
	if cfg.ServeHTTP() {
		// The server is also a loader, so it exists before the pipeline it reports on.
		srv = httpadapter.NewServer(cfg.HTTPAddr, httpadapter.ReadinessFunc(func(ctx context.Context) error {
			return p.CheckReadiness(ctx)
		}), logger)
		sinks = append(sinks, srv)
	}

	renderer := chart.NewRenderer(chart.Options{
		Width:  vg.Length(cfg.ChartWidth) * vg.Inch,
		Height: vg.Length(cfg.ChartHeight) * vg.Inch,
		Format: chart.FormatForPath(cfg.OutputPath),
	}, logger, metrics, sinks...)
	loaders = append(loaders, renderer)
	if srv != nil {
		loaders = append(loaders, srv)
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	p = pipeline.New(
		fixedwidth.NewReader(cfg.SoundingPath, cfg.SoundingHeaderRows, logger),
		pipeline.NewTransformer(logger, metrics),
		logger, metrics,
		loaders...,
	)

	if srv != nil {
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()
	}

	code := 0
	if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline failed", "error", err)
		code = 1
	} else if cfg.OutputPath != "" {
		logger.Info("chart written", "path", cfg.OutputPath)
	}

	if srv != nil && code == 0 {
		<-ctx.Done()
		logger.Info("shutting down")
	}

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

	logger.Info("shutdown complete")
	return code
}
