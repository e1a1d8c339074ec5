package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/couchcryptid/storm-data-skewt/internal/pipeline"

// Extractor reads a sounding from its source.
type Extractor interface {
	Extract(ctx context.Context) (domain.Sounding, error)
}

// Transformer derives an analysis from a raw sounding.
type Transformer interface {
	Transform(ctx context.Context, s domain.Sounding) (domain.Analysis, error)
}

// Loader delivers an analysis to a destination.
type Loader interface {
	Load(ctx context.Context, a domain.Analysis) error
}

// Pipeline runs extract, transform and load once per Run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Loaders run in order.
func New(e Extractor, t Transformer, logger *slog.Logger, metrics *observability.Metrics, loaders ...Loader) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer(tracerName),
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no sounding has been processed yet")
	}
	return nil
}

// Ready reports whether a run has completed successfully.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes one pass. Any stage error aborts the run; there are no partial results.
func (p *Pipeline) Run(ctx context.Context) (domain.Analysis, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	a, err := p.run(ctx)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Analysis{}, err
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.CAPE.Set(a.Convection.CAPE)
	p.metrics.CIN.Set(a.Convection.CIN)
	p.metrics.LCLPressure.Set(a.LCL.Pressure)
	p.ready.Store(true)
	span.SetAttributes(attribute.String("analysis.id", a.ID))
	return a, nil
}

func (p *Pipeline) run(ctx context.Context) (domain.Analysis, error) {
	var s domain.Sounding
	err := p.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		s, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("extract sounding: %w", err)
	}
	p.metrics.LevelsLoaded.Add(float64(len(s.Levels)))
	p.logger.Info("sounding loaded", "source", s.Source, "levels", len(s.Levels))

	var a domain.Analysis
	err = p.stage(ctx, "transform", func(ctx context.Context) error {
		var err error
		a, err = p.transformer.Transform(ctx, s)
		return err
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("transform sounding: %w", err)
	}

	err = p.stage(ctx, "load", func(ctx context.Context) error {
		for _, l := range p.loaders {
			if err := l.Load(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("load analysis: %w", err)
	}
	return a, nil
}

// stage runs fn in its own span and records its duration. A cancelled
// context stops the run before the stage starts.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
