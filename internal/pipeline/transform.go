package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
)

// SoundingTransformer implements Transformer: it filters unobserved levels
// and derives the analysis from what remains.
type SoundingTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a SoundingTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *SoundingTransformer {
	return &SoundingTransformer{logger: logger, metrics: metrics}
}

func (t *SoundingTransformer) Transform(_ context.Context, s domain.Sounding) (domain.Analysis, error) {
	filtered := domain.Filter(s)
	dropped := len(s.Levels) - len(filtered.Levels)
	t.metrics.LevelsDropped.Add(float64(dropped))
	t.logger.Debug("levels filtered", "source", s.Source, "levels", len(filtered.Levels), "dropped", dropped)

	a, err := domain.Analyze(filtered)
	if err != nil {
		return domain.Analysis{}, err
	}

	attrs := []any{
		"source", s.Source,
		"id", a.ID,
		"lcl_pressure", a.LCL.Pressure,
		"cape", a.Convection.CAPE,
		"cin", a.Convection.CIN,
	}
	if a.Convection.LFC != nil {
		attrs = append(attrs, "lfc_pressure", *a.Convection.LFC, "el_pressure", *a.Convection.EL)
	}
	t.logger.Info("sounding analyzed", attrs...)
	return a, nil
}
