package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/fixedwidth"
	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
	"github.com/couchcryptid/storm-data-skewt/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	sounding domain.Sounding
	err      error
}

func (m *mockExtractor) Extract(_ context.Context) (domain.Sounding, error) {
	return m.sounding, m.err
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, s domain.Sounding) (domain.Analysis, error) {
	if m.err != nil {
		return domain.Analysis{}, m.err
	}
	return domain.Analysis{ID: "sounding-test", Sounding: s, LCL: domain.LCLPoint{Pressure: 950, Temperature: 15}}, nil
}

type mockLoader struct {
	loaded []domain.Analysis
	err    error
}

func (m *mockLoader) Load(_ context.Context, a domain.Analysis) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, a)
	return nil
}

func testSounding() domain.Sounding {
	nan := math.NaN()
	return domain.Sounding{
		Source: "mock",
		Units:  domain.StandardUnits(),
		Levels: []domain.Level{
			{Pressure: 1000, Height: 100, Temperature: 20, Dewpoint: 18, Direction: 180, Speed: 10},
			{Pressure: 950, Height: nan, Temperature: nan, Dewpoint: nan, Direction: nan, Speed: nan},
			{Pressure: 900, Height: 1000, Temperature: 14, Dewpoint: 10, Direction: 200, Speed: 20},
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{sounding: testSounding()}
	l1, l2 := &mockLoader{}, &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, slog.Default(), metrics, l1, l2)
	require.Error(t, p.CheckReadiness(context.Background()))

	a, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sounding-test", a.ID)
	assert.Len(t, l1.loaded, 1)
	assert.Len(t, l2.loaded, 1)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.LevelsLoaded), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Runs.WithLabelValues("success")), 1e-9)
	assert.InDelta(t, 950, testutil.ToFloat64(metrics.LCLPressure), 1e-9)
	assert.Zero(t, testutil.ToFloat64(metrics.PipelineRunning))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.StageDuration))
}

func TestPipeline_Run_StageErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		ext    *mockExtractor
		tfm    *mockTransformer
		ldr    *mockLoader
		prefix string
	}{
		{"extract", &mockExtractor{err: boom}, &mockTransformer{}, &mockLoader{}, "extract sounding"},
		{"transform", &mockExtractor{sounding: testSounding()}, &mockTransformer{err: boom}, &mockLoader{}, "transform sounding"},
		{"load", &mockExtractor{sounding: testSounding()}, &mockTransformer{}, &mockLoader{err: boom}, "load analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetricsForTesting()
			p := pipeline.New(tt.ext, tt.tfm, slog.Default(), metrics, tt.ldr)

			_, err := p.Run(context.Background())
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.prefix)
			assert.False(t, p.Ready())
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.Runs.WithLabelValues("error")), 1e-9)
		})
	}
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{sounding: testSounding()}, &mockTransformer{}, slog.Default(), observability.NewMetricsForTesting(), ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestSoundingTransformer_Transform(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(slog.Default(), metrics)

	a, err := tfm.Transform(context.Background(), testSounding())
	require.NoError(t, err)

	assert.Len(t, a.Sounding.Levels, 2)
	assert.Len(t, a.Profile, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LevelsDropped), 1e-9)
	assert.Less(t, a.LCL.Pressure, 1000.0)
	assert.Less(t, a.LCL.Temperature, 20.0)
}

func TestSoundingTransformer_RejectsAscendingPressure(t *testing.T) {
	s := testSounding()
	s.Levels[0], s.Levels[2] = s.Levels[2], s.Levels[0]

	tfm := pipeline.NewTransformer(slog.Default(), observability.NewMetricsForTesting())
	_, err := tfm.Transform(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrPressureOrder)
}

func TestPipeline_Fixture(t *testing.T) {
	path := filepath.Join("..", "..", "data", "may4_sounding.txt")
	metrics := observability.NewMetricsForTesting()
	ldr := &mockLoader{}
	p := pipeline.New(
		fixedwidth.NewReader(path, fixedwidth.DefaultHeaderRows, slog.Default()),
		pipeline.NewTransformer(slog.Default(), metrics),
		slog.Default(), metrics, ldr,
	)

	a, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "may4_sounding.txt", a.Sounding.Source)
	assert.Len(t, a.Sounding.Levels, 25)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LevelsDropped), 1e-9)

	assert.InDelta(t, 804.0, a.LCL.Pressure, 0.5)
	assert.InDelta(t, 16.3, a.LCL.Temperature, 0.1)
	require.NotNil(t, a.Convection.LFC)
	assert.InDelta(t, 774.2, *a.Convection.LFC, 1)
	assert.InDelta(t, 181.1, *a.Convection.EL, 1)
	assert.InDelta(t, 3921, a.Convection.CAPE, 25)
	assert.InDelta(t, -24.8, a.Convection.CIN, 2)

	kinds := make([]domain.RegionKind, len(a.Convection.Regions))
	for i, r := range a.Convection.Regions {
		kinds[i] = r.Kind
	}
	if diff := cmp.Diff([]domain.RegionKind{domain.RegionCIN, domain.RegionCAPE}, kinds); diff != "" {
		t.Errorf("region kinds mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, ldr.loaded, 1)
}
