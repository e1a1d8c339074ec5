//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/chart"
	"github.com/couchcryptid/storm-data-skewt/internal/adapter/fixedwidth"
	httpadapter "github.com/couchcryptid/storm-data-skewt/internal/adapter/http"
	"github.com/couchcryptid/storm-data-skewt/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/couchcryptid/storm-data-skewt/internal/observability"
	"github.com/couchcryptid/storm-data-skewt/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

const testSinkTopic = "test-sounding-analyses"

var fixturePath = filepath.Join("..", "..", "data", "may4_sounding.txt")

// TestPipelineEndToEnd runs the fixture through every sink with a real broker.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()

	writer := kafka.NewWriter([]string{broker}, testSinkTopic, logger)
	t.Cleanup(func() { _ = writer.Close() })

	out := filepath.Join(t.TempDir(), "skewt.png")
	var p *pipeline.Pipeline
	srv := httpadapter.NewServer(":0", httpadapter.ReadinessFunc(func(ctx context.Context) error {
		return p.CheckReadiness(ctx)
	}), logger)
	renderer := chart.NewRenderer(chart.Options{Width: 6 * vg.Inch, Height: 6 * vg.Inch}, logger, metrics,
		chart.NewFileSink(out), srv)

	p = pipeline.New(
		fixedwidth.NewReader(fixturePath, fixedwidth.DefaultHeaderRows, logger),
		pipeline.NewTransformer(logger, metrics),
		logger, metrics,
		renderer, srv, writer,
	)

	a, err := p.Run(ctx)
	require.NoError(t, err)

	// Chart on disk.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	// Chart and analysis over HTTP.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/skewt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Analysis on the topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, a.ID, string(msg.Key))
	assert.Equal(t, "may4_sounding.txt", headers["source"])
	_, err = time.Parse(time.RFC3339, headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	var doc domain.AnalysisDocument
	require.NoError(t, json.Unmarshal(msg.Value, &doc))
	assert.Equal(t, a.ID, doc.ID)
	assert.Len(t, doc.Levels, 25)
	require.NotNil(t, doc.Convection.LFC)
	assert.Greater(t, doc.Convection.CAPE, 1000.0)
}
