package kafka

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-skewt/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMessage(t *testing.T) {
	now := time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	nan := math.NaN()
	a, err := domain.Analyze(domain.Sounding{
		Source: "may4_sounding.txt",
		Units:  domain.StandardUnits(),
		Levels: []domain.Level{
			{Pressure: 1000, Height: 110, Temperature: 20, Dewpoint: 18, Direction: 180, Speed: 10},
			{Pressure: 850, Height: nan, Temperature: 12, Dewpoint: 6, Direction: nan, Speed: nan},
		},
	})
	require.NoError(t, err)

	msg, err := toMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte(a.ID), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "processed_at", msg.Headers[0].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[0].Value)
	assert.Equal(t, "source", msg.Headers[1].Key)
	assert.Equal(t, []byte("may4_sounding.txt"), msg.Headers[1].Value)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &doc))
	assert.Equal(t, a.ID, doc["id"])
	assert.Contains(t, string(msg.Value), `"height_m":null`)
}
