package http

import (
	"testing"

	"github.com/couchcryptid/storm-data-skewt/internal/adapter/chart"
	"github.com/stretchr/testify/assert"
)

func TestHistory_UpsertAndGet(t *testing.T) {
	h := newHistory(3)

	h.upsert("a").analysis = []byte("A")
	h.upsert("b").chart = &chart.Chart{AnalysisID: "b"}

	rec, ok := h.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), rec.analysis)
	assert.Nil(t, rec.chart)

	_, ok = h.get("missing")
	assert.False(t, ok)
}

func TestHistory_UpsertMergesHalves(t *testing.T) {
	h := newHistory(2)

	h.upsert("a").chart = &chart.Chart{AnalysisID: "a"}
	h.upsert("a").analysis = []byte("{}")

	rec, ok := h.get("a")
	assert.True(t, ok)
	assert.NotNil(t, rec.chart)
	assert.Equal(t, []byte("{}"), rec.analysis)
	assert.Equal(t, 1, h.len())
}

func TestHistory_Eviction(t *testing.T) {
	h := newHistory(2)

	h.upsert("a")
	h.upsert("b")
	h.upsert("c") // evicts "a"

	_, ok := h.get("a")
	assert.False(t, ok, "a should have been evicted")
	_, ok = h.get("b")
	assert.True(t, ok)
	_, ok = h.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, h.len())
}

func TestHistory_AccessPromotesEntry(t *testing.T) {
	h := newHistory(2)

	h.upsert("a")
	h.upsert("b")
	h.get("a")
	h.upsert("c") // evicts "b", not "a"

	_, ok := h.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = h.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := newHistory(0)

	h.upsert("a")
	h.upsert("b")

	_, ok := h.get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, h.len())
}
