package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

func TestNewMetrics(t *testing.T) {
	// 各テストで新しいレジストリを使用
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.SourceRequestDuration)
	assert.NotNil(t, m.PostsFetchedTotal)
	assert.NotNil(t, m.EventsIngestedTotal)
	assert.NotNil(t, m.DuplicatesDroppedTotal)
	assert.NotNil(t, m.ExtractionMissesTotal)
	assert.NotNil(t, m.PipelineRunsTotal)
	assert.NotNil(t, m.CatalogEvents)
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/:id", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/:id", "404").Inc()

	assert.Equal(t, 3, findFamily(t, reg, "http_requests_total"))
}

func TestEventsIngestedTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.EventsIngestedTotal.WithLabelValues("jpa").Add(40)
	m.EventsIngestedTotal.WithLabelValues("manual").Add(3)

	assert.Equal(t, 2, findFamily(t, reg, "events_ingested_total"))
}

func TestExtractionMissesTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ExtractionMissesTotal.WithLabelValues("event_date").Inc()
	m.ExtractionMissesTotal.WithLabelValues("event_date").Inc()
	m.ExtractionMissesTotal.WithLabelValues("prefecture").Inc()

	assert.Equal(t, 2, findFamily(t, reg, "events_extraction_misses_total"))
}

func TestPipelineRunsAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.PipelineRunsTotal.WithLabelValues("success").Inc()
	m.PipelineRunsTotal.WithLabelValues("failed").Inc()
	m.CatalogEvents.Set(42)
	m.SourceRequestDuration.WithLabelValues("200").Observe(0.3)

	assert.Equal(t, 2, findFamily(t, reg, "events_pipeline_runs_total"))
	assert.Equal(t, 1, findFamily(t, reg, "events_catalog_size"))
	assert.Equal(t, 1, findFamily(t, reg, "events_source_request_duration_seconds"))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.prom")

	require.NoError(t, WriteTextfile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestInit_CreatesDefaultMetrics(t *testing.T) {
	// 既存のdefaultMetricsをバックアップ
	oldMetrics := defaultMetrics
	defer func() { defaultMetrics = oldMetrics }()

	// Initを呼ぶとデフォルトレジストリに登録するため、テストでは直接セット
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	defaultMetrics = m

	got := Get()
	assert.NotNil(t, got)
	assert.Equal(t, m, got)
}
