package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

type countingStats struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (s *countingStats) CountOrganizations(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.n, s.err
}

func TestDirectoryMetrics_Records(t *testing.T) {
	provider, reader := newTestMeter(t)
	ctx := context.Background()

	m, err := NewDirectoryMetrics(provider.Meter("directory"), zaptest.NewLogger(t))
	require.NoError(t, err)

	m.RecordWrite(ctx, EntityOrganization, ActionCreate)
	m.RecordWrite(ctx, EntityOrganization, ActionCreate)
	m.RecordWrite(ctx, EntityBuilding, ActionDelete)
	m.RecordSearch(ctx, "radius", 4)
	m.RecordCacheLookup(ctx, true)
	m.RecordCacheLookup(ctx, false)
	m.RecordCacheLookup(ctx, false)
	m.RecordLogin(ctx, false)
	m.RecordExport(ctx, 2048, nil)
	m.RecordExport(ctx, 0, errors.New("bucket missing"))

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, metrics["directory_writes_total"], AttrWriteAction.String(ActionCreate)))
	assert.Equal(t, int64(1), sumFor(t, metrics["directory_organization_searches_total"], AttrSearchKind.String("radius")))
	assert.Equal(t, int64(2), sumFor(t, metrics["directory_activity_cache_lookups_total"], AttrCacheResult.String("miss")))
	assert.Equal(t, int64(1), sumFor(t, metrics["directory_logins_total"], AttrOutcome.String("failure")))
	assert.Equal(t, int64(1), sumFor(t, metrics["directory_exports_total"], AttrOutcome.String("success")))
	assert.Equal(t, int64(1), sumFor(t, metrics["directory_exports_total"], AttrOutcome.String("failure")))

	bytes := metrics["directory_export_bytes_total"].Data.(metricdata.Sum[int64])
	require.Len(t, bytes.DataPoints, 1)
	assert.Equal(t, int64(2048), bytes.DataPoints[0].Value)

	hist := metrics["directory_organization_search_results"].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, 4.0, hist.DataPoints[0].Sum)
}

func TestDirectoryMetrics_NilIsNoop(t *testing.T) {
	var m *DirectoryMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordWrite(ctx, EntityUser, ActionUpdate)
		m.RecordSearch(ctx, "name", 0)
		m.RecordCacheLookup(ctx, true)
		m.RecordLogin(ctx, true)
		m.RecordExport(ctx, 1, nil)
		m.StartPeriodicCollection(ctx, &countingStats{}, time.Second)
		m.Stop()
	})
}

func TestDirectoryMetrics_PeriodicCollection(t *testing.T) {
	provider, reader := newTestMeter(t)
	m, err := NewDirectoryMetrics(provider.Meter("directory"), nil)
	require.NoError(t, err)

	stats := &countingStats{n: 12}
	m.StartPeriodicCollection(context.Background(), stats, 10*time.Millisecond)
	require.Eventually(t, func() bool { return stats.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	assert.Equal(t, int64(12), gaugeFor(t, collect(t, reader)["directory_organizations"]))
}

func TestDirectoryMetrics_CollectionErrorKeepsRunning(t *testing.T) {
	provider, _ := newTestMeter(t)
	m, err := NewDirectoryMetrics(provider.Meter("directory"), zaptest.NewLogger(t))
	require.NoError(t, err)

	stats := &countingStats{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	m.StartPeriodicCollection(ctx, stats, 5*time.Millisecond)
	require.Eventually(t, func() bool { return stats.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	m.Stop()
}
