package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Entity and action values for RecordWrite.
const (
	EntityBuilding     = "building"
	EntityActivity     = "activity"
	EntityOrganization = "organization"
	EntityUser         = "user"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// DirectoryStatsProvider reports the current size of the directory.
type DirectoryStatsProvider interface {
	CountOrganizations(ctx context.Context) (int64, error)
}

// DirectoryMetrics tracks directory usage. A nil *DirectoryMetrics is valid
// and records nothing, so services can hold one unconditionally.
type DirectoryMetrics struct {
	writes        *Counter
	searches      *Counter
	searchResults *Histogram
	cacheLookups  *Counter
	logins        *Counter
	exports       *Counter
	exportBytes   *Counter
	organizations *Gauge

	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDirectoryMetrics registers the directory instruments on meter.
func NewDirectoryMetrics(meter metric.Meter, logger *zap.Logger) (*DirectoryMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &DirectoryMetrics{logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.writes, err = NewCounter(meter, "directory_writes_total", "Entity writes by entity and action", "{write}"); err != nil {
		return nil, err
	}
	if m.searches, err = NewCounter(meter, "directory_organization_searches_total", "Organization lookups by filter kind", "{search}"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = NewCounter(meter, "directory_activity_cache_lookups_total", "Activity catalogue cache lookups by result", "{lookup}"); err != nil {
		return nil, err
	}
	if m.logins, err = NewCounter(meter, "directory_logins_total", "Login attempts by outcome", "{login}"); err != nil {
		return nil, err
	}
	if m.exports, err = NewCounter(meter, "directory_exports_total", "Snapshot exports by outcome", "{export}"); err != nil {
		return nil, err
	}
	if m.exportBytes, err = NewCounter(meter, "directory_export_bytes_total", "Bytes uploaded by snapshot exports", "By"); err != nil {
		return nil, err
	}
	if m.organizations, err = NewGauge(meter, "directory_organizations", "Organizations currently stored", "{organization}"); err != nil {
		return nil, err
	}
	m.searchResults, err = NewHistogram(meter, HistogramOpts{
		Name:        "directory_organization_search_results",
		Description: "Organizations returned per lookup",
		Unit:        "{organization}",
		Boundaries:  []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordWrite counts a successful create, update or delete.
func (m *DirectoryMetrics) RecordWrite(ctx context.Context, entity, action string) {
	if m == nil {
		return
	}
	m.writes.Inc(ctx, AttrEntity.String(entity), AttrWriteAction.String(action))
}

// RecordSearch counts an organization lookup and the size of its result page.
func (m *DirectoryMetrics) RecordSearch(ctx context.Context, kind string, results int) {
	if m == nil {
		return
	}
	m.searches.Inc(ctx, AttrSearchKind.String(kind))
	m.searchResults.Record(ctx, float64(results), AttrSearchKind.String(kind))
}

// RecordCacheLookup counts an activity catalogue cache hit or miss.
func (m *DirectoryMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCacheResult.String(result))
}

// RecordLogin counts a login attempt.
func (m *DirectoryMetrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.logins.Inc(ctx, AttrOutcome.String(outcome(success)))
}

// RecordExport counts a snapshot export and, on success, its size.
func (m *DirectoryMetrics) RecordExport(ctx context.Context, size int64, err error) {
	if m == nil {
		return
	}
	m.exports.Inc(ctx, AttrOutcome.String(outcome(err == nil)))
	if err == nil {
		m.exportBytes.Add(ctx, size)
	}
}

// StartPeriodicCollection samples provider every interval until Stop.
func (m *DirectoryMetrics) StartPeriodicCollection(ctx context.Context, provider DirectoryStatsProvider, interval time.Duration) {
	if m == nil || provider == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.collect(ctx, provider)
		for {
			select {
			case <-ticker.C:
				m.collect(ctx, provider)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DirectoryMetrics) collect(ctx context.Context, provider DirectoryStatsProvider) {
	n, err := provider.CountOrganizations(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect directory stats", zap.Error(err))
		return
	}
	m.organizations.Record(ctx, n)
}

// Stop ends periodic collection. Safe to call more than once.
func (m *DirectoryMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
