package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dbMetricsPlugin = "db_metrics"

// DBMetricsConfig holds database metrics configuration.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DBMetrics records query counts and latencies and samples sql.DB pool stats.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics registers the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max", "Configured connection limit", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Executed statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the threshold by table", "{query}"); err != nil {
		return nil, err
	}
	m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one executed statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, d, AttrDBOperation.String(operation))
	if d > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// RecordPoolStats samples sqlDB once.
func (m *DBMetrics) RecordPoolStats(ctx context.Context, sqlDB *sql.DB) {
	stats := sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// StartPoolStatsCollection samples sqlDB every PoolStatsInterval until Stop
// is called or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.RecordPoolStats(ctx, sqlDB)
		for {
			select {
			case <-ticker.C:
				m.RecordPoolStats(ctx, sqlDB)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// Register attaches query callbacks to db.
func (m *DBMetrics) Register(db *gorm.DB) error {
	for _, h := range gormHooks(db) {
		op := h.operation
		if err := h.before(dbMetricsPlugin+":before_"+h.name, markQueryStart(dbMetricsPlugin)); err != nil {
			return err
		}
		after := func(db *gorm.DB) {
			d, _ := queryElapsed(db, dbMetricsPlugin)
			verb := op
			if verb == "" {
				verb = detectOperationType(db.Statement.SQL.String())
			}
			ctx := db.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			m.RecordQuery(ctx, verb, db.Statement.Table, d)
		}
		if err := h.after(dbMetricsPlugin+":after_"+h.name, after, ""); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDBMetrics creates DBMetrics on mp, hooks it into db and starts pool
// sampling. It returns nil when metrics are disabled.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Register(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m.StartPoolStatsCollection(ctx, sqlDB)
	logger.Info("Database metrics enabled", zap.Duration("pool_stats_interval", m.config.PoolStatsInterval))
	return m, nil
}
