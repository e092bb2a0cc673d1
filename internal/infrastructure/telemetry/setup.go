package telemetry

import (
	"context"
	"errors"

	"github.com/orgdir/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Telemetry bundles every signal provider started for the process.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts the providers enabled in cfg. The tracer is wrapped with span
// profiles once profiling is running.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{}
	var err error

	t.Tracer, err = NewTracerProvider(ctx, Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	t.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled && cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	t.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled && cfg.LogsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	t.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeAddress,
		ApplicationName: cfg.ServiceName,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	return t, nil
}

// LogCore returns the zap core that ships log entries at level and above.
func (t *Telemetry) LogCore(serviceName string, level zapcore.Level) zapcore.Core {
	return NewZapOTELCore(serviceName, t.Logs, level)
}

// DBTracing builds the GORM tracing plugin for cfg.
func DBTracing(cfg config.TelemetryConfig, driver string, logger *zap.Logger) *DBTracingPlugin {
	system := "postgresql"
	if driver == config.DriverSQLite {
		system = "sqlite"
	}
	return NewDBTracingPlugin(DBTracingConfig{
		Enabled:         cfg.Enabled && cfg.DBTraceEnabled,
		LogFullSQL:      cfg.DBLogFullSQL,
		SlowQueryThresh: cfg.DBSlowQueryThresh,
		DBSystem:        system,
	}, logger)
}

// Shutdown stops the providers in reverse start order, collecting errors.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
