package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig holds Pyroscope configuration.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// ProfileTypes defaults to DefaultProfileTypes when empty.
	ProfileTypes []pyroscope.ProfileType
	// MutexProfileFraction and BlockProfileRate apply only when the matching
	// profile types are requested. Zero means 5.
	MutexProfileFraction int
	BlockProfileRate     int
}

// DefaultProfileTypes covers CPU, heap and goroutines; mutex and block
// profiling cost enough that they are opt-in.
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler manages the lifetime of a Pyroscope session.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	mu       sync.Mutex
	stopped  bool
}

// NewProfiler starts continuous profiling. When disabled it returns a profiler
// whose Stop is a no-op.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required when profiling is enabled")
	}

	types := cfg.ProfileTypes
	if len(types) == 0 {
		types = DefaultProfileTypes
	}
	applyRuntimeRates(types, cfg)

	pcfg := pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            hostTags(),
		ProfileTypes:    types,
	}
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPassword != "" {
		pcfg.BasicAuthUser = cfg.BasicAuthUser
		pcfg.BasicAuthPassword = cfg.BasicAuthPassword
	}

	profiler, err := pyroscope.Start(pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	p.profiler = profiler

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

func applyRuntimeRates(types []pyroscope.ProfileType, cfg ProfilerConfig) {
	var mutex, block bool
	for _, t := range types {
		switch t {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			mutex = true
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			block = true
		}
	}
	if mutex {
		runtime.SetMutexProfileFraction(orDefault(cfg.MutexProfileFraction, 5))
	}
	if block {
		runtime.SetBlockProfileRate(orDefault(cfg.BlockProfileRate, 5))
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func hostTags() map[string]string {
	tags := map[string]string{}
	if h := os.Getenv("HOSTNAME"); h != "" {
		tags["hostname"] = h
	}
	if pod := os.Getenv("POD_NAME"); pod != "" {
		tags["pod"] = pod
	}
	return tags
}

// IsEnabled reports whether a Pyroscope session is running.
func (p *Profiler) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profiler != nil && !p.stopped
}

// Stop flushes and ends the session. Safe to call more than once.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	if p.profiler == nil {
		return nil
	}
	if err := p.profiler.Stop(); err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	p.logger.Info("Pyroscope profiler stopped")
	return nil
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
