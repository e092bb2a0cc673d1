package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	directoryapp "github.com/orgdir/backend/internal/application/directory"
	"github.com/orgdir/backend/internal/infrastructure/config"
)

// SnapshotExporter uploads one directory snapshot
type SnapshotExporter interface {
	Snapshot(ctx context.Context) (*directoryapp.ExportResponse, error)
}

// ExportSchedulerConfig holds configuration for the snapshot export scheduler
type ExportSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Hour is the hour (0-23) when the daily snapshot is exported
	Hour int

	// Timeout is the maximum time for one export run
	Timeout time.Duration
}

// DefaultExportSchedulerConfig returns default configuration
func DefaultExportSchedulerConfig() ExportSchedulerConfig {
	return ExportSchedulerConfig{
		Enabled: false,
		Hour:    2,
		Timeout: 10 * time.Minute,
	}
}

// ExportSchedulerConfigFromStorage maps the storage settings onto a scheduler config
func ExportSchedulerConfigFromStorage(cfg config.StorageConfig) ExportSchedulerConfig {
	out := DefaultExportSchedulerConfig()
	out.Enabled = cfg.Enabled && cfg.ScheduleEnabled
	out.Hour = cfg.ScheduleHour
	if cfg.ScheduleTimeout > 0 {
		out.Timeout = cfg.ScheduleTimeout
	}
	return out
}

// Validate checks the configuration
func (c ExportSchedulerConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExportScheduler exports a directory snapshot once a day
type ExportScheduler struct {
	exporter  SnapshotExporter
	logger    *zap.Logger
	config    ExportSchedulerConfig
	now       func() time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewExportScheduler creates a new export scheduler
func NewExportScheduler(exporter SnapshotExporter, logger *zap.Logger, config ExportSchedulerConfig) *ExportScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportScheduler{
		exporter: exporter,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// Start starts the daily export loop. A disabled scheduler starts as a no-op.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Snapshot export scheduler is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runDaily(ctx)

	s.logger.Info("Snapshot export scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Duration("timeout", s.config.Timeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ExportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Snapshot export scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Snapshot export scheduler stop timed out")
		return ctx.Err()
	}
}

// nextDailyRun returns the next time the clock reads hour:00 strictly after now
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *ExportScheduler) runDaily(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.now()
		nextRun := nextDailyRun(now, s.config.Hour)
		delay := nextRun.Sub(now)

		s.logger.Info("Daily snapshot export scheduled",
			zap.Time("next_run", nextRun),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Daily export loop stopping")
			return
		case <-timer.C:
			s.execute(ctx)
		}
	}
}

func (s *ExportScheduler) execute(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.exporter.Snapshot(runCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Snapshot export failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Snapshot export completed",
		zap.Duration("duration", duration),
		zap.String("bucket", result.Bucket),
		zap.String("key", result.Key),
		zap.Int64("size", result.Size),
	)
}

// TriggerImmediate runs an export now without waiting for the schedule
func (s *ExportScheduler) TriggerImmediate(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate snapshot export")

	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *ExportScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
