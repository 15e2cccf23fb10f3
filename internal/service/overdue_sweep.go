package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// OverdueSweeper periodically counts pending tasks past their due day across
// all users and publishes the total as a gauge.
type OverdueSweeper struct {
	scheduler *gocron.Scheduler
	store     port.TarefaStore
	metrics   *observability.Metrics
	interval  time.Duration
	now       Clock
	logger    *zap.Logger

	mu          sync.Mutex
	running     bool
	lastRunAt   time.Time
	lastOverdue int
}

func NewOverdueSweeper(store port.TarefaStore, metrics *observability.Metrics, interval time.Duration, now Clock, logger *zap.Logger) *OverdueSweeper {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &OverdueSweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		metrics:   metrics,
		interval:  interval,
		now:       now,
		logger:    logger,
	}
}

// Start schedules the sweep (first run immediately) and stops it when ctx ends.
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.logger.Info("overdue sweep scheduled", zap.Duration("interval", s.interval))

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("overdue sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		s.logger.Info("stopping overdue sweep")
		s.scheduler.Stop()
	}()
	return nil
}

// Run performs one sweep. A call while another sweep is in progress is skipped
// and reports the previous result.
func (s *OverdueSweeper) Run(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.running {
		last := s.lastOverdue
		s.mu.Unlock()
		s.logger.Warn("overdue sweep already running, skipping")
		return last, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := s.now()
	today := start.UTC().Format("2006-01-02")

	rows, err := s.store.ListOverdueTarefas(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list overdue tarefas: %w", err)
	}

	perUser := make(map[string]int)
	for _, t := range rows {
		perUser[t.UserID]++
	}
	s.metrics.SetOverdueTasks(len(rows))

	s.mu.Lock()
	s.lastRunAt = start
	s.lastOverdue = len(rows)
	s.mu.Unlock()

	s.logger.Info("overdue sweep done",
		zap.String("before", today),
		zap.Int("overdue", len(rows)),
		zap.Int("users", len(perUser)),
		zap.Duration("took", time.Since(start)),
	)
	return len(rows), nil
}

// LastRun reports when the last sweep finished and what it counted.
func (s *OverdueSweeper) LastRun() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt, s.lastOverdue
}
