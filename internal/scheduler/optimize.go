package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/optimizer"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

// BulkOptimizer is the part of the optimizer service the scheduler drives.
type BulkOptimizer interface {
	OptimizeMany(ctx context.Context, req optimizer.BulkRequest) (*models.BulkResult, error)
}

type OptimizeSchedulerConfig struct {
	Spec                string // standard 5-field cron expression or descriptor such as @daily
	Objective           pricing.Objective
	ConsiderCompetitors bool
	Timeout             time.Duration
	OnComplete          func(res *models.BulkResult)
}

// OptimizeScheduler re-optimizes every product on a cron schedule.
type OptimizeScheduler struct {
	svc BulkOptimizer
	cfg OptimizeSchedulerConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	busy    sync.Mutex
}

func NewOptimizeScheduler(svc BulkOptimizer, cfg OptimizeSchedulerConfig) (*OptimizeScheduler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.Objective == "" {
		cfg.Objective = pricing.ObjectiveProfit
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", cfg.Spec, err)
	}
	return &OptimizeScheduler{svc: svc, cfg: cfg}, nil
}

func (s *OptimizeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		fmt.Println("[SCHEDULER] Already running")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Spec, s.tick); err != nil {
		return fmt.Errorf("register optimize task: %w", err)
	}
	c.Start()
	s.cron = c
	s.running = true
	fmt.Printf("[SCHEDULER] Started (%s, objective %s)\n", s.cfg.Spec, s.cfg.Objective)
	return nil
}

// Stop halts the schedule and waits for a run in progress to finish.
func (s *OptimizeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	fmt.Println("[SCHEDULER] Stopped")
}

func (s *OptimizeScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers a bulk optimization outside the schedule.
func (s *OptimizeScheduler) RunNow(ctx context.Context) (*models.BulkResult, error) {
	fmt.Println("[SCHEDULER] Manual optimization triggered")
	return s.run(ctx)
}

func (s *OptimizeScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if _, err := s.run(ctx); err != nil {
		fmt.Printf("[SCHEDULER] Scheduled optimization failed: %v\n", err)
	}
}

func (s *OptimizeScheduler) run(ctx context.Context) (*models.BulkResult, error) {
	if !s.busy.TryLock() {
		fmt.Println("[SCHEDULER] Previous run still in progress, skipping")
		return nil, nil
	}
	defer s.busy.Unlock()

	start := time.Now()
	res, err := s.svc.OptimizeMany(ctx, optimizer.BulkRequest{
		Objective:           s.cfg.Objective,
		ConsiderCompetitors: s.cfg.ConsiderCompetitors,
	})
	if err != nil {
		return nil, fmt.Errorf("bulk optimize: %w", err)
	}

	fmt.Printf("[SCHEDULER] Optimized %d/%d products in %s (profit %+.2f/day, revenue %+.2f/day)\n",
		res.OptimizedProducts, res.TotalProducts, time.Since(start).Round(time.Millisecond),
		res.TotalPotentialProfitIncrease, res.TotalPotentialRevenueIncrease)

	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(res)
	}
	return res, nil
}
