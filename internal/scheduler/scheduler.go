// Package scheduler polls or accepts pending inference runs from a
// pluggable source and hands them to a worker pool for computation.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/module/reachability/internal/scheduler/source"
	"github.com/module/reachability/pkg/config"
	"github.com/module/reachability/pkg/utils"
)

// Task is the scheduler's internal representation of a queued inference
// run, built from a source.TaskEvent.
type Task struct {
	ID          int64
	UUID        string
	NetworkHash string
	NetworkKey  string
	Evaluator   string
	Parallel    bool
	Priority    int
}

// TaskProcessor processes a single queued run: builds the network,
// runs the engine, and persists the result.
type TaskProcessor interface {
	Process(ctx context.Context, task *Task) error
}

// SchedulerConfig configures the scheduler's polling and concurrency.
type SchedulerConfig struct {
	PollInterval  time.Duration
	WorkerCount   int
	PrioritySlots int // workers reserved for high-priority runs
	TaskBatchSize int
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   5,
		PrioritySlots: 2,
		TaskBatchSize: 10,
	}
}

// FromConfig builds a SchedulerConfig from the application configuration.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	if cfg == nil {
		return DefaultSchedulerConfig()
	}
	sc := &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		PrioritySlots: cfg.PrioritySlots,
		TaskBatchSize: cfg.TaskBatchSize,
	}
	if sc.PollInterval <= 0 {
		sc.PollInterval = 2 * time.Second
	}
	if sc.WorkerCount <= 0 {
		sc.WorkerCount = 5
	}
	if sc.TaskBatchSize <= 0 {
		sc.TaskBatchSize = 10
	}
	return sc
}

// Scheduler pulls job events from an aggregated source and dispatches
// them to a bounded worker pool.
type Scheduler struct {
	config     *SchedulerConfig
	processor  TaskProcessor
	logger     utils.Logger
	aggregator *source.Aggregator

	workerPool chan struct{}
	taskQueue  chan *Task

	wg sync.WaitGroup
	mu sync.Mutex

	running bool
	stopCh  chan struct{}
}

// New creates a new Scheduler.
func New(cfg *SchedulerConfig, aggregator *source.Aggregator, processor TaskProcessor, logger utils.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:     cfg,
		processor:  processor,
		logger:     logger,
		aggregator: aggregator,
		taskQueue:  make(chan *Task, cfg.TaskBatchSize*2),
		stopCh:     make(chan struct{}),
	}
}

// Start begins pulling job events and dispatching them to workers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	s.workerPool = make(chan struct{}, s.config.WorkerCount)
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if s.aggregator != nil {
		if err := s.aggregator.Start(ctx); err != nil {
			return err
		}
	}

	s.wg.Add(2)
	go s.sourceEventLoop(ctx)
	go s.processLoop(ctx)

	s.logger.Info("Scheduler started with %d workers", s.config.WorkerCount)
	return nil
}

// Stop stops the scheduler and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// shouldAcceptTask decides whether to admit a task given its priority
// and the current worker pool occupancy.
func (s *Scheduler) shouldAcceptTask(task *Task) bool {
	if task.Priority > 0 {
		return true
	}

	available := len(s.workerPool)
	// Reserve PrioritySlots workers exclusively for high-priority tasks
	// once the pool is running low.
	return available > s.config.PrioritySlots
}

// sourceEventLoop consumes aggregated job events and enqueues accepted
// tasks, nacking ones that can't currently be admitted.
func (s *Scheduler) sourceEventLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.aggregator == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.aggregator.Tasks():
			if !ok {
				return
			}

			task := s.convertEventToTask(event)

			if !s.shouldAcceptTask(task) {
				_ = s.aggregator.Nack(ctx, event, "worker pool saturated")
				continue
			}

			select {
			case s.taskQueue <- task:
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			default:
				s.logger.Warn("Scheduler task queue full, nacking run %s", task.UUID)
				_ = s.aggregator.Nack(ctx, event, "scheduler queue full")
			}
		}
	}
}

// processLoop dequeues tasks and runs them on the worker pool.
func (s *Scheduler) processLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}

			select {
			case <-s.workerPool:
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}

			s.wg.Add(1)
			go func(t *Task) {
				defer s.wg.Done()
				defer func() { s.workerPool <- struct{}{} }()
				s.processTask(ctx, t)
			}(task)
		}
	}
}

// processTask runs one task through the processor.
func (s *Scheduler) processTask(ctx context.Context, task *Task) {
	s.logger.Info("Processing run %s (network %s)", task.UUID, task.NetworkHash)

	err := s.processor.Process(ctx, task)
	if err != nil {
		s.logger.Error("Run %s failed: %v", task.UUID, err)
		return
	}

	s.logger.Info("Run %s completed", task.UUID)
}

// convertEventToTask converts a source.TaskEvent into a scheduler Task.
func (s *Scheduler) convertEventToTask(event *source.TaskEvent) *Task {
	job := event.Job
	return &Task{
		ID:          job.RunID,
		UUID:        job.RunUUID,
		NetworkHash: job.NetworkHash,
		NetworkKey:  job.NetworkKey,
		Evaluator:   job.Evaluator,
		Parallel:    job.Parallel,
		Priority:    event.Priority,
	}
}

// Stats returns a snapshot of the scheduler's worker occupancy.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedTasks:   len(s.taskQueue),
		Running:       s.running,
	}
}

// SchedulerStats reports scheduler worker occupancy.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueuedTasks   int  `json:"queued_tasks"`
	Running       bool `json:"running"`
}
