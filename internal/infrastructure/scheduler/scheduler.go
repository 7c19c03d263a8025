// Package scheduler runs background maintenance jobs at fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// JobFunc is one run of a job
type JobFunc func(ctx context.Context) error

// Job is a named function run every Interval. Timeout bounds a single run;
// zero means the interval.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      JobFunc
}

// RunStats describes the runs of one job so far
type RunStats struct {
	Runs      int
	Failures  int
	LastRunAt time.Time
	LastError error
}

// Scheduler runs each registered job on its own ticker. A job never
// overlaps with itself: a tick that arrives while the previous run is
// still going is dropped.
type Scheduler struct {
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	jobs    []Job
	stats   map[string]*RunStats
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock overrides the clock used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger: logger,
		now:    time.Now,
		stats:  make(map[string]*RunStats),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return ErrInvalidJob
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	if _, ok := s.stats[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs = append(s.jobs, job)
	s.stats[job.Name] = &RunStats{}
	return nil
}

// Start launches one goroutine per job. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels the jobs and waits for running ones to return, or for ctx
// to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs the named job once in the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var found *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			found = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	return s.execute(ctx, *found)
}

// Stats returns a copy of the run statistics of a job
func (s *Scheduler) Stats(name string) (RunStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		return RunStats{}, false
	}
	return *st, true
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	var err error
	telemetry.WithProfilingLabels(runCtx, map[string]string{telemetry.ProfilingLabelJob: job.Name}, func(ctx context.Context) {
		err = job.Run(ctx)
	})

	s.mu.Lock()
	st := s.stats[job.Name]
	st.Runs++
	st.LastRunAt = start
	st.LastError = err
	if err != nil {
		st.Failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled job failed", zap.String("job", job.Name), zap.Error(err))
		return err
	}
	s.logger.Debug("Scheduled job finished",
		zap.String("job", job.Name),
		zap.Duration("duration", s.now().Sub(start)))
	return nil
}
