package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/infrastructure/logger"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// JobStatus is a snapshot of one registered job
type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Running      bool          `json:"running"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	LastRunAt    *time.Time    `json:"last_run_at,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	NextRunAt    *time.Time    `json:"next_run_at,omitempty"`
}

type job struct {
	name     string
	schedule string
	fn       JobFunc
	entryID  cron.EntryID
	running  atomic.Bool

	mu       sync.Mutex
	runs     int64
	failures int64
	lastRun  *time.Time
	lastDur  time.Duration
	lastErr  string
}

// Scheduler runs named jobs on cron schedules (UTC, standard five-field
// expressions or descriptors such as "@every 1m"). A job never overlaps
// with itself; a tick that finds it still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New creates a scheduler. Each run gets its own context bounded by jobTimeout (0 disables).
func New(jobTimeout time.Duration, l *zap.Logger) *Scheduler {
	if l == nil {
		l = zap.NewNop()
	}
	cl := cronLogger{l: l.Named("cron")}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		timeout: jobTimeout,
		logger:  l,
		jobs:    make(map[string]*job),
		ctx:     context.Background(),
	}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(name, schedule string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerStarted
	}
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, schedule, err)
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(s.baseContext(), j); errors.Is(err, ErrJobRunning) {
			s.logger.Warn("scheduled run skipped, previous run still active", zap.String("job", name))
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, schedule, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Start begins firing schedules. Calling it twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop halts the schedules, cancels running jobs and waits for them until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs the named job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, j)
}

// Jobs returns the status of every job ordered by name
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	started := s.started
	s.mu.Unlock()

	out := make([]JobStatus, 0, len(jobs))
	for _, j := range jobs {
		j.mu.Lock()
		st := JobStatus{
			Name:         j.name,
			Schedule:     j.schedule,
			Running:      j.running.Load(),
			Runs:         j.runs,
			Failures:     j.failures,
			LastRunAt:    j.lastRun,
			LastDuration: j.lastDur,
			LastError:    j.lastErr,
		}
		j.mu.Unlock()
		if started {
			if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
				st.NextRunAt = &next
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, j *job) (err error) {
	if !j.running.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	defer j.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = logger.WithContext(ctx, s.logger.With(zap.String("job", j.name)))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		s.record(j, start, err)
	}()
	return j.fn(ctx)
}

func (s *Scheduler) record(j *job, start time.Time, err error) {
	dur := time.Since(start)
	j.mu.Lock()
	j.runs++
	j.lastRun = &start
	j.lastDur = dur
	j.lastErr = ""
	if err != nil {
		j.failures++
		j.lastErr = err.Error()
	}
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", zap.String("job", j.name), zap.Duration("duration", dur), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", j.name), zap.Duration("duration", dur))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
