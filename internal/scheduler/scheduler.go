package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work. An empty schedule registers it for
// on-demand runs only.
type Job interface {
	GetName() string
	GetSchedule() string
	Execute(ctx context.Context) error
}

var ErrJobNotFound = errors.New("job not registered")

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	log     *zap.Logger
	timeout time.Duration
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		timeout: 10 * time.Minute,
	}
}

// Register adds a job and schedules it when it has a cron spec.
func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.GetSchedule()
	if schedule == "" {
		s.log.Info("job registered for on-demand runs", zap.String("job", job.GetName()))
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule %s with %q: %w", job.GetName(), schedule, err)
	}
	s.log.Info("job scheduled", zap.String("job", job.GetName()), zap.String("schedule", schedule))
	return nil
}

func (s *Scheduler) run(job Job) {
	_ = s.execute(context.Background(), job)
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", job.GetName()), zap.Error(err))
		return err
	}
	s.log.Info("job completed", zap.String("job", job.GetName()), zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// RunByName executes a registered job immediately and waits for it.
// Unknown names yield an error wrapping ErrJobNotFound.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.GetName() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("%w: %q", ErrJobNotFound, name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.GetName()
	}
	return names
}
