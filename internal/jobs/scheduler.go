package jobs

import (
	"context"
	"fmt"
	"time"

	"anoa.com/donorhub/pkg/apperror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of background work. An empty Schedule registers the job
// for on-demand runs only.
type Job struct {
	Name     string
	Schedule string
	Execute  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	log     *zap.Logger
}

// NewScheduler evaluates schedules in UTC so resets line up with the XP windows.
func NewScheduler(timeout time.Duration, log *zap.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		jobs:    make([]Job, 0),
		timeout: timeout,
		log:     log,
	}
}

func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Execute == nil {
		return fmt.Errorf("job needs a name and an Execute func")
	}
	for _, j := range s.jobs {
		if j.Name == job.Name {
			return fmt.Errorf("job %q already registered", job.Name)
		}
	}

	if job.Schedule != "" {
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) }); err != nil {
			return fmt.Errorf("schedule %q: %w", job.Name, err)
		}
		s.log.Info("job scheduled", zap.String("job", job.Name), zap.String("cron", job.Schedule))
	} else {
		s.log.Info("job registered on demand", zap.String("job", job.Name))
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.log.Info("job completed", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
	s.log.Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			s.log.Info("running job on demand", zap.String("job", name))
			return job.Execute(ctx)
		}
	}
	return apperror.NotFound(fmt.Sprintf("job %q not found", name))
}

func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name
	}
	return names
}
