package service

import (
	"context"
	"fmt"
	"time"

	"condo-automation/internal/core/domain"
	"condo-automation/internal/core/ports"
	"condo-automation/pkg/apperror"
	"condo-automation/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Scheduler fans out to the registered jobs and aggregates their outcomes.
// It implements ports.SchedulerService.
type Scheduler struct {
	jobs    []ports.Job
	metrics *metrics.JobMetrics
	now     func() time.Time
	log     zerolog.Logger
}

// NewScheduler creates a scheduler over jobs. Report order follows jobs.
func NewScheduler(jobs []ports.Job, m *metrics.JobMetrics, log zerolog.Logger) *Scheduler {
	return &Scheduler{jobs: jobs, metrics: m, now: time.Now, log: log}
}

// Names returns the registered job names in order.
func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name()
	}
	return names
}

// RunAll runs every job concurrently and waits for all of them. A job that
// errors or panics is reported as such; it never affects the others.
func (s *Scheduler) RunAll(ctx context.Context) domain.RunReport {
	start := s.now()
	summary := make([]domain.TaskOutcome, len(s.jobs))

	wp := pool.New()
	for i, job := range s.jobs {
		wp.Go(func() {
			summary[i] = s.runJob(ctx, job)
		})
	}
	wp.Wait()

	return s.report(start, summary)
}

// RunOne runs the named job only.
func (s *Scheduler) RunOne(ctx context.Context, task string) (domain.RunReport, error) {
	for _, job := range s.jobs {
		if job.Name() == task {
			start := s.now()
			return s.report(start, []domain.TaskOutcome{s.runJob(ctx, job)}), nil
		}
	}
	return domain.RunReport{}, apperror.ErrUnknownTask(task)
}

func (s *Scheduler) report(start time.Time, summary []domain.TaskOutcome) domain.RunReport {
	return domain.RunReport{
		Timestamp:  start.UTC(),
		DurationMS: s.now().Sub(start).Milliseconds(),
		Summary:    summary,
	}
}

func (s *Scheduler) runJob(ctx context.Context, job ports.Job) (out domain.TaskOutcome) {
	name := job.Name()
	log := s.log.With().Str("job", name).Str("event", "cron.job").Logger()
	out.Task = name

	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error().Interface("panic", r).Msg("job panicked")
		}
		d := time.Since(start)
		out.DurationMS = d.Milliseconds()
		s.metrics.ObserveRun(name, d, err)
		if err != nil {
			out.Status = domain.TaskStatusError
			out.Error = err.Error()
			out.Result = nil
			log.Error().Err(err).Int64("duration_ms", out.DurationMS).Msg("job failed")
			return
		}
		out.Status = domain.TaskStatusOK
		log.Info().Int64("duration_ms", out.DurationMS).Msg("job completed")
	}()

	log.Info().Msg("job start")
	out.Result, err = job.Run(ctx)
	return out
}
