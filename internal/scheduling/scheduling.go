// Package scheduling runs the daemon's periodic jobs.
package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobName represents the name of a periodic job.
type JobName string

// JobAudit compares the exports with the devices present on the host.
const JobAudit JobName = "audit"

// Scheduler represents a background job scheduler.
type Scheduler struct {
	jobs      map[JobName]uuid.UUID
	scheduler gocron.Scheduler
}

// JobFunc represents the type of function that executes a scheduled job.
type JobFunc func(context.Context) error

var (
	// ErrInvalidCronTab is returned when an invalid crontab expression is provided.
	ErrInvalidCronTab = errors.New("invalid crontab expression")

	// ErrUnknownJob is returned when a job was never registered.
	ErrUnknownJob = errors.New("unknown job")
)

// NewScheduler creates a new Scheduler.
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		jobs:      map[JobName]uuid.UUID{},
		scheduler: scheduler,
	}, nil
}

// ValidateCronTab checks a five field crontab expression.
func ValidateCronTab(crontab string) error {
	cron := gocron.NewDefaultCron(false)

	err := cron.IsValid(crontab, time.UTC, time.Now())
	if err != nil {
		return ErrInvalidCronTab
	}

	return nil
}

// RegisterJob registers a job in the Scheduler.
//
// If the job does not exist, it is created. If it already exists, it is updated.
func (s *Scheduler) RegisterJob(name JobName, crontab string, jobFunc JobFunc) error {
	err := ValidateCronTab(crontab)
	if err != nil {
		return err
	}

	id, ok := s.jobs[name]
	if ok {
		_, err := s.scheduler.Update(id,
			gocron.CronJob(crontab, false),
			gocron.NewTask(wrapJob(name, jobFunc)),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return err
		}

		return nil
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(wrapJob(name, jobFunc)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(string(name)),
	)
	if err != nil {
		return err
	}

	s.jobs[name] = job.ID()

	return nil
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []JobName {
	return slices.Sorted(maps.Keys(s.jobs))
}

// RunNow triggers a registered job outside of its schedule.
func (s *Scheduler) RunNow(name JobName) error {
	id, ok := s.jobs[name]
	if !ok {
		return ErrUnknownJob
	}

	for _, job := range s.scheduler.Jobs() {
		if job.ID() == id {
			return job.RunNow()
		}
	}

	return ErrUnknownJob
}

// Start starts the scheduler and its registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Shutdown shuts down the scheduler and its registered jobs.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

func wrapJob(name JobName, jobFunc JobFunc) func(context.Context) {
	return func(ctx context.Context) {
		select {
		// If the context is already cancelled, don't start the job.
		case <-ctx.Done():
			return

		default:
			slog.DebugContext(ctx, "Executing periodic job", slog.String("job", string(name)))

			err := jobFunc(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Error running periodic job", slog.String("job", string(name)), slog.Any("error", err))
			}
		}
	}
}
