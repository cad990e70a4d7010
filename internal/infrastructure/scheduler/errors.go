package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned for a cron expression that does not parse
	ErrInvalidSchedule = errors.New("scheduler: invalid schedule")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("scheduler: job already registered")

	// ErrJobNotFound is returned by RunNow for an unknown job
	ErrJobNotFound = errors.New("scheduler: job not found")

	// ErrJobRunning is returned by RunNow while the same job is still running
	ErrJobRunning = errors.New("scheduler: job already running")

	// ErrSchedulerStarted is returned when registering after Start
	ErrSchedulerStarted = errors.New("scheduler: already started")
)
