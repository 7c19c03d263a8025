package scheduler

import "errors"

var (
	// ErrInvalidJob is returned when a job has no name, function or interval
	ErrInvalidJob = errors.New("scheduler: job needs a name, a function and a positive interval")
	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("scheduler: job already registered")
	// ErrAlreadyRunning is returned when jobs are added after Start
	ErrAlreadyRunning = errors.New("scheduler: already running")
)
