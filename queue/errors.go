package queue

import "errors"

var (
	// ErrQueueRepositoryRequired is returned when no queue repository is provided.
	ErrQueueRepositoryRequired = errors.New("queue repository is required")

	// ErrProcessorRequired is returned when no entry processor is provided.
	ErrProcessorRequired = errors.New("processor is required")

	// ErrAlreadyRunning is returned when Start is called on a running manager.
	ErrAlreadyRunning = errors.New("manager is already running")
)
