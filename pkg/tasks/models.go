package tasks

import (
	"context"
	"sync"

	"PojClient/internal/models"
	"PojClient/pkg/executor"
	"PojClient/pkg/instance"
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Creator is the install entry point tasks run.
type Creator interface {
	Create(ctx context.Context, req models.InstallRequest, progress *executor.Progress) (*instance.Descriptor, error)
}

type Task struct {
	ID       string
	Request  models.InstallRequest
	Progress *executor.Progress

	mu         sync.Mutex
	status     string
	err        error
	descriptor *instance.Descriptor
	cancel     context.CancelFunc
	done       chan struct{}
}

type Manager struct {
	creator Creator
	ctx     context.Context

	mu    sync.RWMutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}
