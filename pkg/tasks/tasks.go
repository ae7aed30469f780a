// Package tasks runs installs in the background and reports on them.
package tasks

import (
	"context"
	"errors"

	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/executor"
	"PojClient/pkg/instance"

	"github.com/google/uuid"
)

// NewManager runs tasks under ctx; cancelling it cancels every task.
func NewManager(ctx context.Context, creator Creator) *Manager {
	return &Manager{creator: creator, ctx: ctx, tasks: make(map[string]*Task)}
}

// Start launches an install and returns immediately.
func (m *Manager) Start(req models.InstallRequest) models.TaskResponse {
	ctx, cancel := context.WithCancel(m.ctx)
	task := &Task{
		ID:       uuid.NewString(),
		Request:  req,
		Progress: executor.NewProgress(),
		status:   StatusPending,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.run(ctx, task)
	}()

	logging.GlobalLogger.WithField("task", task.ID).Infof("Queued install of %s as %q", req.Version, req.Name)
	return models.TaskResponse{TaskID: task.ID, Status: StatusPending, Message: "install of " + req.Name + " queued"}
}

func (m *Manager) run(ctx context.Context, task *Task) {
	defer close(task.done)
	defer task.Progress.Close()

	task.setStatus(StatusRunning, nil, nil)
	d, err := m.creator.Create(ctx, task.Request, task.Progress)

	log := logging.GlobalLogger.WithField("task", task.ID)
	switch {
	case err == nil:
		task.setStatus(StatusCompleted, nil, d)
		log.Infof("Install of %q completed", task.Request.Name)
	case errors.Is(err, context.Canceled):
		task.setStatus(StatusCancelled, err, nil)
		log.Warnf("Install of %q cancelled", task.Request.Name)
	default:
		task.setStatus(StatusFailed, err, nil)
		log.WithField("cause", err).Errorf("Install of %q failed", task.Request.Name)
	}
}

func (m *Manager) Get(id string) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	return task, ok
}

func (m *Manager) Status(id string) (models.TaskStatus, bool) {
	task, ok := m.Get(id)
	if !ok {
		return models.TaskStatus{}, false
	}
	return task.Status(), true
}

// Cancel asks a running task to stop. It reports whether the task exists.
func (m *Manager) Cancel(id string) bool {
	task, ok := m.Get(id)
	if ok {
		task.cancel()
	}
	return ok
}

// Wait blocks until every started task finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (t *Task) setStatus(status string, err error, d *instance.Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.err = err
	t.descriptor = d
}

// Done is closed once the task reached a final status.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Descriptor() *instance.Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.descriptor
}

func (t *Task) Status() models.TaskStatus {
	t.mu.Lock()
	status, err := t.status, t.err
	t.mu.Unlock()

	counters := t.Progress.Snapshot()
	fraction := t.Progress.Fraction()
	out := models.TaskStatus{TaskID: t.ID, Status: status, Progress: &fraction, Counters: &counters}
	if err != nil {
		msg := err.Error()
		out.Error = &msg
	}
	return out
}
