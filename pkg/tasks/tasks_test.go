package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"PojClient/internal/models"
	"PojClient/pkg/executor"
	"PojClient/pkg/instance"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	block bool
	err   error
}

func (f *fakeCreator) Create(ctx context.Context, req models.InstallRequest, _ *executor.Progress) (*instance.Descriptor, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &instance.Descriptor{VersionName: req.Version}, nil
}

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestStartCompletes(t *testing.T) {
	m := NewManager(context.Background(), &fakeCreator{})
	resp := m.Start(models.InstallRequest{Name: "main", Version: "1.20.1"})

	_, err := uuid.Parse(resp.TaskID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)

	task, ok := m.Get(resp.TaskID)
	require.True(t, ok)
	waitDone(t, task)

	status, ok := m.Status(resp.TaskID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Nil(t, status.Error)
	assert.Equal(t, "1.20.1", task.Descriptor().VersionName)
}

func TestStartFails(t *testing.T) {
	m := NewManager(context.Background(), &fakeCreator{err: errors.New("boom")})
	resp := m.Start(models.InstallRequest{Name: "main", Version: "1.20.1"})
	m.Wait()

	status, ok := m.Status(resp.TaskID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Equal(t, "boom", *status.Error)
}

func TestCancel(t *testing.T) {
	m := NewManager(context.Background(), &fakeCreator{block: true})
	resp := m.Start(models.InstallRequest{Name: "main", Version: "1.20.1"})

	assert.True(t, m.Cancel(resp.TaskID))
	m.Wait()

	status, _ := m.Status(resp.TaskID)
	assert.Equal(t, StatusCancelled, status.Status)
	assert.False(t, m.Cancel("missing"))
}

func TestUnknownTask(t *testing.T) {
	m := NewManager(context.Background(), &fakeCreator{})
	_, ok := m.Status("nope")
	assert.False(t, ok)
}
